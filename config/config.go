package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// AppConfig holds everything the server needs from the environment.
type AppConfig struct {
	Port         string
	DatabasePath string

	SecretKey                string
	AccessTokenExpireMinutes int

	OpenAIAPIKey string
	CohereAPIKey string
	GeminiAPIKey string

	LLMProvider    string
	LLMModel       string
	EmbeddingModel string

	ChromaURL        string
	VectorCollection string

	ChunkSize      int
	ChunkOverlap   int
	TopKRetrieval  int
	RerankTopN     int
	RerankModel    string
	CohereBaseURL  string

	UploadDir string
	TempDir   string

	GoogleClientID       string
	GoogleClientSecret   string
	GitHubClientID       string
	GitHubClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string
	OAuthRedirectURI     string
}

// Load reads configuration from the environment, falling back to sane
// defaults. A .env file in the working directory is honoured if present.
func Load() AppConfig {
	if err := godotenv.Load(); err != nil {
		log.Println("CONFIG: No .env file found, relying on environment variables.")
	}

	get := func(k, def string) string {
		if v := os.Getenv(k); v != "" {
			return v
		}
		return def
	}
	getInt := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Printf("CONFIG: invalid integer for %s, using default %d", k, def)
		}
		return def
	}

	cfg := AppConfig{
		Port:         get("PORT", "8000"),
		DatabasePath: get("DATABASE_PATH", "data/app.db"),

		SecretKey:                get("SECRET_KEY", "supersecretkey"),
		AccessTokenExpireMinutes: getInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30),

		OpenAIAPIKey: get("OPENAI_API_KEY", ""),
		CohereAPIKey: get("COHERE_API_KEY", ""),
		GeminiAPIKey: get("GEMINI_API_KEY", ""),

		LLMProvider:    get("LLM_PROVIDER", "openai"),
		LLMModel:       get("LLM_MODEL", "gpt-4o-mini"),
		EmbeddingModel: get("EMBEDDING_MODEL", "text-embedding-3-small"),

		ChromaURL:        get("CHROMA_URL", "http://localhost:8001"),
		VectorCollection: get("VECTOR_COLLECTION", "course-notes-qa"),

		ChunkSize:     getInt("CHUNK_SIZE", 1000),
		ChunkOverlap:  getInt("CHUNK_OVERLAP", 200),
		TopKRetrieval: getInt("TOP_K_RETRIEVAL", 5),
		RerankTopN:    getInt("RERANK_TOP_N", 5),
		RerankModel:   get("RERANK_MODEL", "rerank-english-v3.0"),
		CohereBaseURL: get("COHERE_BASE_URL", "https://api.cohere.ai"),

		UploadDir: get("UPLOAD_DIR", "data/uploads"),
		TempDir:   get("TEMP_DIR", "data/temp"),

		GoogleClientID:       get("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   get("GOOGLE_CLIENT_SECRET", ""),
		GitHubClientID:       get("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret:   get("GITHUB_CLIENT_SECRET", ""),
		FacebookClientID:     get("FACEBOOK_CLIENT_ID", ""),
		FacebookClientSecret: get("FACEBOOK_CLIENT_SECRET", ""),
		OAuthRedirectURI:     get("OAUTH_REDIRECT_URI", "http://localhost:8501/oauth/callback"),
	}

	// Storage directories must exist before the first upload arrives.
	for _, dir := range []string{cfg.UploadDir, cfg.TempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Printf("CONFIG: could not create directory %s: %v", dir, err)
		}
	}

	return cfg
}
