package main

import (
	"context"
	"log"
	"net/http"
	"time"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/gin-gonic/gin"

	"studymate/config"
	"studymate/controller"
	"studymate/database"
	"studymate/middleware"
	"studymate/services"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to open database: %v", err)
	}

	// Create Chroma client using v2 API
	chromaClient, err := chromago.NewHTTPClient(chromago.WithBaseURL(cfg.ChromaURL))
	if err != nil {
		log.Fatalf("FATAL: Failed to create chroma client: %v", err)
	}
	defer func() {
		if cerr := chromaClient.Close(); cerr != nil {
			log.Printf("Warning: Failed to close chroma client: %v", cerr)
		}
	}()

	collection, err := services.GetOrCreateCollection(context.Background(), chromaClient, cfg.VectorCollection)
	if err != nil {
		log.Fatalf("FATAL: Failed to get or create collection: %v", err)
	}
	store := services.NewChromaVectorStore(collection)

	embedder, err := services.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	if err != nil {
		log.Fatalf("FATAL: Failed to create embedder: %v", err)
	}

	llm, err := services.NewLLMService(context.Background(), cfg.LLMProvider, cfg.LLMModel, cfg.OpenAIAPIKey, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("FATAL: Failed to create LLM client: %v", err)
	}
	log.Printf("Successfully connected to LLM provider '%s' (%s).", cfg.LLMProvider, cfg.LLMModel)

	httpClient := &http.Client{Timeout: 30 * time.Second}
	reranker := services.NewCohereReranker(httpClient, cfg.CohereAPIKey, cfg.CohereBaseURL, cfg.RerankModel)

	authService := services.NewAuthService(cfg.SecretKey, cfg.AccessTokenExpireMinutes)
	oauthService := services.NewOAuthService(db, authService, cfg.OAuthRedirectURI, map[string][2]string{
		"google":   {cfg.GoogleClientID, cfg.GoogleClientSecret},
		"github":   {cfg.GitHubClientID, cfg.GitHubClientSecret},
		"facebook": {cfg.FacebookClientID, cfg.FacebookClientSecret},
	})
	ragService := services.NewRAGService(db, embedder, store, reranker, llm, cfg.TopKRetrieval, cfg.RerankTopN)
	quizService := services.NewQuizService(db, llm)
	indexingService := services.NewIndexingService(db, ragService, store, cfg.ChunkSize, cfg.ChunkOverlap)

	fileService, err := services.NewFileService(cfg.UploadDir)
	if err != nil {
		log.Fatalf("FATAL: Failed to prepare upload directory: %v", err)
	}

	authController := controller.NewAuthController(db, authService)
	oauthController := controller.NewOAuthController(oauthService, authService)
	courseController := controller.NewCourseController(db)
	documentController := controller.NewDocumentController(db, fileService, indexingService)
	questionController := controller.NewQuestionController(db, ragService)
	quizController := controller.NewQuizController(db, quizService)
	adminController := controller.NewAdminController(db, store, indexingService)

	// Watch the upload directory in the background for files removed
	// outside the API.
	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	go indexingService.WatchUploads(watchCtx, fileService.UploadDir)

	router := gin.Default()
	router.Use(middleware.CORS())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "StudyMate API. See /health for status."})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "StudyMate API",
			"version": "1.0.0",
		})
	})

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/token", authController.Token)
		auth.POST("/validate-password", authController.ValidatePassword)
		auth.GET("/me", middleware.RequireAuth(authService, db), authController.Me)
	}

	oauth := api.Group("/oauth")
	{
		oauth.GET("/providers", oauthController.Providers)
		oauth.GET("/auth/:provider", oauthController.Authorize)
		oauth.GET("/callback/:provider", oauthController.Callback)
	}

	courses := api.Group("/courses", middleware.RequireAuth(authService, db))
	{
		courses.POST("/", courseController.Create)
		courses.GET("/", courseController.List)
		courses.GET("/:course_id", courseController.Get)
		courses.PUT("/:course_id", courseController.Update)
		courses.DELETE("/:course_id", courseController.Delete)
	}

	documents := api.Group("/documents", middleware.RequireAuth(authService, db))
	{
		documents.POST("/upload", documentController.Upload)
		documents.GET("/:document_id", documentController.Get)
		documents.GET("/course/:course_id", documentController.ListByCourse)
		documents.DELETE("/:document_id", documentController.Delete)
	}

	questions := api.Group("/questions", middleware.RequireAuth(authService, db))
	{
		questions.POST("/ask", questionController.Ask)
		questions.GET("/chat-sessions", questionController.ListSessions)
		questions.GET("/chat-sessions/:session_id", questionController.GetSessionMessages)
		questions.DELETE("/chat-sessions/:session_id", questionController.DeleteSession)
	}

	quiz := api.Group("/quiz", middleware.RequireAuth(authService, db))
	{
		quiz.POST("/generate", quizController.Generate)
		quiz.GET("/documents/:course_id", quizController.EligibleDocuments)
		quiz.GET("/:quiz_id", quizController.Get)
		quiz.GET("/", quizController.List)
	}

	admin := api.Group("/admin", middleware.RequireAuth(authService, db), middleware.RequireAdmin())
	{
		admin.GET("/users", adminController.ListUsers)
		admin.GET("/stats", adminController.Stats)
		admin.POST("/reindex/:document_id", adminController.ReindexDocument)
		admin.POST("/toggle-user-status/:user_id", adminController.ToggleUserStatus)
		admin.GET("/vectors/:document_id", adminController.DocumentVectors)
	}

	log.Printf("StudyMate backend starting on http://localhost:%s", cfg.Port)
	log.Printf("Health check available at: http://localhost:%s/health", cfg.Port)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}
