package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"gorm.io/gorm"

	"studymate/models"
)

const answerPromptTemplate = `You are a helpful AI assistant that answers questions based on provided course notes and educational materials.

CONTEXT:
%s

%s

QUESTION: %s

INSTRUCTIONS:
Answer the question based ONLY on the information in the CONTEXT. If the answer is not in the context, say "I don't have enough information to answer this question based on the provided course materials."

ANSWER:`

const noContextAnswer = "I couldn't find any relevant information in the course materials to answer your question."

// RAGService runs the retrieval-augmented answering pipeline: embed the
// question, search the vector store, rerank, generate, and persist the
// conversation with citations.
type RAGService interface {
	IndexDocumentChunks(ctx context.Context, document *models.Document, chunks []models.DocumentChunk) ([]string, error)
	RetrieveRelevantChunks(ctx context.Context, query string, courseID uint, topK int) ([]RetrievedChunk, error)
	ProcessQuestion(ctx context.Context, question string, courseID, userID, chatSessionID uint) (*models.AnswerResponse, error)
}

type ragServiceImpl struct {
	db         *gorm.DB
	embedder   embeddings.Embedder
	store      VectorStore
	reranker   RerankerService
	llm        LLMService
	topK       int
	rerankTopN int
}

// NewRAGService wires the pipeline together. All dependencies are
// interfaces so tests can drop in fakes.
func NewRAGService(db *gorm.DB, embedder embeddings.Embedder, store VectorStore, reranker RerankerService, llm LLMService, topK, rerankTopN int) RAGService {
	return &ragServiceImpl{
		db:         db,
		embedder:   embedder,
		store:      store,
		reranker:   reranker,
		llm:        llm,
		topK:       topK,
		rerankTopN: rerankTopN,
	}
}

// IndexDocumentChunks embeds the chunks of a document and upserts them
// into the vector store. Returned vector IDs line up with the input.
func (r *ragServiceImpl) IndexDocumentChunks(ctx context.Context, document *models.Document, chunks []models.DocumentChunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Content)
	}
	vectors, err := r.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("could not embed document chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d chunks", len(vectors), len(chunks))
	}

	records := make([]ChunkVector, 0, len(chunks))
	ids := make([]string, 0, len(chunks))
	for i, c := range chunks {
		id := fmt.Sprintf("doc_%d_chunk_%d", document.ID, c.ChunkIndex)
		records = append(records, ChunkVector{
			ID:         id,
			Content:    c.Content,
			Embedding:  vectors[i],
			DocumentID: document.ID,
			CourseID:   document.CourseID,
			ChunkIndex: c.ChunkIndex,
			Page:       c.PageNumber,
			Source:     document.OriginalFilename,
		})
		ids = append(ids, id)
	}

	if err := r.store.Upsert(ctx, records); err != nil {
		return nil, err
	}
	log.Printf("SERVICE: Indexed %d chunks for document %d", len(records), document.ID)
	return ids, nil
}

// RetrieveRelevantChunks embeds the query and searches the vector store,
// falling back to keyword matching over the relational chunks when the
// vector path is unavailable or empty.
func (r *ragServiceImpl) RetrieveRelevantChunks(ctx context.Context, query string, courseID uint, topK int) ([]RetrievedChunk, error) {
	if topK <= 0 {
		topK = r.topK
	}

	var chunks []RetrievedChunk
	queryEmbedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		log.Printf("SERVICE: Query embedding failed, falling back to text search: %v", err)
	} else {
		matches, err := r.store.Query(ctx, queryEmbedding, topK, courseID)
		if err != nil {
			log.Printf("SERVICE: Vector search failed, falling back to text search: %v", err)
		} else {
			for _, m := range matches {
				chunks = append(chunks, RetrievedChunk{
					Content:    m.Content,
					PageNumber: metadataInt(m.Metadata, "page"),
					Source:     metadataString(m.Metadata, "source"),
					DocumentID: uint(metadataInt(m.Metadata, "document_id")),
					Score:      m.Score,
				})
			}
		}
	}

	if len(chunks) == 0 {
		return r.fallbackTextSearch(query, courseID, topK)
	}
	return chunks, nil
}

// fallbackTextSearch scores the course's chunks by keyword overlap. It is
// deliberately crude; it only exists so answers degrade instead of
// disappearing when the vector store is down.
func (r *ragServiceImpl) fallbackTextSearch(query string, courseID uint, topK int) ([]RetrievedChunk, error) {
	var documents []models.Document
	if err := r.db.Where("course_id = ?", courseID).Find(&documents).Error; err != nil {
		return nil, fmt.Errorf("fallback search: load documents: %w", err)
	}
	if len(documents) == 0 {
		return nil, nil
	}

	docIDs := make([]uint, 0, len(documents))
	names := make(map[uint]string, len(documents))
	for _, d := range documents {
		docIDs = append(docIDs, d.ID)
		names[d.ID] = d.OriginalFilename
	}

	var dbChunks []models.DocumentChunk
	if err := r.db.Where("document_id IN ?", docIDs).Find(&dbChunks).Error; err != nil {
		return nil, fmt.Errorf("fallback search: load chunks: %w", err)
	}

	words := strings.Fields(strings.ToLower(query))
	var scored []RetrievedChunk
	for _, chunk := range dbChunks {
		content := strings.ToLower(chunk.Content)
		score := 0
		for _, w := range words {
			if len(w) > 2 {
				score += strings.Count(content, w)
			}
		}
		if score > 0 {
			scored = append(scored, RetrievedChunk{
				Content:    chunk.Content,
				PageNumber: chunk.PageNumber,
				Source:     names[chunk.DocumentID],
				DocumentID: chunk.DocumentID,
				Score:      float64(score),
			})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// ProcessQuestion runs a question through the full pipeline and persists
// the exchange in the chat history.
func (r *ragServiceImpl) ProcessQuestion(ctx context.Context, question string, courseID, userID, chatSessionID uint) (*models.AnswerResponse, error) {
	session, err := r.ensureChatSession(question, courseID, userID, chatSessionID)
	if err != nil {
		return nil, err
	}

	var history []models.ChatMessage
	if err := r.db.Where("chat_session_id = ?", session.ID).Order("created_at").Find(&history).Error; err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}

	chunks, err := r.RetrieveRelevantChunks(ctx, question, courseID, r.topK)
	if err != nil {
		log.Printf("SERVICE: Retrieval failed for session %d: %v", session.ID, err)
	}

	response := &models.AnswerResponse{
		Answer:        noContextAnswer,
		Confidence:    0.0,
		Citations:     []models.CitationPayload{},
		ChatSessionID: session.ID,
	}

	if len(chunks) > 0 {
		reranked, err := r.reranker.Rerank(ctx, question, chunks, r.rerankTopN)
		if err != nil {
			log.Printf("SERVICE: Reranking failed, keeping retrieval order: %v", err)
			reranked = chunks
		}

		answer, err := r.llm.Generate(ctx, buildAnswerPrompt(question, reranked, history))
		if err != nil {
			return nil, fmt.Errorf("could not generate answer: %w", err)
		}
		response.Answer = strings.TrimSpace(answer)
		response.Confidence = 0.8
		response.Citations = r.buildCitations(reranked)
	}

	if err := r.persistExchange(session, question, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (r *ragServiceImpl) ensureChatSession(question string, courseID, userID, chatSessionID uint) (*models.ChatSession, error) {
	if chatSessionID != 0 {
		var session models.ChatSession
		err := r.db.Where("id = ? AND user_id = ?", chatSessionID, userID).First(&session).Error
		if err != nil {
			return nil, fmt.Errorf("chat session not found: %w", err)
		}
		return &session, nil
	}

	title := question
	if len(title) > 50 {
		title = title[:50] + "..."
	}
	session := &models.ChatSession{Title: title, UserID: userID, CourseID: courseID}
	if err := r.db.Create(session).Error; err != nil {
		return nil, fmt.Errorf("create chat session: %w", err)
	}
	return session, nil
}

// buildCitations maps the context chunks back to their database rows so
// the frontend can link answers to sources.
func (r *ragServiceImpl) buildCitations(chunks []RetrievedChunk) []models.CitationPayload {
	citations := make([]models.CitationPayload, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.DocumentID == 0 {
			continue
		}
		quote := chunk.Content
		if len(quote) > 200 {
			quote = quote[:200]
		}
		citation := models.CitationPayload{
			DocumentID:     chunk.DocumentID,
			PageNumber:     chunk.PageNumber,
			Quote:          quote,
			Source:         chunk.Source,
			RelevanceScore: chunk.RelevanceScore,
		}

		var dbChunk models.DocumentChunk
		err := r.db.Where("document_id = ? AND page_number = ?", chunk.DocumentID, chunk.PageNumber).
			First(&dbChunk).Error
		if err == nil {
			id := dbChunk.ID
			citation.ChunkID = &id
		}
		citations = append(citations, citation)
	}
	return citations
}

func (r *ragServiceImpl) persistExchange(session *models.ChatSession, question string, response *models.AnswerResponse) error {
	userMessage := models.ChatMessage{ChatSessionID: session.ID, Role: "user", Content: question}
	if err := r.db.Create(&userMessage).Error; err != nil {
		return fmt.Errorf("save user message: %w", err)
	}

	assistantMessage := models.ChatMessage{ChatSessionID: session.ID, Role: "assistant", Content: response.Answer}
	if err := r.db.Create(&assistantMessage).Error; err != nil {
		return fmt.Errorf("save assistant message: %w", err)
	}

	for _, c := range response.Citations {
		citation := models.Citation{
			MessageID:      assistantMessage.ID,
			DocumentID:     c.DocumentID,
			ChunkID:        c.ChunkID,
			PageNumber:     c.PageNumber,
			Quote:          c.Quote,
			RelevanceScore: c.RelevanceScore,
		}
		if err := r.db.Create(&citation).Error; err != nil {
			log.Printf("SERVICE: Could not save citation for message %d: %v", assistantMessage.ID, err)
		}
	}
	return nil
}

func buildAnswerPrompt(question string, chunks []RetrievedChunk, history []models.ChatMessage) string {
	var contextSB strings.Builder
	for i, chunk := range chunks {
		source := chunk.Source
		if source == "" {
			source = "Unknown"
		}
		fmt.Fprintf(&contextSB, "[%d] Source: %s, Page: %d\n%s\n\n", i+1, source, chunk.PageNumber, chunk.Content)
	}

	var historySB strings.Builder
	for _, msg := range history {
		switch msg.Role {
		case "user":
			fmt.Fprintf(&historySB, "User: %s\n", msg.Content)
		case "assistant":
			fmt.Fprintf(&historySB, "Assistant: %s\n", msg.Content)
		}
	}

	return fmt.Sprintf(answerPromptTemplate, contextSB.String(), historySB.String(), question)
}

func metadataInt(metadata map[string]interface{}, key string) int {
	if metadata == nil {
		return 0
	}
	switch v := metadata[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func metadataString(metadata map[string]interface{}, key string) string {
	if metadata == nil {
		return ""
	}
	if s, ok := metadata[key].(string); ok {
		return s
	}
	return ""
}
