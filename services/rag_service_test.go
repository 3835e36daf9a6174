package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studymate/models"
)

type fakeEmbedder struct {
	queryErr error
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i), 1.0}
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return []float32{0.5, 0.5}, nil
}

type fakeVectorStore struct {
	upserted []ChunkVector
	matches  []VectorMatch
	queryErr error
}

func (f *fakeVectorStore) Upsert(ctx context.Context, vectors []ChunkVector) error {
	f.upserted = append(f.upserted, vectors...)
	return nil
}

func (f *fakeVectorStore) Query(ctx context.Context, embedding []float32, topK int, courseID uint) ([]VectorMatch, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.matches, nil
}

func (f *fakeVectorStore) DeleteByIDs(ctx context.Context, ids []string) error        { return nil }
func (f *fakeVectorStore) DeleteByDocument(ctx context.Context, id uint) error       { return nil }
func (f *fakeVectorStore) ListByDocument(ctx context.Context, id uint) ([]VectorMatch, error) {
	return nil, nil
}
func (f *fakeVectorStore) Count(ctx context.Context) (int, error) { return len(f.upserted), nil }

type fakeLLM struct {
	reply      string
	err        error
	lastPrompt string
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// passThroughReranker keeps the reranking stage wired without an API key.
func passThroughReranker() RerankerService {
	return NewCohereReranker(nil, "", "", "")
}

func TestIndexDocumentChunks(t *testing.T) {
	db := newTestDB(t)
	store := &fakeVectorStore{}
	svc := NewRAGService(db, &fakeEmbedder{}, store, passThroughReranker(), &fakeLLM{}, 5, 5)

	document := &models.Document{CourseID: 3, OriginalFilename: "notes.pdf"}
	document.ID = 7
	chunks := []models.DocumentChunk{
		{ChunkIndex: 0, Content: "first chunk", PageNumber: 1},
		{ChunkIndex: 1, Content: "second chunk", PageNumber: 2},
	}

	ids, err := svc.IndexDocumentChunks(context.Background(), document, chunks)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc_7_chunk_0", "doc_7_chunk_1"}, ids)

	require.Len(t, store.upserted, 2)
	assert.Equal(t, uint(3), store.upserted[0].CourseID)
	assert.Equal(t, "notes.pdf", store.upserted[0].Source)
	assert.Equal(t, 2, store.upserted[1].Page)
}

func TestRetrieveRelevantChunksFromVectorStore(t *testing.T) {
	db := newTestDB(t)
	store := &fakeVectorStore{
		matches: []VectorMatch{
			{
				ID:      "doc_1_chunk_0",
				Content: "photosynthesis converts light into energy",
				Score:   0.91,
				Metadata: map[string]interface{}{
					"document_id": float64(1),
					"page":        float64(4),
					"source":      "biology.pdf",
				},
			},
		},
	}
	svc := NewRAGService(db, &fakeEmbedder{}, store, passThroughReranker(), &fakeLLM{}, 5, 5)

	chunks, err := svc.RetrieveRelevantChunks(context.Background(), "what is photosynthesis", 1, 5)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, uint(1), chunks[0].DocumentID)
	assert.Equal(t, 4, chunks[0].PageNumber)
	assert.Equal(t, "biology.pdf", chunks[0].Source)
	assert.Equal(t, 0.91, chunks[0].Score)
}

func TestRetrieveRelevantChunksFallsBackToTextSearch(t *testing.T) {
	db := newTestDB(t)

	document := models.Document{CourseID: 1, OriginalFilename: "biology.pdf"}
	require.NoError(t, db.Create(&document).Error)
	require.NoError(t, db.Create(&models.DocumentChunk{
		DocumentID: document.ID,
		Content:    "Photosynthesis converts light energy into chemical energy.",
		PageNumber: 2,
	}).Error)
	require.NoError(t, db.Create(&models.DocumentChunk{
		DocumentID: document.ID,
		Content:    "Mitochondria are the powerhouse of the cell.",
		PageNumber: 5,
	}).Error)

	store := &fakeVectorStore{queryErr: errors.New("chroma is down")}
	svc := NewRAGService(db, &fakeEmbedder{}, store, passThroughReranker(), &fakeLLM{}, 5, 5)

	chunks, err := svc.RetrieveRelevantChunks(context.Background(), "photosynthesis energy", 1, 5)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Contains(t, chunks[0].Content, "Photosynthesis")
	assert.Equal(t, "biology.pdf", chunks[0].Source)
	assert.Equal(t, 2, chunks[0].PageNumber)
}

func TestProcessQuestionCreatesSessionAndCitations(t *testing.T) {
	db := newTestDB(t)

	document := models.Document{CourseID: 1, OriginalFilename: "biology.pdf"}
	require.NoError(t, db.Create(&document).Error)
	chunk := models.DocumentChunk{DocumentID: document.ID, Content: "Photosynthesis converts light.", PageNumber: 4}
	require.NoError(t, db.Create(&chunk).Error)

	store := &fakeVectorStore{
		matches: []VectorMatch{
			{
				Content: "Photosynthesis converts light.",
				Score:   0.9,
				Metadata: map[string]interface{}{
					"document_id": float64(document.ID),
					"page":        float64(4),
					"source":      "biology.pdf",
				},
			},
		},
	}
	llm := &fakeLLM{reply: "Photosynthesis turns light into chemical energy."}
	svc := NewRAGService(db, &fakeEmbedder{}, store, passThroughReranker(), llm, 5, 5)

	response, err := svc.ProcessQuestion(context.Background(), "What is photosynthesis?", 1, 1, 0)
	require.NoError(t, err)

	assert.Equal(t, "Photosynthesis turns light into chemical energy.", response.Answer)
	assert.Equal(t, 0.8, response.Confidence)
	require.Len(t, response.Citations, 1)
	assert.Equal(t, document.ID, response.Citations[0].DocumentID)
	assert.Equal(t, 4, response.Citations[0].PageNumber)
	require.NotNil(t, response.Citations[0].ChunkID)
	assert.Equal(t, chunk.ID, *response.Citations[0].ChunkID)

	assert.Contains(t, llm.lastPrompt, "What is photosynthesis?")
	assert.Contains(t, llm.lastPrompt, "biology.pdf")

	var session models.ChatSession
	require.NoError(t, db.First(&session, response.ChatSessionID).Error)
	assert.Equal(t, "What is photosynthesis?", session.Title)

	var messages []models.ChatMessage
	require.NoError(t, db.Where("chat_session_id = ?", session.ID).Order("id").Find(&messages).Error)
	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "assistant", messages[1].Role)
}

func TestProcessQuestionTruncatesLongSessionTitle(t *testing.T) {
	db := newTestDB(t)
	store := &fakeVectorStore{}
	svc := NewRAGService(db, &fakeEmbedder{}, store, passThroughReranker(), &fakeLLM{}, 5, 5)

	question := strings.Repeat("why ", 20)
	response, err := svc.ProcessQuestion(context.Background(), question, 1, 1, 0)
	require.NoError(t, err)

	var session models.ChatSession
	require.NoError(t, db.First(&session, response.ChatSessionID).Error)
	assert.Equal(t, question[:50]+"...", session.Title)
}

func TestProcessQuestionWithoutContext(t *testing.T) {
	db := newTestDB(t)
	store := &fakeVectorStore{}
	llm := &fakeLLM{reply: "should never be called"}
	svc := NewRAGService(db, &fakeEmbedder{}, store, passThroughReranker(), llm, 5, 5)

	response, err := svc.ProcessQuestion(context.Background(), "Anything indexed?", 1, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, noContextAnswer, response.Answer)
	assert.Equal(t, 0.0, response.Confidence)
	assert.Empty(t, response.Citations)
	assert.Empty(t, llm.lastPrompt)
}

func TestProcessQuestionRejectsForeignSession(t *testing.T) {
	db := newTestDB(t)
	session := models.ChatSession{Title: "someone else", UserID: 99, CourseID: 1}
	require.NoError(t, db.Create(&session).Error)

	svc := NewRAGService(db, &fakeEmbedder{}, &fakeVectorStore{}, passThroughReranker(), &fakeLLM{}, 5, 5)
	_, err := svc.ProcessQuestion(context.Background(), "question", 1, 1, session.ID)
	assert.Error(t, err)
}
