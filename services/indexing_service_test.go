package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"studymate/models"
)

type fakeRAGService struct {
	indexed  []models.DocumentChunk
	indexErr error
}

func (f *fakeRAGService) IndexDocumentChunks(ctx context.Context, document *models.Document, chunks []models.DocumentChunk) ([]string, error) {
	if f.indexErr != nil {
		return nil, f.indexErr
	}
	f.indexed = append(f.indexed, chunks...)
	ids := make([]string, len(chunks))
	return ids, nil
}

func (f *fakeRAGService) RetrieveRelevantChunks(ctx context.Context, query string, courseID uint, topK int) ([]RetrievedChunk, error) {
	return nil, nil
}

func (f *fakeRAGService) ProcessQuestion(ctx context.Context, question string, courseID, userID, chatSessionID uint) (*models.AnswerResponse, error) {
	return nil, nil
}

func writeTestDocument(t *testing.T, db *gorm.DB, dir, content string) *models.Document {
	t.Helper()
	path := filepath.Join(dir, "stored.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	document := &models.Document{
		Filename:         "stored.txt",
		OriginalFilename: "notes.txt",
		FilePath:         path,
		FileType:         "txt",
		CourseID:         1,
	}
	require.NoError(t, db.Create(document).Error)
	return document
}

func TestProcessDocument(t *testing.T) {
	db := newTestDB(t)
	rag := &fakeRAGService{}
	svc := NewIndexingService(db, rag, &fakeVectorStore{}, 100, 20)

	document := writeTestDocument(t, db, t.TempDir(),
		"Photosynthesis converts light energy into chemical energy stored in glucose molecules.")

	svc.ProcessDocument(context.Background(), document.ID)

	var updated models.Document
	require.NoError(t, db.First(&updated, document.ID).Error)
	assert.True(t, updated.IsProcessed)
	assert.True(t, updated.IsIndexed)
	assert.Equal(t, 1, updated.PageCount)
	assert.Empty(t, updated.ProcessingError)

	var chunks []models.DocumentChunk
	require.NoError(t, db.Where("document_id = ?", document.ID).Order("chunk_index").Find(&chunks).Error)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "doc_1_chunk_0", chunks[0].VectorID)
	assert.Equal(t, 1, chunks[0].PageNumber)
	assert.Len(t, rag.indexed, len(chunks))
}

func TestProcessDocumentRecordsExtractionFailure(t *testing.T) {
	db := newTestDB(t)
	svc := NewIndexingService(db, &fakeRAGService{}, &fakeVectorStore{}, 100, 20)

	document := &models.Document{
		Filename: "gone.txt", OriginalFilename: "gone.txt",
		FilePath: filepath.Join(t.TempDir(), "missing.txt"),
		FileType: "txt", CourseID: 1,
	}
	require.NoError(t, db.Create(document).Error)

	svc.ProcessDocument(context.Background(), document.ID)

	var updated models.Document
	require.NoError(t, db.First(&updated, document.ID).Error)
	assert.False(t, updated.IsProcessed)
	assert.NotEmpty(t, updated.ProcessingError)
}

func TestProcessDocumentSurvivesVectorStoreFailure(t *testing.T) {
	db := newTestDB(t)
	rag := &fakeRAGService{indexErr: errors.New("chroma is down")}
	svc := NewIndexingService(db, rag, &fakeVectorStore{}, 100, 20)

	document := writeTestDocument(t, db, t.TempDir(), "Some course content worth keeping around.")

	svc.ProcessDocument(context.Background(), document.ID)

	var updated models.Document
	require.NoError(t, db.First(&updated, document.ID).Error)
	assert.True(t, updated.IsProcessed)
	assert.False(t, updated.IsIndexed)

	// chunks stay available for the fallback text search
	var count int64
	db.Model(&models.DocumentChunk{}).Where("document_id = ?", document.ID).Count(&count)
	assert.Greater(t, count, int64(0))
}

func TestReindexDocumentRebuildsChunks(t *testing.T) {
	db := newTestDB(t)
	rag := &fakeRAGService{}
	svc := NewIndexingService(db, rag, &fakeVectorStore{}, 100, 20)

	document := writeTestDocument(t, db, t.TempDir(), "Fresh content to reindex after an update.")
	require.NoError(t, db.Create(&models.DocumentChunk{
		DocumentID: document.ID, ChunkIndex: 0, Content: "stale chunk",
	}).Error)

	chunkCount, err := svc.ReindexDocument(context.Background(), document.ID)
	require.NoError(t, err)
	assert.Greater(t, chunkCount, 0)

	var chunks []models.DocumentChunk
	require.NoError(t, db.Where("document_id = ?", document.ID).Find(&chunks).Error)
	assert.Len(t, chunks, chunkCount)
	for _, c := range chunks {
		assert.NotEqual(t, "stale chunk", c.Content)
	}
}

func TestHandleRemovedFileFlagsDocument(t *testing.T) {
	db := newTestDB(t)
	svc := NewIndexingService(db, &fakeRAGService{}, &fakeVectorStore{}, 100, 20)

	dir := t.TempDir()
	document := writeTestDocument(t, db, dir, "content")
	document.IsProcessed = true
	document.IsIndexed = true
	require.NoError(t, db.Save(document).Error)
	require.NoError(t, db.Create(&models.DocumentChunk{
		DocumentID: document.ID, Content: "chunk",
	}).Error)

	svc.handleRemovedFile(context.Background(), document.FilePath)

	var updated models.Document
	require.NoError(t, db.First(&updated, document.ID).Error)
	assert.False(t, updated.IsIndexed)
	assert.False(t, updated.IsProcessed)
	assert.NotEmpty(t, updated.ProcessingError)

	var count int64
	db.Model(&models.DocumentChunk{}).Where("document_id = ?", document.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestExtractPagesPlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Heading\n\nBody text."), 0o644))

	pages, err := ExtractPages(path)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 1, pages[0].Number)
	assert.Contains(t, pages[0].Text, "Body text.")
}

func TestIsSupportedFileType(t *testing.T) {
	assert.True(t, IsSupportedFileType("pdf"))
	assert.True(t, IsSupportedFileType(".PDF"))
	assert.True(t, IsSupportedFileType("txt"))
	assert.True(t, IsSupportedFileType("md"))
	assert.False(t, IsSupportedFileType("docx"))
	assert.False(t, IsSupportedFileType("exe"))
}
