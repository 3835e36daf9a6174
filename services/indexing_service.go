package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/tmc/langchaingo/textsplitter"
	"gorm.io/gorm"

	"studymate/models"
)

// IndexingService turns uploaded documents into chunks and vectors. It
// also watches the upload directory so documents whose files vanish
// out-of-band get their vectors purged instead of going stale.
type IndexingService struct {
	db           *gorm.DB
	ragService   RAGService
	store        VectorStore
	chunkSize    int
	chunkOverlap int
}

// NewIndexingService creates a new indexing service.
func NewIndexingService(db *gorm.DB, ragService RAGService, store VectorStore, chunkSize, chunkOverlap int) *IndexingService {
	return &IndexingService{
		db:           db,
		ragService:   ragService,
		store:        store,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// ProcessDocument extracts, chunks, persists, and indexes one uploaded
// document. It is meant to run in a background goroutine after upload;
// failures are recorded on the document row rather than returned to the
// uploader.
func (s *IndexingService) ProcessDocument(ctx context.Context, documentID uint) {
	var document models.Document
	if err := s.db.First(&document, documentID).Error; err != nil {
		log.Printf("INDEXER ERROR: Document %d not found for processing: %v", documentID, err)
		return
	}
	log.Printf("INDEXER: Starting processing for document %d: %s", document.ID, document.OriginalFilename)

	chunks, pageCount, err := s.extractAndChunk(document.FilePath)
	if err != nil {
		s.markFailed(&document, err)
		return
	}

	for i := range chunks {
		chunks[i].DocumentID = document.ID
		chunks[i].VectorID = fmt.Sprintf("doc_%d_chunk_%d", document.ID, chunks[i].ChunkIndex)
		if err := s.db.Create(&chunks[i]).Error; err != nil {
			s.markFailed(&document, fmt.Errorf("save chunk %d: %w", i, err))
			return
		}
	}
	log.Printf("INDEXER: Saved %d chunks for document %d", len(chunks), document.ID)

	document.IsProcessed = true
	document.PageCount = pageCount
	document.ProcessingError = ""

	if _, err := s.ragService.IndexDocumentChunks(ctx, &document, chunks); err != nil {
		// Processing succeeded even if vectors could not be written; the
		// fallback text search still works off the relational chunks.
		log.Printf("INDEXER ERROR: Vector indexing failed for document %d: %v", document.ID, err)
		document.IsIndexed = false
	} else {
		document.IsIndexed = true
	}

	if err := s.db.Save(&document).Error; err != nil {
		log.Printf("INDEXER ERROR: Could not update document %d: %v", document.ID, err)
		return
	}
	log.Printf("INDEXER: Finished document %d (%d pages, %d chunks, indexed=%v)",
		document.ID, pageCount, len(chunks), document.IsIndexed)
}

// ReindexDocument drops a document's chunks and vectors and rebuilds them
// synchronously. Used by the admin API.
func (s *IndexingService) ReindexDocument(ctx context.Context, documentID uint) (int, error) {
	var document models.Document
	if err := s.db.First(&document, documentID).Error; err != nil {
		return 0, fmt.Errorf("document %d not found: %w", documentID, err)
	}

	if err := s.PurgeDocumentData(ctx, &document); err != nil {
		return 0, err
	}

	chunks, pageCount, err := s.extractAndChunk(document.FilePath)
	if err != nil {
		return 0, fmt.Errorf("process document: %w", err)
	}
	for i := range chunks {
		chunks[i].DocumentID = document.ID
		chunks[i].VectorID = fmt.Sprintf("doc_%d_chunk_%d", document.ID, chunks[i].ChunkIndex)
		if err := s.db.Create(&chunks[i]).Error; err != nil {
			return 0, fmt.Errorf("save chunk: %w", err)
		}
	}

	if _, err := s.ragService.IndexDocumentChunks(ctx, &document, chunks); err != nil {
		return 0, err
	}

	document.IsProcessed = true
	document.IsIndexed = true
	document.PageCount = pageCount
	document.ProcessingError = ""
	if err := s.db.Save(&document).Error; err != nil {
		return 0, fmt.Errorf("update document: %w", err)
	}
	return len(chunks), nil
}

// PurgeDocumentData removes a document's vectors and relational chunks,
// leaving the document row itself alone.
func (s *IndexingService) PurgeDocumentData(ctx context.Context, document *models.Document) error {
	if err := s.store.DeleteByDocument(ctx, document.ID); err != nil {
		log.Printf("INDEXER WARN: Could not delete vectors for document %d: %v", document.ID, err)
	}
	if err := s.db.Where("document_id = ?", document.ID).Delete(&models.DocumentChunk{}).Error; err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

// extractAndChunk splits each page separately so chunks keep an accurate
// page number for citations.
func (s *IndexingService) extractAndChunk(path string) ([]models.DocumentChunk, int, error) {
	pages, err := ExtractPages(path)
	if err != nil {
		return nil, 0, fmt.Errorf("extract text: %w", err)
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(s.chunkSize),
		textsplitter.WithChunkOverlap(s.chunkOverlap),
	)

	var chunks []models.DocumentChunk
	for _, page := range pages {
		pieces, err := splitter.SplitText(page.Text)
		if err != nil {
			return nil, 0, fmt.Errorf("split page %d: %w", page.Number, err)
		}
		for _, piece := range pieces {
			if piece == "" {
				continue
			}
			metadata, _ := json.Marshal(map[string]interface{}{"page_number": page.Number})
			chunks = append(chunks, models.DocumentChunk{
				ChunkIndex: len(chunks),
				Content:    piece,
				PageNumber: page.Number,
				Metadata:   string(metadata),
			})
		}
	}
	return chunks, len(pages), nil
}

func (s *IndexingService) markFailed(document *models.Document, cause error) {
	log.Printf("INDEXER ERROR: Failed to process document %d: %v", document.ID, cause)
	document.IsProcessed = false
	msg := cause.Error()
	if len(msg) > 500 {
		msg = msg[:500]
	}
	document.ProcessingError = msg
	if err := s.db.Save(document).Error; err != nil {
		log.Printf("INDEXER ERROR: Could not record failure for document %d: %v", document.ID, err)
	}
}

// WatchUploads watches the upload directory for files removed outside the
// API. When a stored file disappears, its vectors are purged and the
// document is flagged so stale chunks never surface in answers.
func (s *IndexingService) WatchUploads(ctx context.Context, dirPath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("WATCHER ERROR: Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				// Rename is often delivered instead of Remove.
				if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					log.Printf("WATCHER: File removed: %s. Purging its index entries...", event.Name)
					s.handleRemovedFile(ctx, event.Name)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("WATCHER ERROR: %v", err)
			case <-ctx.Done():
				log.Println("WATCHER: Context cancelled, shutting down watcher.")
				return
			}
		}
	}()

	log.Printf("WATCHER: Watching upload directory: %s", dirPath)
	if err := watcher.Add(dirPath); err != nil {
		log.Printf("WATCHER ERROR: Failed to add path to watcher: %v", err)
	}

	<-ctx.Done()
}

func (s *IndexingService) handleRemovedFile(ctx context.Context, path string) {
	var document models.Document
	err := s.db.Where("filename = ?", filepath.Base(path)).First(&document).Error
	if err != nil {
		return // not a tracked upload
	}

	if err := s.PurgeDocumentData(ctx, &document); err != nil {
		log.Printf("WATCHER ERROR: Failed to purge data for document %d: %v", document.ID, err)
		return
	}

	document.IsIndexed = false
	document.IsProcessed = false
	document.ProcessingError = "source file removed from storage"
	if err := s.db.Save(&document).Error; err != nil {
		log.Printf("WATCHER ERROR: Failed to flag document %d: %v", document.ID, err)
	}
}
