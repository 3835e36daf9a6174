package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
)

// ChunkVector is one document chunk ready to be written to the vector
// database.
type ChunkVector struct {
	ID         string
	Content    string
	Embedding  []float32
	DocumentID uint
	CourseID   uint
	ChunkIndex int
	Page       int
	Source     string
}

// VectorMatch is a retrieval hit. Score is cosine similarity (1 - distance).
type VectorMatch struct {
	ID       string
	Content  string
	Score    float64
	Metadata map[string]interface{}
}

// VectorStore abstracts the vector database so the RAG pipeline can be
// tested without a running Chroma instance.
type VectorStore interface {
	Upsert(ctx context.Context, vectors []ChunkVector) error
	Query(ctx context.Context, embedding []float32, topK int, courseID uint) ([]VectorMatch, error)
	DeleteByIDs(ctx context.Context, ids []string) error
	DeleteByDocument(ctx context.Context, documentID uint) error
	ListByDocument(ctx context.Context, documentID uint) ([]VectorMatch, error)
	Count(ctx context.Context) (int, error)
}

type chromaVectorStore struct {
	collection chromago.Collection
}

// NewChromaVectorStore wraps an existing Chroma collection.
func NewChromaVectorStore(collection chromago.Collection) VectorStore {
	return &chromaVectorStore{collection: collection}
}

// GetOrCreateCollection connects to the named collection, creating it on
// first run.
func GetOrCreateCollection(ctx context.Context, client chromago.Client, name string) (chromago.Collection, error) {
	collection, err := client.GetOrCreateCollection(
		ctx,
		name,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "course notes embeddings"),
				chromago.NewStringAttribute("created_by", "studymate"),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("get or create collection %q: %w", name, err)
	}
	log.Printf("VECTORSTORE: Connected to collection '%s'", name)
	return collection, nil
}

func (s *chromaVectorStore) Upsert(ctx context.Context, vectors []ChunkVector) error {
	for _, v := range vectors {
		metadata := chromago.NewDocumentMetadata(
			chromago.NewIntAttribute("document_id", int64(v.DocumentID)),
			chromago.NewIntAttribute("course_id", int64(v.CourseID)),
			chromago.NewIntAttribute("chunk_index", int64(v.ChunkIndex)),
			chromago.NewIntAttribute("page", int64(v.Page)),
			chromago.NewStringAttribute("source", v.Source),
		)
		err := s.collection.Add(ctx,
			chromago.WithIDs(chromago.DocumentID(v.ID)),
			chromago.WithTexts(v.Content),
			chromago.WithEmbeddings(embeddings.NewEmbeddingFromFloat32(v.Embedding)),
			chromago.WithMetadatas(metadata),
		)
		if err != nil {
			return fmt.Errorf("add vector %s to chromadb: %w", v.ID, err)
		}
	}
	return nil
}

func (s *chromaVectorStore) Query(ctx context.Context, embedding []float32, topK int, courseID uint) ([]VectorMatch, error) {
	results, err := s.collection.Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(embedding)),
		chromago.WithNResults(topK),
		chromago.WithWhereQuery(chromago.EqInt("course_id", int(courseID))),
	)
	if err != nil {
		return nil, fmt.Errorf("query chromadb: %w", err)
	}

	var matches []VectorMatch
	idGroups := results.GetIDGroups()
	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	distanceGroups := results.GetDistancesGroups()

	if len(documentGroups) == 0 {
		return matches, nil
	}
	for i, doc := range documentGroups[0] {
		if doc.ContentString() == "" {
			continue
		}
		match := VectorMatch{Content: doc.ContentString()}
		if len(idGroups) > 0 && i < len(idGroups[0]) {
			match.ID = string(idGroups[0][i])
		}
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			match.Score = 1.0 - float64(distanceGroups[0][i])
		}
		if len(metadataGroups) > 0 && i < len(metadataGroups[0]) {
			match.Metadata = metadataToMap(metadataGroups[0][i])
		}
		matches = append(matches, match)
	}
	return matches, nil
}

func (s *chromaVectorStore) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	docIDs := make([]chromago.DocumentID, 0, len(ids))
	for _, id := range ids {
		docIDs = append(docIDs, chromago.DocumentID(id))
	}
	if err := s.collection.Delete(ctx, chromago.WithIDsDelete(docIDs...)); err != nil {
		return fmt.Errorf("delete vectors from chromadb: %w", err)
	}
	return nil
}

func (s *chromaVectorStore) DeleteByDocument(ctx context.Context, documentID uint) error {
	where := chromago.EqInt("document_id", int(documentID))
	if err := s.collection.Delete(ctx, chromago.WithWhereDelete(where)); err != nil {
		return fmt.Errorf("delete document vectors from chromadb: %w", err)
	}
	return nil
}

func (s *chromaVectorStore) ListByDocument(ctx context.Context, documentID uint) ([]VectorMatch, error) {
	results, err := s.collection.Get(ctx,
		chromago.WithWhereGet(chromago.EqInt("document_id", int(documentID))),
	)
	if err != nil {
		return nil, fmt.Errorf("get document vectors from chromadb: %w", err)
	}

	ids := results.GetIDs()
	documents := results.GetDocuments()
	metadatas := results.GetMetadatas()

	matches := make([]VectorMatch, 0, len(ids))
	for i := range ids {
		match := VectorMatch{ID: string(ids[i])}
		if i < len(documents) {
			match.Content = documents[i].ContentString()
		}
		if i < len(metadatas) && metadatas[i] != nil {
			match.Metadata = metadataToMap(metadatas[i])
		}
		matches = append(matches, match)
	}
	return matches, nil
}

func (s *chromaVectorStore) Count(ctx context.Context) (int, error) {
	count, err := s.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count vectors in chromadb: %w", err)
	}
	return int(count), nil
}

// metadataToMap converts Chroma's DocumentMetadata into a plain map. The
// struct has no public accessor for all values, so a JSON round trip is
// the supported path.
func metadataToMap(metadata chromago.DocumentMetadata) map[string]interface{} {
	result := make(map[string]interface{})
	if metadata == nil {
		return result
	}
	jsonBytes, err := json.Marshal(metadata)
	if err != nil {
		log.Printf("WARN: could not marshal vector metadata: %v", err)
		return result
	}
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		log.Printf("WARN: could not unmarshal vector metadata: %v", err)
		return map[string]interface{}{}
	}
	return result
}
