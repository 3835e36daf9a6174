package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"studymate/models"
)

// RetrievedChunk is a chunk of course material pulled back for a query,
// either from the vector store or from the relational fallback search.
type RetrievedChunk struct {
	Content        string
	PageNumber     int
	Source         string
	DocumentID     uint
	Score          float64
	RelevanceScore float64
}

// RerankerService reorders retrieved chunks by relevance to the query.
type RerankerService interface {
	Rerank(ctx context.Context, query string, chunks []RetrievedChunk, topN int) ([]RetrievedChunk, error)
}

// cohereReranker calls Cohere's hosted rerank API. When no API key is
// configured the service degrades to a pass-through, so retrieval order
// is preserved rather than the request failing.
type cohereReranker struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
}

// NewCohereReranker creates a reranker against the Cohere API.
func NewCohereReranker(client *http.Client, apiKey, baseURL, model string) RerankerService {
	return &cohereReranker{
		httpClient: client,
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
	}
}

func (r *cohereReranker) Rerank(ctx context.Context, query string, chunks []RetrievedChunk, topN int) ([]RetrievedChunk, error) {
	if len(chunks) == 0 {
		return []RetrievedChunk{}, nil
	}
	if r.apiKey == "" {
		log.Println("RERANKER: No Cohere API key configured, skipping rerank.")
		return chunks, nil
	}
	if topN <= 0 || topN > len(chunks) {
		topN = len(chunks)
	}

	docs := make([]string, 0, len(chunks))
	for _, c := range chunks {
		docs = append(docs, c.Content)
	}

	reqBody, err := json.Marshal(models.CohereRerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: docs,
		TopN:      topN,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/rerank", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create rerank http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call cohere rerank api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cohere api returned non-200 status: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var rerankResp models.CohereRerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&rerankResp); err != nil {
		return nil, fmt.Errorf("failed to decode cohere response: %w", err)
	}

	reranked := make([]RetrievedChunk, 0, len(rerankResp.Results))
	for _, result := range rerankResp.Results {
		if result.Index < 0 || result.Index >= len(chunks) {
			continue
		}
		chunk := chunks[result.Index]
		chunk.RelevanceScore = result.RelevanceScore
		reranked = append(reranked, chunk)
	}
	return reranked, nil
}
