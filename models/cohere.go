package models

// CohereRerankRequest is used to structure the request to the Cohere rerank API.
type CohereRerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

// CohereRerankResponse is used to parse the ranked results from the Cohere API.
type CohereRerankResponse struct {
	Results []CohereRerankResult `json:"results"`
}

// CohereRerankResult is one ranked document: its position in the request
// slice and the relevance score Cohere assigned.
type CohereRerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}
