package domain

import "time"

type SearchResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date,omitempty"`
}

type SearchResponse struct {
	Results   []SearchResult `json:"results"`
	Query     string         `json:"query"`
	Timestamp time.Time      `json:"timestamp"`
}

type CompletionRequest struct {
	Model       string
	Messages    []HistoryEntry
	Temperature float64
	MaxTokens   int
}
