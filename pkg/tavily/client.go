package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
	"github.com/dskvich/ifood-info-bot/pkg/logger"
)

const (
	DefaultBaseURL    = "https://api.tavily.com"
	DefaultMaxResults = 5

	searchDepth    = "advanced"
	defaultTitle   = "Sem título"
	providerName   = "tavily"
	unknownMessage = "Erro desconhecido"

	// Tavily answers 432 when the plan credits are exhausted.
	statusPlanLimit = 432
)

type searchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

type rawResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date"`
}

type searchResponse struct {
	Results []rawResult `json:"results"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  struct {
		Error string `json:"error"`
	} `json:"detail"`
}

type client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(apiKey, baseURL string, timeout time.Duration) *client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

func (c *client) IsConfigured() bool {
	return c.apiKey != ""
}

func (c *client) Search(ctx context.Context, query string, maxResults int) (domain.SearchResponse, error) {
	if !c.IsConfigured() {
		return domain.SearchResponse{}, domain.ErrSearchNotConfigured
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	body, err := json.Marshal(searchRequest{
		APIKey:        c.apiKey,
		Query:         query,
		SearchDepth:   searchDepth,
		IncludeAnswer: false,
		MaxResults:    maxResults,
	})
	if err != nil {
		return domain.SearchResponse{}, fmt.Errorf("encoding search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return domain.SearchResponse{}, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.SearchResponse{}, fmt.Errorf("executing search request: %w", err)
	}
	defer func(body io.ReadCloser) {
		if closeErr := body.Close(); closeErr != nil {
			slog.ErrorContext(ctx, "closing search response body", logger.Err(closeErr))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return domain.SearchResponse{}, c.statusError(resp)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.SearchResponse{}, fmt.Errorf("decoding search response: %w", err)
	}

	results := lo.Map(decoded.Results, func(r rawResult, _ int) domain.SearchResult {
		title, _ := lo.Coalesce(r.Title, defaultTitle)
		return domain.SearchResult{
			Title:         title,
			URL:           r.URL,
			Content:       r.Content,
			Score:         r.Score,
			PublishedDate: r.PublishedDate,
		}
	})

	slog.InfoContext(ctx, "Web search completed", "query", query, "results", len(results), "took", time.Since(start))

	return domain.SearchResponse{
		Results:   results,
		Query:     query,
		Timestamp: c.now(),
	}, nil
}

func (c *client) statusError(resp *http.Response) error {
	var payload errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	message, _ := lo.Coalesce(payload.Detail.Error, payload.Error, payload.Message, unknownMessage)

	providerErr := &domain.ProviderError{Provider: providerName, StatusCode: resp.StatusCode, Message: message}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		providerErr.Kind = domain.ErrSearchUnauthorized
	case http.StatusTooManyRequests, statusPlanLimit:
		providerErr.Kind = domain.ErrSearchQuotaExceeded
	}
	return providerErr
}
