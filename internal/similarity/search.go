package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"legal-case-intelligence/internal/config"
	"legal-case-intelligence/models"
)

// Searcher queries an external corpus of decided cases.
type Searcher interface {
	Search(ctx context.Context, query, jurisdiction string, limit int) ([]models.PrecedentCandidate, error)
}

// PrecedentSearcher talks to the precedent search service over HTTP.
type PrecedentSearcher struct {
	httpClient *http.Client
	baseURL    string
}

func NewPrecedentSearcher(cfg *config.Config) *PrecedentSearcher {
	return &PrecedentSearcher{
		httpClient: &http.Client{Timeout: time.Duration(cfg.PrecedentSearchTimeout) * time.Second},
		baseURL:    cfg.PrecedentSearchURL,
	}
}

type searchRequest struct {
	Query        string `json:"query"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	Limit        int    `json:"limit"`
}

type searchResponse struct {
	Results []models.PrecedentCandidate `json:"results"`
	Error   string                      `json:"error,omitempty"`
}

func (s *PrecedentSearcher) Search(ctx context.Context, query, jurisdiction string, limit int) ([]models.PrecedentCandidate, error) {
	body, err := json.Marshal(searchRequest{Query: query, Jurisdiction: jurisdiction, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("precedent search unavailable: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("precedent search returned status %d: %s", resp.StatusCode, string(payload))
	}

	var decoded searchResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("precedent search error: %s", decoded.Error)
	}
	return decoded.Results, nil
}
