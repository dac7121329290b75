// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/bizcheck/pkg/types"
)

// SearchService queries the backend's data-collection search endpoints.
type SearchService struct {
	c Doer
}

// NewSearchService returns a SearchService.
func NewSearchService(c Doer) *SearchService {
	return &SearchService{c: c}
}

// searchHit accepts both the documented result shape and the competitor
// shape, which names its fields name and website.
type searchHit struct {
	types.SearchResult
	Name    string `json:"name"`
	Website string `json:"website"`
}

// searchEnvelope is the {query, total, results} response body.
type searchEnvelope struct {
	Query   string      `json:"query"`
	Total   int         `json:"total"`
	Results []searchHit `json:"results"`
}

// Search runs q against the endpoint for kind. limit <= 0 leaves the server
// default. The response may be a bare array or a {results} envelope.
func (s *SearchService) Search(ctx context.Context, kind types.SearchKind, q string, limit int) ([]types.SearchResult, error) {
	if _, err := types.ParseSearchKind(string(kind)); err != nil {
		return nil, err
	}
	query := url.Values{"q": {q}}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var raw json.RawMessage
	if err := s.c.Do(ctx, http.MethodGet, "/search/"+string(kind), query, nil, &raw); err != nil {
		return nil, err
	}

	hits, err := decodeHits(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing %s search results: %w", kind, err)
	}

	results := make([]types.SearchResult, 0, len(hits))
	for i, h := range hits {
		r := h.SearchResult
		if r.Title == "" {
			r.Title = h.Name
		}
		if r.URL == "" {
			r.URL = h.Website
		}
		if r.ID == "" {
			r.ID = strconv.Itoa(i + 1)
		}
		if r.Source == "" {
			r.Source = string(kind)
		}
		results = append(results, r)
	}
	return results, nil
}

func decodeHits(raw json.RawMessage) ([]searchHit, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var hits []searchHit
		err := json.Unmarshal(raw, &hits)
		return hits, err
	}
	var env searchEnvelope
	err := json.Unmarshal(raw, &env)
	return env.Results, err
}

// Competitors searches for competing products.
func (s *SearchService) Competitors(ctx context.Context, q string) ([]types.SearchResult, error) {
	return s.Search(ctx, types.SearchCompetitors, q, 0)
}

// Market searches market-size data.
func (s *SearchService) Market(ctx context.Context, q string) ([]types.SearchResult, error) {
	return s.Search(ctx, types.SearchMarket, q, 0)
}

// Reviews searches customer reviews.
func (s *SearchService) Reviews(ctx context.Context, q string) ([]types.SearchResult, error) {
	return s.Search(ctx, types.SearchReviews, q, 0)
}

// Regulations searches applicable regulations.
func (s *SearchService) Regulations(ctx context.Context, q string) ([]types.SearchResult, error) {
	return s.Search(ctx, types.SearchRegulations, q, 0)
}

// Technology searches technology trends.
func (s *SearchService) Technology(ctx context.Context, q string) ([]types.SearchResult, error) {
	return s.Search(ctx, types.SearchTechnology, q, 0)
}

// Profitability searches profitability benchmarks.
func (s *SearchService) Profitability(ctx context.Context, q string) ([]types.SearchResult, error) {
	return s.Search(ctx, types.SearchProfitability, q, 0)
}
