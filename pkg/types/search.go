// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// SearchKind selects one of the backend's data-collection search endpoints.
type SearchKind string

const (
	SearchCompetitors   SearchKind = "competitors"
	SearchMarket        SearchKind = "market"
	SearchReviews       SearchKind = "reviews"
	SearchRegulations   SearchKind = "regulations"
	SearchTechnology    SearchKind = "technology"
	SearchProfitability SearchKind = "profitability"
)

// SearchKinds lists every supported kind in display order.
var SearchKinds = []SearchKind{
	SearchCompetitors,
	SearchMarket,
	SearchReviews,
	SearchRegulations,
	SearchTechnology,
	SearchProfitability,
}

// ParseSearchKind validates s against the supported kinds.
func ParseSearchKind(s string) (SearchKind, error) {
	for _, k := range SearchKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown search kind %q: use one of %v", s, SearchKinds)
}

// SearchResult is one hit returned by a /search/{kind} endpoint.
type SearchResult struct {
	// ID is the backend's identifier for the hit.
	ID string `json:"id" yaml:"id"`

	// Title is the headline of the hit.
	Title string `json:"title" yaml:"title"`

	// Description is an optional snippet.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// URL links to the source document, when there is one.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Source names the upstream provider (e.g. "news", "app_store").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// RelevanceScore is a value between 0.0 and 1.0 when the backend ranks hits.
	RelevanceScore float64 `json:"relevance_score,omitempty" yaml:"relevance_score,omitempty"`
}
