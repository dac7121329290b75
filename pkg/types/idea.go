// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures exchanged with the
// feasibility-analysis backend: ideas, job status records, analysis scores,
// reports, users, search results and client configuration.
package types

// IdeaStatus tracks an idea's progress through the server-side pipeline.
// The client never writes it; it only triggers transitions by starting jobs.
type IdeaStatus string

const (
	IdeaCreated    IdeaStatus = "created"
	IdeaCollecting IdeaStatus = "collecting"
	IdeaAnalyzing  IdeaStatus = "analyzing"
	IdeaCompleted  IdeaStatus = "completed"
	IdeaFailed     IdeaStatus = "failed"
)

// rank orders the non-failed statuses along the pipeline.
var ideaStatusRank = map[IdeaStatus]int{
	IdeaCreated:    0,
	IdeaCollecting: 1,
	IdeaAnalyzing:  2,
	IdeaCompleted:  3,
}

// Terminal reports whether no further transitions are expected.
func (s IdeaStatus) Terminal() bool {
	return s == IdeaCompleted || s == IdeaFailed
}

// Known reports whether s is one of the statuses the client understands.
func (s IdeaStatus) Known() bool {
	if s == IdeaFailed {
		return true
	}
	_, ok := ideaStatusRank[s]
	return ok
}

// CanAdvanceTo reports whether moving from s to next keeps the pipeline
// monotonic: forward along created → collecting → analyzing → completed, or
// from any non-terminal status to failed. Staying on the same status is
// allowed so repeated observations are not treated as regressions.
func (s IdeaStatus) CanAdvanceTo(next IdeaStatus) bool {
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	if next == IdeaFailed {
		return true
	}
	from, ok := ideaStatusRank[s]
	if !ok {
		return true
	}
	to, ok := ideaStatusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// Idea is a submitted business concept tracked through the pipeline.
type Idea struct {
	ID               string     `json:"id" yaml:"id"`
	UserID           string     `json:"user_id" yaml:"user_id"`
	Title            string     `json:"title" yaml:"title"`
	Description      string     `json:"description,omitempty" yaml:"description,omitempty"`
	Problem          string     `json:"problem" yaml:"problem"`
	TargetCustomer   string     `json:"target_customer" yaml:"target_customer"`
	ValueProposition string     `json:"value_proposition" yaml:"value_proposition"`
	RevenueModel     string     `json:"revenue_model" yaml:"revenue_model"`
	Differentiation  string     `json:"differentiation" yaml:"differentiation"`
	Constraints      string     `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	Industry         string     `json:"industry,omitempty" yaml:"industry,omitempty"`
	Status           IdeaStatus `json:"status" yaml:"status"`
	CreatedAt        string     `json:"created_at" yaml:"created_at"`
	UpdatedAt        string     `json:"updated_at" yaml:"updated_at"`
}

// CreateIdeaRequest is the body of POST /ideas. It doubles as the on-disk
// idea file format read by `bizcheck idea create --file`.
type CreateIdeaRequest struct {
	Title            string `json:"title" yaml:"title"`
	Description      string `json:"description" yaml:"description"`
	Problem          string `json:"problem" yaml:"problem"`
	TargetCustomer   string `json:"target_customer" yaml:"target_customer"`
	ValueProposition string `json:"value_proposition" yaml:"value_proposition"`
	RevenueModel     string `json:"revenue_model" yaml:"revenue_model"`
	Differentiation  string `json:"differentiation" yaml:"differentiation"`
	Constraints      string `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	Industry         string `json:"industry,omitempty" yaml:"industry,omitempty"`
}

// UpdateIdeaRequest is the body of PATCH /ideas/{id}. Nil fields are left
// unchanged. It has no status field.
type UpdateIdeaRequest struct {
	Title            *string `json:"title,omitempty"`
	Description      *string `json:"description,omitempty"`
	Problem          *string `json:"problem,omitempty"`
	TargetCustomer   *string `json:"target_customer,omitempty"`
	ValueProposition *string `json:"value_proposition,omitempty"`
	RevenueModel     *string `json:"revenue_model,omitempty"`
	Differentiation  *string `json:"differentiation,omitempty"`
	Constraints      *string `json:"constraints,omitempty"`
	Industry         *string `json:"industry,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (r UpdateIdeaRequest) IsEmpty() bool {
	return r.Title == nil && r.Description == nil && r.Problem == nil &&
		r.TargetCustomer == nil && r.ValueProposition == nil && r.RevenueModel == nil &&
		r.Differentiation == nil && r.Constraints == nil && r.Industry == nil
}

// CreateIdeaResponse is the response of POST /ideas.
type CreateIdeaResponse struct {
	IdeaID string     `json:"idea_id"`
	Status IdeaStatus `json:"status"`
}

// IdeaList is one page of GET /ideas.
type IdeaList struct {
	Ideas    []Idea `json:"ideas"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}
