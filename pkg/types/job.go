// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// JobStatus is the status of one server-side job instance (collection,
// analysis or report generation). "completed" and "failed" are terminal;
// every other value means the job is still running.
type JobStatus string

const (
	JobCollecting JobStatus = "collecting"
	JobAnalyzing  JobStatus = "analyzing"
	JobGenerating JobStatus = "generating"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether the job has finished, successfully or not.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// CollectionStatus is returned by POST /ideas/{id}/collect and
// GET /ideas/{id}/collect/status.
type CollectionStatus struct {
	IdeaID         string    `json:"idea_id" yaml:"idea_id"`
	Status         JobStatus `json:"status" yaml:"status"`
	Tasks          []string  `json:"tasks,omitempty" yaml:"tasks,omitempty"`
	CompletedTasks []string  `json:"completed_tasks,omitempty" yaml:"completed_tasks,omitempty"`
	PendingTasks   []string  `json:"pending_tasks,omitempty" yaml:"pending_tasks,omitempty"`
	FailedTasks    []string  `json:"failed_tasks,omitempty" yaml:"failed_tasks,omitempty"`
	Progress       int       `json:"progress" yaml:"progress"`
}

// TaskTotal returns the number of sub-tasks the server announced. Older
// responses only list completed and pending tasks, so those are summed when
// Tasks is empty.
func (c CollectionStatus) TaskTotal() int {
	if len(c.Tasks) > 0 {
		return len(c.Tasks)
	}
	return len(c.CompletedTasks) + len(c.PendingTasks) + len(c.FailedTasks)
}

// JobAccepted is the response of POST /ideas/{id}/analyze.
type JobAccepted struct {
	IdeaID string    `json:"idea_id"`
	Status JobStatus `json:"status"`
}

// AnalysisResult holds the five sub-scores and the overall score for an idea.
type AnalysisResult struct {
	IdeaID              string    `json:"idea_id" yaml:"idea_id"`
	MarketScore         int       `json:"market_score" yaml:"market_score"`
	CompetitionScore    int       `json:"competition_score" yaml:"competition_score"`
	CustomerDemandScore int       `json:"customer_demand_score" yaml:"customer_demand_score"`
	FinancialScore      int       `json:"financial_score" yaml:"financial_score"`
	ExecutionScore      int       `json:"execution_score" yaml:"execution_score"`
	OverallScore        int       `json:"overall_score" yaml:"overall_score"`
	Status              JobStatus `json:"status" yaml:"status"`
	CreatedAt           string    `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Score is a labelled score for display.
type Score struct {
	Label string
	Value int
}

// Scores lists the sub-scores followed by the overall score, in display order.
func (a AnalysisResult) Scores() []Score {
	return []Score{
		{"Market", a.MarketScore},
		{"Competition", a.CompetitionScore},
		{"Customer demand", a.CustomerDemandScore},
		{"Financial", a.FinancialScore},
		{"Execution", a.ExecutionScore},
		{"Overall", a.OverallScore},
	}
}
