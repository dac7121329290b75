// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Recommendation is the report's final verdict.
type Recommendation string

const (
	RecommendGo          Recommendation = "Go"
	RecommendNoGo        Recommendation = "No-Go"
	RecommendConditional Recommendation = "Conditional"
)

// ReportType selects the depth of a generated report.
type ReportType string

const (
	ReportBasic     ReportType = "basic"
	ReportDetailed  ReportType = "detailed"
	ReportExecutive ReportType = "executive"
)

// Valid reports whether t is a known report type.
func (t ReportType) Valid() bool {
	switch t {
	case ReportBasic, ReportDetailed, ReportExecutive:
		return true
	}
	return false
}

// SWOT holds the four ordered SWOT lists.
type SWOT struct {
	Strengths     []string `json:"strengths" yaml:"strengths"`
	Weaknesses    []string `json:"weaknesses" yaml:"weaknesses"`
	Opportunities []string `json:"opportunities" yaml:"opportunities"`
	Threats       []string `json:"threats" yaml:"threats"`
}

// SWOTCategory is one named SWOT list.
type SWOTCategory struct {
	Name  string
	Items []string
}

// Categories returns exactly four categories in the fixed order strengths,
// weaknesses, opportunities, threats. Item order is preserved and nil lists
// become empty.
func (s SWOT) Categories() []SWOTCategory {
	orEmpty := func(v []string) []string {
		if v == nil {
			return []string{}
		}
		return v
	}
	return []SWOTCategory{
		{"Strengths", orEmpty(s.Strengths)},
		{"Weaknesses", orEmpty(s.Weaknesses)},
		{"Opportunities", orEmpty(s.Opportunities)},
		{"Threats", orEmpty(s.Threats)},
	}
}

// Report is the generated feasibility document for an idea. The four
// analysis sections are free-form JSON objects owned by the server.
type Report struct {
	ReportID            string         `json:"report_id" yaml:"report_id"`
	IdeaID              string         `json:"idea_id" yaml:"idea_id"`
	ExecutiveSummary    string         `json:"executive_summary" yaml:"executive_summary"`
	SWOT                SWOT           `json:"swot" yaml:"swot"`
	MarketAnalysis      any            `json:"market_analysis,omitempty" yaml:"market_analysis,omitempty"`
	CompetitionAnalysis any            `json:"competition_analysis,omitempty" yaml:"competition_analysis,omitempty"`
	FinancialAnalysis   any            `json:"financial_analysis,omitempty" yaml:"financial_analysis,omitempty"`
	RiskAssessment      any            `json:"risk_assessment,omitempty" yaml:"risk_assessment,omitempty"`
	Recommendation      Recommendation `json:"recommendation" yaml:"recommendation"`
	Status              JobStatus      `json:"status,omitempty" yaml:"status,omitempty"`
	CreatedAt           string         `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// GenerateReportRequest is the body of POST /ideas/{id}/report.
type GenerateReportRequest struct {
	ReportType ReportType `json:"report_type,omitempty"`
}

// ReportAccepted is the response of POST /ideas/{id}/report.
type ReportAccepted struct {
	ReportID string    `json:"report_id"`
	IdeaID   string    `json:"idea_id"`
	Status   JobStatus `json:"status"`
}
