// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package view

import "github.com/pdiddy/bizcheck/pkg/types"

// StageControls says which stage actions and progress indicators the idea
// detail screen shows.
type StageControls struct {
	StartCollection   bool
	CollectionRunning bool
	StartAnalysis     bool
	AnalysisRunning   bool
	GenerateReport    bool
}

// Any reports whether any control is visible.
func (c StageControls) Any() bool {
	return c.StartCollection || c.CollectionRunning || c.StartAnalysis || c.AnalysisRunning || c.GenerateReport
}

// StageControlsFor derives the visible controls from the idea status and
// the latest collection and analysis records (either may be nil). Failed
// and unrecognized statuses show nothing.
func StageControlsFor(status types.IdeaStatus, collection *types.CollectionStatus, analysis *types.AnalysisResult) StageControls {
	var c StageControls
	collected := collection != nil && collection.Status == types.JobCompleted
	analyzed := analysis != nil && analysis.Status == types.JobCompleted

	switch status {
	case types.IdeaCreated:
		c.StartCollection = true
	case types.IdeaCollecting:
		c.StartAnalysis = collected
		c.CollectionRunning = !collected
	case types.IdeaAnalyzing:
		c.AnalysisRunning = !analyzed
		c.GenerateReport = analyzed
	case types.IdeaCompleted:
		c.GenerateReport = analyzed
	}
	return c
}
