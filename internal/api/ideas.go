// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/bizcheck/pkg/types"
)

// IdeaService covers idea CRUD and the three job-start endpoints with their
// status reads.
type IdeaService struct {
	c Doer
}

// NewIdeaService returns an IdeaService.
func NewIdeaService(c Doer) *IdeaService {
	return &IdeaService{c: c}
}

// List returns one page of the caller's ideas. Zero page or pageSize leaves
// the server default.
func (s *IdeaService) List(ctx context.Context, page, pageSize int) (*types.IdeaList, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	var list types.IdeaList
	if err := s.c.Do(ctx, http.MethodGet, "/ideas", q, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Create submits a new idea. The server assigns the id and the initial
// "created" status.
func (s *IdeaService) Create(ctx context.Context, req types.CreateIdeaRequest) (*types.CreateIdeaResponse, error) {
	var created types.CreateIdeaResponse
	if err := s.c.Do(ctx, http.MethodPost, "/ideas", nil, req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Get fetches one idea.
func (s *IdeaService) Get(ctx context.Context, id string) (*types.Idea, error) {
	var idea types.Idea
	if err := s.c.Do(ctx, http.MethodGet, ideaPath(id, ""), nil, nil, &idea); err != nil {
		return nil, err
	}
	return &idea, nil
}

// Update patches the non-nil fields of req.
func (s *IdeaService) Update(ctx context.Context, id string, req types.UpdateIdeaRequest) (*types.Idea, error) {
	var idea types.Idea
	if err := s.c.Do(ctx, http.MethodPatch, ideaPath(id, ""), nil, req, &idea); err != nil {
		return nil, err
	}
	return &idea, nil
}

// Delete removes an idea.
func (s *IdeaService) Delete(ctx context.Context, id string) error {
	return s.c.Do(ctx, http.MethodDelete, ideaPath(id, ""), nil, nil, nil)
}

// StartCollection starts the data-collection job and returns its initial
// status. The call returns before collection finishes.
func (s *IdeaService) StartCollection(ctx context.Context, id string) (*types.CollectionStatus, error) {
	var st types.CollectionStatus
	if err := s.c.Do(ctx, http.MethodPost, ideaPath(id, "/collect"), nil, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// CollectionStatus reads the collection job's progress.
func (s *IdeaService) CollectionStatus(ctx context.Context, id string) (*types.CollectionStatus, error) {
	var st types.CollectionStatus
	if err := s.c.Do(ctx, http.MethodGet, ideaPath(id, "/collect/status"), nil, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// StartAnalysis starts the scoring job.
func (s *IdeaService) StartAnalysis(ctx context.Context, id string) (*types.JobAccepted, error) {
	var acc types.JobAccepted
	if err := s.c.Do(ctx, http.MethodPost, ideaPath(id, "/analyze"), nil, nil, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// Analysis reads the analysis result. Its Status is "analyzing" until the
// scores are final.
func (s *IdeaService) Analysis(ctx context.Context, id string) (*types.AnalysisResult, error) {
	var res types.AnalysisResult
	if err := s.c.Do(ctx, http.MethodGet, ideaPath(id, "/analysis"), nil, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GenerateReport starts report generation. An empty reportType leaves the
// server default.
func (s *IdeaService) GenerateReport(ctx context.Context, id string, reportType types.ReportType) (*types.ReportAccepted, error) {
	var acc types.ReportAccepted
	body := types.GenerateReportRequest{ReportType: reportType}
	if err := s.c.Do(ctx, http.MethodPost, ideaPath(id, "/report"), nil, body, &acc); err != nil {
		return nil, err
	}
	if acc.IdeaID == "" {
		acc.IdeaID = id
	}
	return &acc, nil
}
