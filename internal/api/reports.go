// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pdiddy/bizcheck/pkg/types"
)

// ReportService reads generated reports.
type ReportService struct {
	c Doer
}

// NewReportService returns a ReportService.
func NewReportService(c Doer) *ReportService {
	return &ReportService{c: c}
}

// Get fetches a report by id.
func (s *ReportService) Get(ctx context.Context, reportID string) (*types.Report, error) {
	var r types.Report
	if err := s.c.Do(ctx, http.MethodGet, "/reports/"+url.PathEscape(reportID), nil, nil, &r); err != nil {
		return nil, err
	}
	if r.ReportID == "" {
		r.ReportID = reportID
	}
	return &r, nil
}
