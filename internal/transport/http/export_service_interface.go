package http

import (
	"context"

	"cxfeedback/internal/services"
)

// ExportServiceInterface defines the export operations the handlers need
type ExportServiceInterface interface {
	Submit(ctx context.Context, sub services.Submission) (*services.Report, error)
	Recent(ctx context.Context, days int) (*services.RecentReport, error)
	Centers() []string
	RecentDays() int
}

// Compile-time check
var _ ExportServiceInterface = (*services.ExportService)(nil)
