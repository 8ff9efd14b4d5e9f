package http

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "cxfeedback/internal/errors"
	"cxfeedback/internal/exporter"
	"cxfeedback/internal/feedback"
	"cxfeedback/internal/grid"
	custommw "cxfeedback/internal/middleware"
	"cxfeedback/internal/services"
	api "cxfeedback/pkg/contracts/api/v1"
)

// ExportHandler serves the export API with RFC 7807 errors
type ExportHandler struct {
	service      ExportServiceInterface
	validation   *custommw.ValidationMiddleware
	query        *custommw.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewExportHandler creates a new export handler
func NewExportHandler(service ExportServiceInterface, validation *custommw.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExportHandler {
	return &ExportHandler{
		service:      service,
		validation:   validation,
		query:        custommw.NewQueryParamValidator(errorHandler),
		logger:       logger.With(slog.String("component", "export_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the export routes, mounted under /api/exports
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.With(h.validation.ValidateRequest).Post("/", h.CreateExport)
	r.Get("/{format}", h.DownloadExport)

	return r
}

// CreateExport handles POST /api/exports
func (h *ExportHandler) CreateExport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req api.ExportRequest
	if err := h.validation.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	formats, err := exporter.ParseFormats(strings.Join(req.Formats, ","))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("formats", err.Error()))
		return
	}

	h.logger.InfoContext(r.Context(), "export requested",
		slog.String("request_id", reqID),
		slog.String("center", req.Center),
		slog.String("start_date", req.StartDate),
		slog.String("end_date", req.EndDate),
	)

	report, err := h.service.Submit(r.Context(), services.Submission{
		ID:        reqID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Center:    req.Center,
		Formats:   formats,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, h.exportResponse(report))
}

// DownloadExport handles GET /api/exports/{format}. It runs a submission
// for a single file format and streams the file as an attachment.
func (h *ExportHandler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := api.DownloadRequest{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Center:    q.Get("center"),
		Format:    chi.URLParam(r, "format"),
	}
	if err := h.validation.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	format := exporter.Format(req.Format)

	report, err := h.service.Submit(r.Context(), services.Submission{
		ID:        middleware.GetReqID(r.Context()),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Center:    req.Center,
		Formats:   []exporter.Format{format},
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if report.Bundle == nil {
		h.errorHandler.HandleError(w, r, apierrors.NewAppError(apierrors.ErrTypeNotFound, report.Message(), nil))
		return
	}

	artifact, ok := report.Bundle.Get(format)
	if !ok {
		h.errorHandler.HandleError(w, r, fmt.Errorf("download %s: %w", format, report.Bundle.Err()))
		return
	}

	name := report.FileNames[format]
	if name == "" {
		name = exporter.FileName(report.Criteria.Center, report.Criteria.Start, report.Criteria.End, format.Ext())
	}

	w.Header().Set("Content-Type", artifact.MIMEType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("X-Feedback-Rows", fmt.Sprint(report.Bundle.Rows))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write download",
			slog.String("file", name),
			slog.String("error", err.Error()))
	}
}

// RecentFeedback handles GET /api/feedback/recent
func (h *ExportHandler) RecentFeedback(w http.ResponseWriter, r *http.Request) {
	days, ok := h.query.ValidateInt(w, r, "days", 1, services.MaxRecentDays, h.service.RecentDays())
	if !ok {
		return
	}

	report, err := h.service.Recent(r.Context(), days)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp := api.RecentResponse{
		Days:        report.Days,
		From:        report.From.String(),
		To:          report.To.String(),
		Header:      []string(report.Result.Header),
		Rows:        rowsOf(report.Result.Rows),
		Count:       len(report.Result.Rows),
		Message:     report.Message(),
		Diagnostics: diagnosticsOf(report.Result.Diagnostics),
	}
	if resp.Header == nil {
		resp.Header = []string{}
	}
	render.JSON(w, r, resp)
}

// ListCenters handles GET /api/centers
func (h *ExportHandler) ListCenters(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.CentersResponse{Centers: h.service.Centers()})
}

func (h *ExportHandler) exportResponse(report *services.Report) api.ExportResponse {
	c := report.Criteria
	resp := api.ExportResponse{
		ID:          report.ID,
		State:       string(report.State()),
		Message:     report.Message(),
		Count:       report.Outcome.Count,
		Center:      c.Center,
		Delivered:   report.Outcome.Delivered,
		Errors:      report.Outcome.Failed,
		Diagnostics: diagnosticsOf(report.Result.Diagnostics),
		Duration:    report.Duration.String(),
		CompletedAt: report.CompletedAt,
	}
	if !c.Start.IsZero() {
		resp.StartDate = c.Start.String()
	}
	if !c.End.IsZero() {
		resp.EndDate = c.End.String()
	}
	if report.Bundle == nil {
		return resp
	}

	resp.Header = []string(report.Result.Header)
	resp.Rows = rowsOf(report.Result.Rows)
	for _, f := range report.Bundle.Rendered() {
		a, _ := report.Bundle.Get(f)
		artifact := api.Artifact{Format: string(f), MIMEType: a.MIMEType()}
		if f == exporter.FormatXLSX {
			artifact.ContentBase64 = base64.StdEncoding.EncodeToString(a.Data)
		} else {
			artifact.Content = a.String()
		}
		if f.IsFile() {
			artifact.FileName = report.FileNames[f]
			artifact.DownloadURL = downloadURL(f, c)
		}
		resp.Artifacts = append(resp.Artifacts, artifact)
	}
	return resp
}

func downloadURL(f exporter.Format, c feedback.Criteria) string {
	q := url.Values{}
	q.Set("start_date", c.Start.String())
	q.Set("end_date", c.End.String())
	q.Set("center", c.Center)
	return "/api/exports/" + string(f) + "?" + q.Encode()
}

func rowsOf(rows []grid.Row) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = []string(row)
	}
	return out
}

func diagnosticsOf(d feedback.Diagnostics) api.Diagnostics {
	return api.Diagnostics{
		Examined:        d.Examined,
		Matched:         d.Matched,
		UnparseableDate: d.UnparseableDate,
		OutOfRange:      d.OutOfRange,
		MissingCenter:   d.MissingCenter,
		CenterMismatch:  d.CenterMismatch,
	}
}
