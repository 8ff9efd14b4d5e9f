package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"cxfeedback/internal/delivery"
	apierrors "cxfeedback/internal/errors"
	"cxfeedback/internal/exporter"
	"cxfeedback/internal/feedback"
	"cxfeedback/internal/infrastructure"
	"cxfeedback/internal/notifier"
	"cxfeedback/internal/sheets"
)

// TracerName is the instrumentation scope of service spans.
const TracerName = "cxfeedback.services"

// MaxRecentDays bounds the recent feedback window.
const MaxRecentDays = 366

// Submission is one operator request as typed into the form or CLI. Dates
// are ISO calendar dates; they are validated by Submit.
type Submission struct {
	ID        string
	StartDate string
	EndDate   string
	Center    string
	Formats   []exporter.Format
}

// Report is everything a submission produced. Bundle is nil unless rows
// matched.
type Report struct {
	ID          string
	Outcome     notifier.Outcome
	Criteria    feedback.Criteria
	Result      feedback.Result
	Bundle      *exporter.Bundle
	FileNames   map[exporter.Format]string
	Clipboard   *delivery.ClipboardResult
	Duration    time.Duration
	CompletedAt time.Time
}

// State is the terminal state of the submission.
func (r *Report) State() notifier.State { return r.Outcome.State }

// Message is the operator-facing outcome text.
func (r *Report) Message() string { return r.Outcome.Message() }

// RecentReport is the read-only last-N-days view.
type RecentReport struct {
	Days   int
	From   feedback.Date
	To     feedback.Date
	Result feedback.Result
}

// Message describes the window for display above the table.
func (r *RecentReport) Message() string {
	n := len(r.Result.Rows)
	if n == 0 {
		return fmt.Sprintf("No feedback found for the last %d days.", r.Days)
	}
	return fmt.Sprintf("%d feedback %s from the last %d days.", n, pluralRows(n), r.Days)
}

// ExportDeps are the collaborators of an ExportService. Source is required;
// everything else has a usable zero value.
type ExportDeps struct {
	Source      sheets.Source
	ResourceID  string
	Range       string
	Filter      *feedback.Filter
	Options     exporter.Options
	Formats     []exporter.Format
	Centers     []string
	RecentDays  int
	MaxInFlight int64

	// Clipboard sinks are tried in order. With none, the HTML and text
	// artifacts are handed back to the caller in the Report.
	Clipboard []delivery.ClipboardSink
	// Files receives CSV and XLSX artifacts. When nil they are handed back
	// to the caller in the Report.
	Files delivery.FileSink

	Notifier notifier.Notifier
	Metrics  *infrastructure.Metrics
	Logger   *slog.Logger
	Now      func() time.Time
}

// ExportService runs feedback export submissions.
type ExportService struct {
	source     sheets.Source
	resourceID string
	rangeSpec  string
	filter     *feedback.Filter
	options    exporter.Options
	formats    []exporter.Format
	centers    []string
	recentDays int
	clipboard  []delivery.ClipboardSink
	files      delivery.FileSink
	notifier   notifier.Notifier
	metrics    *infrastructure.Metrics
	inflight   *semaphore.Weighted
	tracer     trace.Tracer
	logger     *slog.Logger
	now        func() time.Time
}

// NewExportService creates an ExportService from deps.
func NewExportService(deps ExportDeps) *ExportService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	filter := deps.Filter
	if filter == nil {
		filter = feedback.NewFilter(feedback.DefaultDateParser(), logger)
	}
	logger = logger.With(slog.String("component", "export_service"))
	maxInFlight := deps.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	recentDays := deps.RecentDays
	if recentDays <= 0 {
		recentDays = 7
	}
	n := deps.Notifier
	if n == nil {
		n = notifier.Multi(nil)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	logger.Info("ExportService initialized",
		slog.String("range", deps.Range),
		slog.Int("centers", len(deps.Centers)),
		slog.Int("clipboard_sinks", len(deps.Clipboard)),
		slog.Bool("file_sink", deps.Files != nil),
		slog.Int64("max_in_flight", maxInFlight))

	return &ExportService{
		source:     deps.Source,
		resourceID: deps.ResourceID,
		rangeSpec:  deps.Range,
		filter:     filter,
		options:    deps.Options,
		formats:    deps.Formats,
		centers:    append([]string(nil), deps.Centers...),
		recentDays: recentDays,
		clipboard:  deps.Clipboard,
		files:      deps.Files,
		notifier:   n,
		metrics:    deps.Metrics,
		inflight:   semaphore.NewWeighted(maxInFlight),
		tracer:     otel.Tracer(TracerName),
		logger:     logger,
		now:        now,
	}
}

// Centers returns the selectable call centers in configured order.
func (s *ExportService) Centers() []string {
	return append([]string(nil), s.centers...)
}

// RecentDays is the default window of Recent.
func (s *ExportService) RecentDays() int { return s.recentDays }

// Submit runs one submission to a terminal state. A Report is returned for
// every state; validation, schema and failure states also return an
// *errors.AppError. A submission rejected because another is running
// returns a conflict error and no Report, and reaches no notifier.
func (s *ExportService) Submit(ctx context.Context, sub Submission) (*Report, error) {
	started := s.now()
	report := &Report{ID: sub.ID}
	if report.ID == "" {
		report.ID = uuid.NewString()
	}

	ctx, span := s.tracer.Start(ctx, "export.submit",
		trace.WithAttributes(
			attribute.String("submission.id", report.ID),
			attribute.String("submission.center", sub.Center),
		),
	)
	defer span.End()

	criteria, v := s.validate(sub)
	report.Criteria = criteria
	if len(v.problems) > 0 {
		o := notifier.Outcome{State: notifier.StateValidation, Problems: v.problems, Incomplete: v.incomplete}
		err := apierrors.NewAppError(apierrors.ErrTypeValidation, o.Message(), v.cause).
			WithContext("problems", v.problems)
		o.Err = err
		return s.finish(ctx, report, o, started), err
	}

	if !s.inflight.TryAcquire(1) {
		s.logger.WarnContext(ctx, "submission rejected, another export is running",
			slog.String("submission_id", report.ID))
		span.SetStatus(codes.Error, "in flight")
		return nil, apierrors.NewConflictError("An export is already running; wait for it to finish", ErrSubmissionInFlight)
	}
	defer s.inflight.Release(1)
	s.metrics.InFlight(ctx, 1)
	defer s.metrics.InFlight(ctx, -1)

	if sn, ok := s.notifier.(notifier.StartNotifier); ok {
		sn.Started(ctx, report.ID, criteria)
	}

	g, err := s.source.FetchGrid(ctx, s.resourceID, s.rangeSpec)
	if err != nil {
		appErr := fetchFailure(err)
		return s.finish(ctx, report, notifier.Outcome{State: notifier.StateFailure, Err: appErr}, started), appErr
	}
	if g.IsEmpty() {
		return s.finish(ctx, report, notifier.Outcome{State: notifier.StateEmpty}, started), nil
	}

	cols, err := feedback.ResolveColumns(g.Header)
	if err != nil {
		var missing []string
		var colErr *feedback.ColumnError
		if errors.As(err, &colErr) {
			missing = colErr.Missing
		}
		o := notifier.Outcome{State: notifier.StateSchema, Problems: missing}
		appErr := apierrors.NewSchemaError(o.Message(), err).WithContext("missing", missing)
		o.Err = appErr
		return s.finish(ctx, report, o, started), appErr
	}

	report.Result = s.filter.Apply(ctx, g, cols, criteria)
	s.recordSkipped(ctx, report.Result.Diagnostics)
	if report.Result.Empty() {
		return s.finish(ctx, report, notifier.Outcome{State: notifier.StateEmpty}, started), nil
	}

	formats := sub.Formats
	if len(formats) == 0 {
		formats = s.formats
	}
	if len(s.clipboard) > 0 {
		formats = clipboardPair(formats)
	}
	report.Bundle = exporter.RenderAll(ctx, report.Result.Header, report.Result.Rows, s.options, formats...)
	delivered, failed := s.deliver(ctx, report)

	return s.finish(ctx, report, notifier.Outcome{
		State:     notifier.StateSuccess,
		Delivered: delivered,
		Failed:    failed,
	}, started), nil
}

// Recent returns rows dated within the last days days. days <= 0 selects
// the configured default. It is read-only and not subject to the
// in-flight guard.
func (s *ExportService) Recent(ctx context.Context, days int) (*RecentReport, error) {
	if days <= 0 {
		days = s.recentDays
	}
	if days > MaxRecentDays {
		return nil, apierrors.NewAppError(apierrors.ErrTypeValidation,
			fmt.Sprintf("days must be between 1 and %d", MaxRecentDays), ErrInvalidInput)
	}

	ctx, span := s.tracer.Start(ctx, "export.recent",
		trace.WithAttributes(attribute.Int("recent.days", days)))
	defer span.End()

	today := feedback.DateOf(s.now())
	report := &RecentReport{Days: days, From: today.AddDays(-days), To: today}

	g, err := s.source.FetchGrid(ctx, s.resourceID, s.rangeSpec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, fetchFailure(err)
	}
	if g.IsEmpty() {
		return report, nil
	}

	res, err := s.filter.Recent(ctx, g, today, days)
	if err != nil {
		var missing []string
		var colErr *feedback.ColumnError
		if errors.As(err, &colErr) {
			missing = colErr.Missing
		}
		span.SetStatus(codes.Error, "schema")
		return nil, apierrors.NewSchemaError(
			notifier.Outcome{State: notifier.StateSchema, Problems: missing}.Message(), err).
			WithContext("missing", missing)
	}
	report.Result = res
	s.recordSkipped(ctx, res.Diagnostics)

	s.logger.DebugContext(ctx, "recent feedback loaded",
		slog.Int("days", days),
		slog.Int("rows", len(res.Rows)),
		slog.Int("examined", res.Diagnostics.Examined))
	return report, nil
}

// validation is what validate found wrong with a submission.
type validation struct {
	problems []string
	// incomplete is set when a required input is absent.
	incomplete bool
	cause      error
}

func (v *validation) missing(label string) {
	v.problems = append(v.problems, label+" is required")
	v.incomplete = true
}

// validate checks the raw submission and returns the criteria with the
// configured spelling of the center.
func (s *ExportService) validate(sub Submission) (feedback.Criteria, validation) {
	var c feedback.Criteria
	v := validation{cause: ErrInvalidInput}

	parseDate := func(label, raw string) feedback.Date {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			v.missing(label)
			return feedback.Date{}
		}
		d, err := feedback.ParseISODate(raw)
		if err != nil {
			v.problems = append(v.problems, label+" must be a date like 2025-01-31")
		}
		return d
	}
	c.Start = parseDate("start date", sub.StartDate)
	c.End = parseDate("end date", sub.EndDate)

	center := strings.TrimSpace(sub.Center)
	switch {
	case center == "":
		v.missing("call center")
	case len(s.centers) == 0:
		c.Center = center
	default:
		for _, known := range s.centers {
			if feedback.NormalizeCenter(known) == feedback.NormalizeCenter(center) {
				c.Center = known
				break
			}
		}
		if c.Center == "" {
			v.problems = append(v.problems, "call center must be one of "+strings.Join(s.centers, ", "))
			v.cause = ErrUnknownCenter
		}
	}
	return c, v
}

// deliver hands the rendered bundle to the configured sinks. It returns
// labels of what reached the operator and of what did not.
func (s *ExportService) deliver(ctx context.Context, r *Report) (delivered, failed []string) {
	b := r.Bundle
	for _, f := range exporter.AllFormats {
		if err, ok := b.Errors[f]; ok {
			s.logger.ErrorContext(ctx, "artifact render failed",
				slog.String("submission_id", r.ID),
				slog.String("format", string(f)),
				slog.String("error", err.Error()))
			failed = append(failed, artifactLabel(f))
		}
	}

	html, hasHTML := b.Get(exporter.FormatHTML)
	text, hasText := b.Get(exporter.FormatText)
	if hasHTML || hasText {
		if len(s.clipboard) == 0 {
			for _, a := range []struct {
				f  exporter.Format
				ok bool
			}{{exporter.FormatHTML, hasHTML}, {exporter.FormatText, hasText}} {
				if a.ok {
					delivered = append(delivered, artifactLabel(a.f))
					s.metrics.RecordDelivered(ctx, string(a.f), "response")
				}
			}
		} else if !hasText {
			s.logger.ErrorContext(ctx, "clipboard skipped, plain text table missing",
				slog.String("submission_id", r.ID))
			failed = append(failed, "clipboard")
		} else {
			res, err := delivery.DeliverClipboard(ctx, html.String(), text.String(), s.clipboard...)
			if err != nil {
				s.logger.WarnContext(ctx, "clipboard delivery failed",
					slog.String("submission_id", r.ID),
					slog.String("error", err.Error()))
				failed = append(failed, "clipboard")
			} else {
				r.Clipboard = &res
				delivered = append(delivered, "clipboard")
				if res.Mode != delivery.ModeHTML {
					s.metrics.RecordDelivered(ctx, string(exporter.FormatText), res.Sink)
				}
				if res.Mode != delivery.ModeText {
					s.metrics.RecordDelivered(ctx, string(exporter.FormatHTML), res.Sink)
				}
			}
		}
	}

	r.FileNames = make(map[exporter.Format]string)
	for _, f := range b.Rendered() {
		if !f.IsFile() {
			continue
		}
		name := exporter.FileName(r.Criteria.Center, r.Criteria.Start, r.Criteria.End, f.Ext())
		r.FileNames[f] = name
		if s.files == nil {
			delivered = append(delivered, name)
			s.metrics.RecordDelivered(ctx, string(f), "response")
			continue
		}
		a, _ := b.Get(f)
		if err := s.files.Save(ctx, a.Data, name, a.MIMEType()); err != nil {
			s.logger.ErrorContext(ctx, "file delivery failed",
				slog.String("submission_id", r.ID),
				slog.String("file", name),
				slog.String("error", err.Error()))
			failed = append(failed, name)
			continue
		}
		delivered = append(delivered, name)
		s.metrics.RecordDelivered(ctx, string(f), s.files.Name())
	}
	return delivered, failed
}

// finish completes the report, notifies and records the terminal state.
func (s *ExportService) finish(ctx context.Context, r *Report, o notifier.Outcome, started time.Time) *Report {
	o.SubmissionID = r.ID
	o.Criteria = r.Criteria
	o.Diagnostics = r.Result.Diagnostics
	o.Count = len(r.Result.Rows)

	r.Outcome = o
	r.CompletedAt = s.now()
	r.Duration = r.CompletedAt.Sub(started)

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("submission.state", string(o.State)),
		attribute.Int("submission.rows", o.Count),
	)
	if o.State == notifier.StateFailure && o.Err != nil {
		span.RecordError(o.Err)
		span.SetStatus(codes.Error, "submission failed")
	}

	s.notifier.Notify(ctx, o)
	s.metrics.RecordSubmission(ctx, string(o.State), o.Count)
	return r
}

func (s *ExportService) recordSkipped(ctx context.Context, d feedback.Diagnostics) {
	s.metrics.RecordSkipped(ctx, string(feedback.SkipUnparseableDate), d.UnparseableDate)
	s.metrics.RecordSkipped(ctx, string(feedback.SkipOutOfRange), d.OutOfRange)
	s.metrics.RecordSkipped(ctx, string(feedback.SkipMissingCenter), d.MissingCenter)
	s.metrics.RecordSkipped(ctx, string(feedback.SkipCenterMismatch), d.CenterMismatch)
}

// fetchFailure classifies a source error: unreadable sheet data is a
// parsing error, anything else a network error.
func fetchFailure(err error) *apierrors.AppError {
	if errors.Is(err, sheets.ErrDecode) {
		return apierrors.NewParsingError("could not read the feedback sheet", err)
	}
	return apierrors.NewNetworkError("could not load feedback", err)
}

// clipboardPair adds the missing half of the clipboard payload: a clipboard
// write always carries the plain text and, where the sink can take it, the
// HTML table.
func clipboardPair(formats []exporter.Format) []exporter.Format {
	hasHTML := slices.Contains(formats, exporter.FormatHTML)
	hasText := slices.Contains(formats, exporter.FormatText)
	switch {
	case hasHTML && !hasText:
		return append(slices.Clone(formats), exporter.FormatText)
	case hasText && !hasHTML:
		return append(slices.Clone(formats), exporter.FormatHTML)
	default:
		return formats
	}
}

func artifactLabel(f exporter.Format) string {
	switch f {
	case exporter.FormatHTML:
		return "HTML table"
	case exporter.FormatText:
		return "plain text"
	case exporter.FormatCSV:
		return "CSV file"
	case exporter.FormatXLSX:
		return "Excel file"
	default:
		return string(f)
	}
}

func pluralRows(n int) string {
	if n == 1 {
		return "row"
	}
	return "rows"
}
