package sheets

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cxfeedback/internal/grid"
)

// TracerName names the tracer used for fetch spans.
const TracerName = "cxfeedback.sheets"

// FetchObserver records fetch outcomes; infrastructure.Metrics implements it.
type FetchObserver interface {
	ObserveFetch(ctx context.Context, source string, d time.Duration, err error)
}

// Instrumented wraps a Source with a deadline, a "sheets.fetch" span, a
// duration observation and logging. The underlying error is logged here in
// full; callers only need to classify it.
type Instrumented struct {
	Source   Source
	Name     string
	Timeout  time.Duration
	Observer FetchObserver
	Logger   *slog.Logger
	tracer   trace.Tracer
}

// Instrument wraps src. observer and logger may be nil.
func Instrument(src Source, name string, timeout time.Duration, observer FetchObserver, logger *slog.Logger) *Instrumented {
	if logger == nil {
		logger = slog.Default()
	}
	return &Instrumented{
		Source:   src,
		Name:     name,
		Timeout:  timeout,
		Observer: observer,
		Logger:   logger.With(slog.String("component", "sheets"), slog.String("source", name)),
		tracer:   otel.Tracer(TracerName),
	}
}

// FetchGrid implements Source.
func (s *Instrumented) FetchGrid(ctx context.Context, resourceID, rangeSpec string) (grid.Grid, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	ctx, span := s.tracer.Start(ctx, "sheets.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("sheets.source", s.Name),
			attribute.String("sheets.range", rangeSpec),
		),
	)
	defer span.End()

	start := time.Now()
	g, err := s.Source.FetchGrid(ctx, resourceID, rangeSpec)
	elapsed := time.Since(start)

	if s.Observer != nil {
		s.Observer.ObserveFetch(ctx, s.Name, elapsed, err)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		s.Logger.ErrorContext(ctx, "feedback fetch failed",
			slog.String("range", rangeSpec),
			slog.Duration("duration", elapsed),
			slog.String("error", err.Error()),
		)
		return grid.Grid{}, err
	}

	span.SetAttributes(attribute.Int("sheets.rows", len(g.Rows)))
	s.Logger.DebugContext(ctx, "feedback fetched",
		slog.String("range", rangeSpec),
		slog.Int("rows", len(g.Rows)),
		slog.Duration("duration", elapsed),
	)
	return g, nil
}
