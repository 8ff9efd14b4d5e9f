package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the application instruments. A nil *Metrics is valid and
// records nothing, which keeps tests and the CLI free of telemetry setup.
type Metrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	SubmissionsTotal    metric.Int64Counter
	SubmissionsInFlight metric.Int64UpDownCounter
	RowsExported        metric.Int64Counter
	RowsSkipped         metric.Int64Counter
	FetchDuration       metric.Float64Histogram
	ArtifactsDelivered  metric.Int64Counter

	WebSocketClients  metric.Int64UpDownCounter
	WebSocketMessages metric.Int64Counter
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	); err != nil {
		return nil, err
	}
	if m.SubmissionsTotal, err = meter.Int64Counter(
		"feedback_submissions_total",
		metric.WithDescription("Export submissions by terminal state"),
	); err != nil {
		return nil, err
	}
	if m.SubmissionsInFlight, err = meter.Int64UpDownCounter(
		"feedback_submissions_in_flight",
		metric.WithDescription("Export submissions currently running"),
	); err != nil {
		return nil, err
	}
	if m.RowsExported, err = meter.Int64Counter(
		"feedback_rows_exported_total",
		metric.WithDescription("Rows included in successful exports"),
	); err != nil {
		return nil, err
	}
	if m.RowsSkipped, err = meter.Int64Counter(
		"feedback_rows_skipped_total",
		metric.WithDescription("Rows left out of an export, by reason"),
	); err != nil {
		return nil, err
	}
	if m.FetchDuration, err = meter.Float64Histogram(
		"feedback_fetch_duration_seconds",
		metric.WithDescription("Time spent fetching the feedback grid"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.ArtifactsDelivered, err = meter.Int64Counter(
		"feedback_artifacts_delivered_total",
		metric.WithDescription("Artifacts handed to a sink, by format"),
	); err != nil {
		return nil, err
	}
	if m.WebSocketClients, err = meter.Int64UpDownCounter(
		"websocket_active_connections",
		metric.WithDescription("Connected websocket status clients"),
	); err != nil {
		return nil, err
	}
	if m.WebSocketMessages, err = meter.Int64Counter(
		"websocket_messages_total",
		metric.WithDescription("Websocket messages by direction and outcome"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

// ObserveFetch records one source fetch.
func (m *Metrics) ObserveFetch(ctx context.Context, source string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.FetchDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", status),
	))
}

// RecordSubmission counts a finished submission in its terminal state.
func (m *Metrics) RecordSubmission(ctx context.Context, state string, exported int) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state)))
	if exported > 0 {
		m.RowsExported.Add(ctx, int64(exported))
	}
}

// RecordSkipped counts rows dropped for reason.
func (m *Metrics) RecordSkipped(ctx context.Context, reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RowsSkipped.Add(ctx, int64(n), metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordDelivered counts an artifact handed to a sink.
func (m *Metrics) RecordDelivered(ctx context.Context, format, sink string) {
	if m == nil {
		return
	}
	m.ArtifactsDelivered.Add(ctx, 1, metric.WithAttributes(
		attribute.String("format", format),
		attribute.String("sink", sink),
	))
}

// InFlight adjusts the running-submissions gauge.
func (m *Metrics) InFlight(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.SubmissionsInFlight.Add(ctx, delta)
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status_code", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, d.Seconds(), attrs)
}

// ActiveRequests adjusts the in-progress HTTP request gauge.
func (m *Metrics) ActiveRequests(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.HTTPActiveRequests.Add(ctx, delta)
}

// WebSocketClientsChanged adjusts the connected websocket client gauge.
func (m *Metrics) WebSocketClientsChanged(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.WebSocketClients.Add(ctx, delta)
}

// WebSocketMessage counts one websocket message. direction is "sent" or
// "received"; outcome is "ok" or "dropped".
func (m *Metrics) WebSocketMessage(ctx context.Context, direction, outcome string) {
	if m == nil {
		return
	}
	m.WebSocketMessages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("direction", direction),
		attribute.String("outcome", outcome),
	))
}
