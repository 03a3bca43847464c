package client

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName         = "servex-board/client"
	requestSpanName    = "board.api.request"
	requestEventName   = "board.api.request"
	requestEventDomain = "servex.board"
)

// requestMetrics collects per-call timings and emits one otel span plus one
// structured log event when the request finishes.
type requestMetrics struct {
	logger *log.Logger
	span   trace.Span
	start  time.Time
	method string
	route  string

	encodeDuration time.Duration
	sendDuration   time.Duration
	bytesIn        int
	errorStage     string
}

func newRequestMetrics(ctx context.Context, logger *log.Logger, method, route string) (*requestMetrics, context.Context) {
	m := &requestMetrics{
		logger: logger,
		start:  time.Now(),
		method: method,
		route:  route,
	}
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, requestSpanName,
		trace.WithSpanKind(trace.SpanKindClient))
	m.span = span
	return m, spanCtx
}

func (m *requestMetrics) ObserveEncode(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.encodeDuration = duration
}

func (m *requestMetrics) ObserveSend(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.sendDuration = duration
}

func (m *requestMetrics) SetBytesIn(n int) {
	if n < 0 {
		n = 0
	}
	m.bytesIn = n
}

func (m *requestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *requestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	total := time.Since(m.start)
	severityText, severityNumber := severityForStatus(status, err)

	attrs := []attribute.KeyValue{
		attribute.String("http.method", m.method),
		attribute.String("http.route", m.route),
		attribute.Int("http.status_code", status),
		attribute.Float64("board.api.total_ms", durationToMillis(total)),
	}
	if m.encodeDuration > 0 {
		attrs = append(attrs, attribute.Float64("board.api.encode_ms", durationToMillis(m.encodeDuration)))
	}
	if m.sendDuration > 0 {
		attrs = append(attrs, attribute.Float64("board.api.send_ms", durationToMillis(m.sendDuration)))
	}
	if m.bytesIn > 0 {
		attrs = append(attrs, attribute.Int("board.api.bytes_in", m.bytesIn))
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String("board.api.error_stage", m.errorStage))
	}

	if m.span != nil {
		m.span.SetAttributes(attrs...)
		eventAttrs := append([]attribute.KeyValue{
			attribute.String("event.name", requestEventName),
			attribute.String("event.domain", requestEventDomain),
			attribute.String("severity_text", severityText),
		}, attrs...)
		if err != nil {
			eventAttrs = append(eventAttrs, attribute.String("error.message", err.Error()))
		}
		m.span.AddEvent("observability.event", trace.WithAttributes(eventAttrs...))
		if err != nil {
			m.span.SetStatus(codes.Error, err.Error())
		} else {
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"event.name":      requestEventName,
		"event.domain":    requestEventDomain,
		"http.method":     m.method,
		"http.route":      m.route,
		"status":          status,
		"total_ms":        durationToMillis(total),
		"severity_text":   severityText,
		"severity_number": severityNumber,
	}
	if m.encodeDuration > 0 {
		fields["encode_ms"] = durationToMillis(m.encodeDuration)
	}
	if m.sendDuration > 0 {
		fields["send_ms"] = durationToMillis(m.sendDuration)
	}
	if m.bytesIn > 0 {
		fields["bytes_in"] = m.bytesIn
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.HasTraceID() {
			fields["trace_id"] = sc.TraceID().String()
		}
	}
	m.logger.WithFields(fields).Info("observability.event")
}

func severityForStatus(status int, err error) (string, int) {
	switch {
	case status >= http.StatusInternalServerError:
		return "ERROR", 17
	case status >= http.StatusBadRequest:
		return "WARN", 13
	case err != nil:
		return "ERROR", 17
	default:
		return "INFO", 9
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
