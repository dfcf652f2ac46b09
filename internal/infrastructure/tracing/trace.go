package tracing

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/shared/id"
)

// Propagation headers
const (
	HeaderTraceID = "X-Trace-ID"
	HeaderSpanID  = "X-Span-ID"
)

const spanBuffer = 1000

// TraceID identifies one request across its spans
type TraceID string

// SpanID identifies one operation
type SpanID string

// Span is one timed operation. It is owned by the goroutine that started it
// until it is finished.
type Span struct {
	TraceID  TraceID
	SpanID   SpanID
	ParentID SpanID
	Name     string
	Start    time.Time
	Duration time.Duration
	Status   int
	Err      error
	fields   []zap.Field
}

// Annotate attaches fields that are logged with the span
func (s *Span) Annotate(fields ...zap.Field) {
	s.fields = append(s.fields, fields...)
}

// Fail marks the span as failed
func (s *Span) Fail(err error) {
	s.Err = err
}

type spanContext struct {
	trace TraceID
	span  SpanID
}

type contextKey struct{}

// WithRemoteParent returns ctx carrying a trace started by a caller, such as
// the editor sending X-Trace-ID. Empty IDs are ignored.
func WithRemoteParent(ctx context.Context, trace TraceID, parent SpanID) context.Context {
	if trace == "" {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, spanContext{trace: trace, span: parent})
}

// FromContext returns the current trace and span, if any
func FromContext(ctx context.Context) (TraceID, SpanID) {
	sc, _ := ctx.Value(contextKey{}).(spanContext)
	return sc.trace, sc.span
}

// Tracer logs finished spans through zap from a background collector
type Tracer struct {
	service string
	logger  *zap.Logger
	spans   chan *Span
	done    chan struct{}

	mu      sync.RWMutex
	closed  bool // Protected by mu
	dropped atomic.Uint64
}

// New creates a tracer and starts its collector
func New(service string, logger *zap.Logger) *Tracer {
	t := &Tracer{
		service: service,
		logger:  logger.Named("trace"),
		spans:   make(chan *Span, spanBuffer),
		done:    make(chan struct{}),
	}
	go t.collect()
	return t
}

// StartSpan opens a span under the span carried by ctx, or a new trace
func (t *Tracer) StartSpan(ctx context.Context, name string) (*Span, context.Context) {
	traceID, parent := FromContext(ctx)
	if traceID == "" {
		traceID = TraceID(id.NewRequestID())
	}

	span := &Span{
		TraceID:  traceID,
		SpanID:   SpanID(id.NewRequestID()),
		ParentID: parent,
		Name:     name,
		Start:    time.Now(),
	}
	return span, context.WithValue(ctx, contextKey{}, spanContext{trace: traceID, span: span.SpanID})
}

// Finish records the span duration and hands it to the collector. Spans
// finished after Close, or while the buffer is full, are counted as dropped.
func (t *Tracer) Finish(span *Span) {
	span.Duration = time.Since(span.Start)

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		t.dropped.Add(1)
		return
	}
	select {
	case t.spans <- span:
	default:
		t.dropped.Add(1)
	}
}

// Trace runs fn inside a child span of ctx
func (t *Tracer) Trace(ctx context.Context, name string, fn func(ctx context.Context) error, fields ...zap.Field) error {
	span, ctx := t.StartSpan(ctx, name)
	span.Annotate(fields...)
	err := fn(ctx)
	if err != nil {
		span.Fail(err)
	}
	t.Finish(span)
	return err
}

// Dropped returns the number of spans that were never logged
func (t *Tracer) Dropped() uint64 {
	return t.dropped.Load()
}

// Close flushes pending spans and stops the collector
func (t *Tracer) Close() {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.spans)
	}
	t.mu.Unlock()
	<-t.done
}

func (t *Tracer) collect() {
	defer close(t.done)
	for span := range t.spans {
		t.log(span)
	}
}

func (t *Tracer) log(span *Span) {
	fields := append([]zap.Field{
		zap.String("service", t.service),
		zap.String("trace_id", string(span.TraceID)),
		zap.String("span_id", string(span.SpanID)),
		zap.String("operation", span.Name),
		zap.Duration("duration", span.Duration),
	}, span.fields...)

	if span.ParentID != "" {
		fields = append(fields, zap.String("parent_id", string(span.ParentID)))
	}
	if span.Status != 0 {
		fields = append(fields, zap.Int("status", span.Status))
	}

	if span.Err != nil {
		t.logger.Warn("span failed", append(fields, zap.Error(span.Err))...)
		return
	}
	t.logger.Debug("span finished", fields...)
}
