package storage

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "elshaddai.storage"

// Traced wraps a Store with OpenTelemetry spans. Each operation becomes a
// span carrying the key and the error status, so slow or failing backends
// show up in the host application's traces.
type Traced struct {
	inner  Store
	tracer trace.Tracer
}

// TraceOption configures Trace.
type TraceOption func(*tracedConfig)

type tracedConfig struct {
	tracerName string
	provider   trace.TracerProvider
}

// WithTracerName sets the tracer name (default: "elshaddai.storage").
func WithTracerName(name string) TraceOption {
	return func(c *tracedConfig) {
		c.tracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
// Default: the global provider.
func WithTracerProvider(tp trace.TracerProvider) TraceOption {
	return func(c *tracedConfig) {
		c.provider = tp
	}
}

// Trace wraps inner with span creation.
func Trace(inner Store, opts ...TraceOption) *Traced {
	cfg := tracedConfig{tracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&cfg)
	}

	var tracer trace.Tracer
	if cfg.provider != nil {
		tracer = cfg.provider.Tracer(cfg.tracerName)
	} else {
		tracer = otel.Tracer(cfg.tracerName)
	}

	return &Traced{inner: inner, tracer: tracer}
}

func (t *Traced) start(ctx context.Context, op, key string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "store."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("store.key", key)),
	)
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Get implements Store.
func (t *Traced) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := t.start(ctx, "get", key)
	value, ok, err := t.inner.Get(ctx, key)
	span.SetAttributes(attribute.Bool("store.hit", ok))
	finish(span, err)
	return value, ok, err
}

// Set implements Store.
func (t *Traced) Set(ctx context.Context, key string, value []byte) error {
	ctx, span := t.start(ctx, "set", key)
	span.SetAttributes(attribute.Int("store.value_bytes", len(value)))
	err := t.inner.Set(ctx, key, value)
	finish(span, err)
	return err
}

// Delete implements Store.
func (t *Traced) Delete(ctx context.Context, key string) error {
	ctx, span := t.start(ctx, "delete", key)
	err := t.inner.Delete(ctx, key)
	finish(span, err)
	return err
}

// Watch implements Watchable by delegating to the wrapped store.
func (t *Traced) Watch(fn func(Event)) (cancel func()) {
	return Watch(t.inner, fn)
}

// Close implements Store.
func (t *Traced) Close() error {
	return t.inner.Close()
}
