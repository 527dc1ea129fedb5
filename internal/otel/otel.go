// Package otel wires the cache's eventbus events into OpenTelemetry spans.
package otel

import (
	"context"
	"sync"

	eventbus "github.com/hanpama/normcache/internal/eventbus"
	events "github.com/hanpama/normcache/internal/events"
	reqid "github.com/hanpama/normcache/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// Setup configures OpenTelemetry and attaches eventbus subscribers that
// turn transaction/publish events into spans. If endpoint is empty, no
// telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithInsecure()))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	sub := &subscriber{tracer: otel.Tracer("normcache")}
	sub.register()

	return tp.Shutdown, nil
}

type subscriber struct {
	tracer   trace.Tracer
	txSpans  sync.Map // rid -> trace.Span, the enclosing transaction
	pubSpans sync.Map // rid -> trace.Span, a Store.Publish call (each mints its own rid)
}

func (s *subscriber) register() {
	eventbus.Subscribe(func(ctx context.Context, e events.TransactionStart) {
		rid, _ := reqid.FromContext(ctx)
		name := "cache.read_transaction"
		if e.ReadWrite {
			name = "cache.read_write_transaction"
		}
		_, span := s.tracer.Start(ctx, name)
		s.txSpans.Store(rid, span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.TransactionFinish) {
		rid, _ := reqid.FromContext(ctx)
		v, ok := s.txSpans.LoadAndDelete(rid)
		if !ok {
			return
		}
		span := v.(trace.Span)
		span.SetAttributes(attribute.Bool("cache.read_write", e.ReadWrite))
		if e.Err != nil {
			span.RecordError(e.Err)
		}
		span.End()
	})

	eventbus.Subscribe(func(ctx context.Context, e events.PublishStart) {
		rid, _ := reqid.FromContext(ctx)
		parent := ctx
		if v, ok := s.txSpans.Load(rid); ok {
			parent = trace.ContextWithSpan(ctx, v.(trace.Span))
		}
		_, span := s.tracer.Start(parent, "cache.publish")
		span.SetAttributes(attribute.String("cache.identifier", e.Identifier))
		s.pubSpans.Store(rid, span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.PublishFinish) {
		rid, _ := reqid.FromContext(ctx)
		v, ok := s.pubSpans.LoadAndDelete(rid)
		if !ok {
			return
		}
		span := v.(trace.Span)
		span.SetAttributes(attribute.Int("cache.changed_keys", e.Changed))
		if e.Err != nil {
			span.RecordError(e.Err)
		}
		span.End()
	})
}
