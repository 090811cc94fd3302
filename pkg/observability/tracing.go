// Package observability provides OpenTelemetry tracing for Strata.
//
// Core block operations are synchronous and context-free, so spans are
// opened by callers such as the CLI around whole phases:
//
//	provider, err := observability.Init(observability.TracingConfig{
//	    ServiceName:  "strata",
//	    Enabled:      true,
//	    SamplingRate: 1,
//	})
//	defer provider.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, "truncate")
//	defer span.End()
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ajitpratap0/strata/pkg/config"
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/metrics"
)

var (
	mu     sync.RWMutex
	tracer trace.Tracer = noop.NewTracerProvider().Tracer("strata")
)

// TracingConfig contains tracing configuration
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Enabled        bool
	SamplingRate   float64
	// Writer receives exported spans; stdout when nil
	Writer io.Writer
	// PrettyPrint indents exported spans
	PrettyPrint bool
}

// TracingConfigFrom maps the observability section of the configuration.
func TracingConfigFrom(cfg config.ObservabilityConfig, version string) TracingConfig {
	return TracingConfig{
		ServiceName:    "strata",
		ServiceVersion: version,
		Enabled:        cfg.EnableTracing,
		SamplingRate:   cfg.TracingSampleRate,
	}
}

// Provider owns the installed tracer provider.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// Shutdown flushes pending spans and stops the exporter. It is a no-op when
// tracing is disabled.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	if err := p.tp.Shutdown(ctx); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "failed to shut down tracer provider")
	}
	return nil
}

// Init installs the global tracer. With tracing disabled every span is a
// no-op.
func Init(cfg TracingConfig) (*Provider, error) {
	if !cfg.Enabled {
		setTracer(noop.NewTracerProvider().Tracer(cfg.ServiceName))
		return &Provider{}, nil
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create resource")
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	opts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
	if cfg.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create stdout exporter")
	}

	// Configure sampling
	var sampler sdktrace.Sampler
	switch {
	case cfg.SamplingRate <= 0:
		sampler = sdktrace.NeverSample()
	case cfg.SamplingRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SamplingRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	setTracer(tp.Tracer(cfg.ServiceName))
	return &Provider{tp: tp}, nil
}

func setTracer(t trace.Tracer) {
	mu.Lock()
	defer mu.Unlock()
	tracer = t
}

// Tracer returns the global tracer
func Tracer() trace.Tracer {
	mu.RLock()
	defer mu.RUnlock()
	return tracer
}

// Span wraps a trace span and records its duration as an operation latency.
type Span struct {
	span       trace.Span
	name       string
	startTime  time.Time
	attributes []attribute.KeyValue
}

// StartSpan starts a span named after an operation.
func StartSpan(ctx context.Context, operation string) (context.Context, *Span) {
	ctx, span := Tracer().Start(ctx, operation)
	return ctx, &Span{
		span:      span,
		name:      operation,
		startTime: time.Now(),
	}
}

// SetAttribute adds an attribute to the span. Attributes are flushed on End.
func (s *Span) SetAttribute(key string, value interface{}) {
	var attr attribute.KeyValue

	switch v := value.(type) {
	case string:
		attr = attribute.String(key, v)
	case int:
		attr = attribute.Int(key, v)
	case int64:
		attr = attribute.Int64(key, v)
	case float64:
		attr = attribute.Float64(key, v)
	case bool:
		attr = attribute.Bool(key, v)
	default:
		attr = attribute.String(key, fmt.Sprintf("%v", v))
	}

	s.attributes = append(s.attributes, attr)
}

// AddEvent adds an event to the span
func (s *Span) AddEvent(name string, attrs ...attribute.KeyValue) {
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordError marks the span failed. A nil err marks it ok.
func (s *Span) RecordError(err error) {
	if err == nil {
		s.span.SetStatus(codes.Ok, "")
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
	s.attributes = append(s.attributes, attribute.String("error.type", string(errors.TypeOf(err))))
}

// End ends the span and records its duration.
func (s *Span) End() {
	if len(s.attributes) > 0 {
		s.span.SetAttributes(s.attributes...)
	}
	metrics.OperationLatency.WithLabelValues(s.name).Observe(float64(time.Since(s.startTime).Nanoseconds()))
	s.span.End()
}

// Trace runs fn inside a span and records its error.
func Trace(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, span := StartSpan(ctx, operation)
	defer span.End()

	err := fn(ctx)
	span.RecordError(err)
	return err
}
