// Package telemetry provides zero-configuration OpenTelemetry tracing for
// the pipeline, adapted from the teacher framework's pkg/telemetry
// auto-configuration pattern: disabled by default, upgrading to a real
// exporter only when the environment asks for one, so the rest of the
// module never needs a nil check on the tracer.
package telemetry

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Provider bundles the tracer this module uses and its shutdown hook.
type Provider struct {
	TracerProvider *sdktrace.TracerProvider
	Tracer         trace.Tracer
}

// New auto-configures tracing for serviceName. With OTEL_SDK_DISABLED=true
// (or unset OTEL_TRACES_EXPORTER), spans are created against an
// always-on in-process provider with no exporter attached — Start/End
// calls are cheap no-ops from the caller's perspective. Setting
// OTEL_TRACES_EXPORTER=stdout attaches stdouttrace, matching the
// teacher's OTLP-endpoint-gated setupTraceProvider but against the
// exporter actually vendored for this module.
func New(serviceName string) (*Provider, error) {
	if os.Getenv("OTEL_SDK_DISABLED") == "true" {
		tp := sdktrace.NewTracerProvider()
		return &Provider{TracerProvider: tp, Tracer: tp.Tracer(serviceName)}, nil
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("scenegen.component", serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if os.Getenv("OTEL_TRACES_EXPORTER") == "stdout" {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	return &Provider{TracerProvider: tp, Tracer: tp.Tracer(serviceName)}, nil
}

// Shutdown flushes and releases exporter resources.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.TracerProvider == nil {
		return nil
	}
	return p.TracerProvider.Shutdown(ctx)
}

// StartStageSpan starts a span for one pipeline stage run, named
// "stage.<name>" and tagged with the session ID.
func (p *Provider) StartStageSpan(ctx context.Context, stage, sessionID string) (context.Context, trace.Span) {
	return p.Tracer.Start(ctx, "stage."+stage, trace.WithAttributes(
		attribute.String("scenegen.session_id", sessionID),
		attribute.String("scenegen.stage", stage),
	))
}

// StartJobSpan starts a span for one executor job against an external
// client, named "job.<client>".
func (p *Provider) StartJobSpan(ctx context.Context, client, jobID string) (context.Context, trace.Span) {
	return p.Tracer.Start(ctx, "job."+client, trace.WithAttributes(
		attribute.String("scenegen.client", client),
		attribute.String("scenegen.job_id", jobID),
	))
}
