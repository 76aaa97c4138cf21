package observability

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// TracingConfig selects the trace sinks spans are forwarded to.
// Configuration is explicit; no environment variables are consulted.
// A zero-value config enables no sinks, which is a valid no-op setup.
type TracingConfig struct {
	// ServiceName identifies this process in trace backends.
	ServiceName string `json:"service_name" yaml:"service_name"`

	// OTLPEnabled forwards spans to an OTLP gRPC collector.
	OTLPEnabled bool `json:"otlp_enabled" yaml:"otlp_enabled"`

	// OTLPEndpoint is the collector endpoint (host:port).
	OTLPEndpoint string `json:"otlp_endpoint" yaml:"otlp_endpoint"`

	// OTLPInsecure disables TLS for the collector connection.
	OTLPInsecure bool `json:"otlp_insecure" yaml:"otlp_insecure"`

	// StdoutEnabled writes spans to StdoutWriter as JSON.
	StdoutEnabled bool `json:"stdout_enabled" yaml:"stdout_enabled"`

	// StdoutWriter receives stdout spans. Defaults to os.Stdout.
	StdoutWriter io.Writer `json:"-" yaml:"-"`
}

// InitTracing builds a tracer provider with the configured exporters and
// installs it as the global OTel provider.
//
// Returns a shutdown function that flushes and releases the provider;
// it must be called on exit. With no sinks enabled, the returned shutdown
// is a no-op and the global provider is left untouched.
func InitTracing(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	var exporters []sdktrace.SpanExporter

	if cfg.OTLPEnabled {
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}
		exporters = append(exporters, exp)
	}

	if cfg.StdoutEnabled {
		var opts []stdouttrace.Option
		if cfg.StdoutWriter != nil {
			opts = append(opts, stdouttrace.WithWriter(cfg.StdoutWriter))
		}
		exp, err := stdouttrace.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
		exporters = append(exporters, exp)
	}

	// No configured sink is a no-op, never an error.
	if len(exporters) == 0 {
		return func(context.Context) error { return nil }, nil
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "gridiron"
	}
	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", serviceName),
	)

	providerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
	}
	for _, exp := range exporters {
		providerOpts = append(providerOpts, sdktrace.WithBatcher(exp))
	}

	tp := sdktrace.NewTracerProvider(providerOpts...)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
