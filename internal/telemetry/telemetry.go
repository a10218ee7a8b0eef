// Package telemetry exports traces and logs over OTLP/HTTP.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"barkeep/internal/config"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Providers holds what Setup installed. The zero value is a disabled setup.
type Providers struct {
	tracer *sdktrace.TracerProvider
	logger *sdklog.LoggerProvider
	// Handler bridges slog into the OTLP log pipeline; nil when disabled.
	Handler slog.Handler
}

// Setup installs global trace and log providers exporting to cfg.Endpoint.
// It returns a disabled Providers when no endpoint is configured.
func Setup(ctx context.Context, cfg config.TelemetryConfig) (*Providers, error) {
	if !cfg.IsEnabled() {
		return &Providers{}, nil
	}
	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))

	traceExporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint+"/v1/traces"))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)

	logExporter, err := otlploghttp.New(ctx, otlploghttp.WithEndpointURL(cfg.Endpoint+"/v1/logs"))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create log exporter: %w", err), tp.Shutdown(ctx))
	}
	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		sdklog.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	global.SetLoggerProvider(lp)

	return &Providers{
		tracer:  tp,
		logger:  lp,
		Handler: otelslog.NewHandler(cfg.ServiceName, otelslog.WithLoggerProvider(lp)),
	}, nil
}

func (p *Providers) Enabled() bool {
	return p.tracer != nil
}

// Shutdown flushes and stops both providers.
func (p *Providers) Shutdown(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	return errors.Join(p.tracer.Shutdown(ctx), p.logger.Shutdown(ctx))
}
