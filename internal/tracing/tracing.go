// Package tracing installs the OpenTelemetry tracer provider used by the
// session start spans.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/zjrosen/mob/internal/config"
	"github.com/zjrosen/mob/internal/log"
	"github.com/zjrosen/mob/internal/paths"
)

// ShutdownFunc flushes and stops the provider.
type ShutdownFunc func(context.Context) error

func noop(context.Context) error { return nil }

// Setup installs a global tracer provider for cfg. With no exporter the
// global no-op provider stays in place.
func Setup(ctx context.Context, cfg config.TracingConfig, dataDir, version string) (ShutdownFunc, error) {
	if err := config.ValidateTracing(cfg); err != nil {
		return noop, err
	}

	var (
		exporter sdktrace.SpanExporter
		closeOut func() error
		err      error
	)
	switch cfg.Exporter {
	case "", config.ExporterNone:
		return noop, nil

	case config.ExporterStdout:
		path := cfg.File
		if path == "" {
			path = paths.TraceFile(dataDir)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return noop, fmt.Errorf("creating trace directory: %w", err)
		}
		f, ferr := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) //nolint:gosec // path comes from config
		if ferr != nil {
			return noop, fmt.Errorf("opening trace file: %w", ferr)
		}
		closeOut = f.Close
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(f))
		log.Debug(log.CatConfig, "tracing to file", "path", path)

	case config.ExporterOTLP:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
		log.Debug(log.CatConfig, "tracing to collector", "endpoint", cfg.Endpoint)
	}
	if err != nil {
		if closeOut != nil {
			_ = closeOut()
		}
		return noop, fmt.Errorf("creating %s exporter: %w", cfg.Exporter, err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", "mob"),
		attribute.String("service.version", version),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if closeOut != nil {
			err = errors.Join(err, closeOut())
		}
		return err
	}, nil
}
