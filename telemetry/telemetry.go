// Package telemetry wires OpenTelemetry traces, metrics and logs to an OTLP
// collector over gRPC. Exporters read the standard OTEL_* environment
// variables.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const EnvEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"

// Enabled reports whether an OTLP endpoint is configured.
func Enabled() bool {
	return os.Getenv(EnvEndpoint) != ""
}

// Setup installs global tracer, meter and logger providers exporting over
// OTLP/gRPC. The returned shutdown flushes and stops all of them.
func Setup(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	var chain shutdownChain

	res, err := resource.New(ctx,
		resource.WithAttributes(attribute.String("service.name", serviceName)),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return chain.shutdown, chain.abort(ctx, err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	traceExporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		return chain.shutdown, chain.abort(ctx, err)
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	chain = append(chain, tracerProvider.Shutdown)
	otel.SetTracerProvider(tracerProvider)

	metricExporter, err := otlpmetricgrpc.New(ctx)
	if err != nil {
		return chain.shutdown, chain.abort(ctx, err)
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	chain = append(chain, meterProvider.Shutdown)
	otel.SetMeterProvider(meterProvider)

	logExporter, err := otlploggrpc.New(ctx)
	if err != nil {
		return chain.shutdown, chain.abort(ctx, err)
	}
	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		sdklog.WithResource(res),
	)
	chain = append(chain, loggerProvider.Shutdown)
	global.SetLoggerProvider(loggerProvider)

	return chain.shutdown, nil
}

// shutdownChain stops providers in the order they were started.
type shutdownChain []func(context.Context) error

func (chain *shutdownChain) shutdown(ctx context.Context) error {
	var err error
	for _, fn := range *chain {
		err = errors.Join(err, fn(ctx))
	}
	*chain = nil
	return err
}

// abort stops whatever was started after a setup step failed with cause.
func (chain *shutdownChain) abort(ctx context.Context, cause error) error {
	return errors.Join(cause, chain.shutdown(ctx))
}

// NewLogger returns a logger feeding the OTel log pipeline when telemetry is
// enabled, and a text logger on stderr otherwise.
func NewLogger(name string, level slog.Level) *slog.Logger {
	if Enabled() {
		return otelslog.NewLogger(name)
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
