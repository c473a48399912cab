package otelcol

import (
	"context"

	"snapbounty-platform/pkg/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/fx"
)

var Module = fx.Module("otelcol",
	fx.Provide(
		ProvideResource,
		ProvideExporter,
		ProvideTrace,
		ProvideMetric,
	),
	fx.Invoke(SetGlobals),
)

func ProvideResource(cfg *config.Config) *resource.Resource {
	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.AppName),
			semconv.ServiceVersion(cfg.AppVersion),
			semconv.DeploymentEnvironment(cfg.AppEnv),
		),
	)
	if err != nil {
		return resource.Default()
	}
	return r
}

func ProvideExporter(lc fx.Lifecycle, cfg *config.Config) (trace.SpanExporter, error) {
	exporter, err := otlptracehttp.New(
		context.Background(),
		otlptracehttp.WithEndpoint(cfg.Otel.Addr),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return exporter.Shutdown(ctx)
		},
	})

	return exporter, nil
}

func ProvideTrace(r *resource.Resource, exporter trace.SpanExporter) *trace.TracerProvider {
	return trace.NewTracerProvider(
		trace.WithResource(r),
		trace.WithBatcher(exporter),
	)
}

func ProvideMetric(r *resource.Resource) *metric.MeterProvider {
	return metric.NewMeterProvider(
		metric.WithResource(r),
	)
}

func SetGlobals(tp *trace.TracerProvider, mp *metric.MeterProvider) {
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
}
