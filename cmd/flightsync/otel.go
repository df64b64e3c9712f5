package main

import (
	"context"
	"errors"
	"fmt"

	"flightsync/cfg"
	"flightsync/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// TraceLoggerMiddleware logs each request with its trace and span ids when
// the request carries a valid span.
func TraceLoggerMiddleware(log logger.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		fields := []logger.Field{
			{Key: "status", Value: c.Writer.Status()},
			{Key: "method", Value: c.Request.Method},
			{Key: "path", Value: c.Request.URL.Path},
		}

		span := trace.SpanFromContext(c.Request.Context())
		if span.SpanContext().IsValid() {
			fields = append(fields,
				logger.Field{Key: "trace_id", Value: span.SpanContext().TraceID().String()},
				logger.Field{Key: "span_id", Value: span.SpanContext().SpanID().String()},
			)
		}

		log.Info("request completed", fields...)
	}
}

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// flightMetricViews keeps only the low-cardinality labels on the flightsync
// counters so a stray attribute cannot fan out series at the collector.
func flightMetricViews() []metric.View {
	return []metric.View{
		metric.NewView(
			metric.Instrument{Name: "flightsync.*"},
			metric.Stream{AttributeFilter: attribute.NewAllowKeysFilter("kind", "outcome")},
		),
	}
}

// traceSampler samples root spans at ratio and otherwise follows the parent.
func traceSampler(ratio float64) sdktrace.Sampler {
	if ratio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func otelResource(ctx context.Context, config *cfg.ObservabilityConfig) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(version),
			semconv.DeploymentEnvironment(config.Environment),
		),
	)
}

// initOtel exports flightsync traces and metrics to the OTLP collector over
// one gRPC connection. The returned func flushes both providers and closes
// the connection.
func initOtel(ctx context.Context, config *cfg.ObservabilityConfig, log logger.Client) (func(context.Context) error, error) {
	res, err := otelResource(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	conn, err := grpc.NewClient(
		config.OTLPEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to collector: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	metricExporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(traceSampler(config.TraceSampleRatio)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	var readerOpts []metric.PeriodicReaderOption
	if config.MetricInterval > 0 {
		readerOpts = append(readerOpts, metric.WithInterval(config.MetricInterval))
	}
	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(metricExporter, readerOpts...)),
		metric.WithResource(res),
		metric.WithView(flightMetricViews()...),
	)
	otel.SetMeterProvider(mp)

	log.Info("otel exporting to collector",
		logger.Field{Key: "otlp_endpoint", Value: config.OTLPEndpoint},
		logger.Field{Key: "sample_ratio", Value: config.TraceSampleRatio},
		logger.Field{Key: "metric_interval", Value: config.MetricInterval},
	)

	shutdown := func(ctx context.Context) error {
		var errs []error

		if err := tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown failed: %w", err))
		}

		if err := mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown failed: %w", err))
		}

		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("collector connection close failed: %w", err))
		}

		return errors.Join(errs...)
	}

	return shutdown, nil
}
