package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability holds the OpenTelemetry instruments for aggregation runs.
// The zero value is usable and records nothing.
type Observability struct {
	meterProvider *metric.MeterProvider
	runCounter    otelmetric.Int64Counter
	runDuration   otelmetric.Float64Histogram
}

// New registers a prometheus-backed meter provider as the global provider.
func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return &Observability{}, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	return newWithProvider(provider, serviceName)
}

func newWithProvider(provider *metric.MeterProvider, serviceName string) (*Observability, error) {
	meter := provider.Meter(serviceName)

	runCounter, err := meter.Int64Counter(
		"aggregator.runs",
		otelmetric.WithDescription("Number of paginated aggregation runs"),
	)
	if err != nil {
		return &Observability{meterProvider: provider}, err
	}

	runDuration, err := meter.Float64Histogram(
		"aggregator.duration",
		otelmetric.WithDescription("Paginated aggregation duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return &Observability{meterProvider: provider}, err
	}

	return &Observability{
		meterProvider: provider,
		runCounter:    runCounter,
		runDuration:   runDuration,
	}, nil
}

// RecordAggregation records one aggregation run with its terminal status.
func (o *Observability) RecordAggregation(ctx context.Context, status string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("status", status))
	if o.runCounter != nil {
		o.runCounter.Add(ctx, 1, attrs)
	}
	if o.runDuration != nil {
		o.runDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.Shutdown(ctx)
}
