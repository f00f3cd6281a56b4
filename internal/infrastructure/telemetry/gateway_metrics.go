package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// GatewayMetrics counts access decisions and contended usage increments.
// It satisfies the application access.Metrics interface.
type GatewayMetrics struct {
	requestsTotal *Counter
	retriesTotal  *Counter
}

// NewGatewayMetrics registers the gateway counters on meter.
func NewGatewayMetrics(meter metric.Meter) (*GatewayMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	requests, err := NewCounter(meter,
		"gateway_requests_total",
		"Access decisions by outcome",
		"{requests}",
	)
	if err != nil {
		return nil, err
	}

	retries, err := NewCounter(meter,
		"gateway_increment_retries_total",
		"Usage increments retried after store contention",
		"{retries}",
	)
	if err != nil {
		return nil, err
	}

	return &GatewayMetrics{requestsTotal: requests, retriesTotal: retries}, nil
}

// RecordDecision counts one access decision.
func (m *GatewayMetrics) RecordDecision(ctx context.Context, outcome, endpoint string) {
	m.requestsTotal.Inc(ctx, AttrOutcome.String(outcome), AttrEndpoint.String(endpoint))
}

// RecordIncrementRetry counts one retried increment.
func (m *GatewayMetrics) RecordIncrementRetry(ctx context.Context) {
	m.retriesTotal.Inc(ctx)
}

// CacheStats is a point-in-time view of the entitlement cache.
type CacheStats struct {
	Entries int64
	Hits    int64
	Misses  int64
}

// RegisterEntitlementCacheMetrics observes the entitlement cache through
// stats on every collection: gateway_entitlement_cache_entries and
// gateway_entitlement_cache_lookups_total{result=hit|miss}.
func RegisterEntitlementCacheMetrics(meter metric.Meter, stats func() CacheStats) (metric.Registration, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	entries, err := meter.Int64ObservableGauge("gateway_entitlement_cache_entries",
		metric.WithDescription("Plans with cached endpoints"),
		metric.WithUnit("{plans}"),
	)
	if err != nil {
		return nil, err
	}
	lookups, err := meter.Int64ObservableCounter("gateway_entitlement_cache_lookups_total",
		metric.WithDescription("Entitlement cache lookups by result"),
		metric.WithUnit("{lookups}"),
	)
	if err != nil {
		return nil, err
	}

	hit := metric.WithAttributes(AttrResult.String("hit"))
	miss := metric.WithAttributes(AttrResult.String("miss"))
	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := stats()
		o.ObserveInt64(entries, s.Entries)
		o.ObserveInt64(lookups, s.Hits, hit)
		o.ObserveInt64(lookups, s.Misses, miss)
		return nil
	}, entries, lookups)
}

// ErrMeterNil is returned when a nil meter is passed to a metrics constructor.
var ErrMeterNil = &MetricsError{Op: "NewGatewayMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
