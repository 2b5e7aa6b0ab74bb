package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/lembar-pintar/studio/internal/platform/observability"

// ListingMetrics counts listing requests and the number of items served.
type ListingMetrics struct {
	requests metric.Int64Counter
	items    metric.Int64Histogram
}

// NewListingMetrics registers the instruments on meter. A nil meter uses the global provider.
func NewListingMetrics(meter metric.Meter) (*ListingMetrics, error) {
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(meterName)
	}
	requests, err := meter.Int64Counter("listing.requests",
		metric.WithDescription("Listing requests served per resource"))
	if err != nil {
		return nil, err
	}
	items, err := meter.Int64Histogram("listing.page_items",
		metric.WithDescription("Items returned per listing page"))
	if err != nil {
		return nil, err
	}
	return &ListingMetrics{requests: requests, items: items}, nil
}

// Record notes one served page. Safe on a nil receiver.
func (m *ListingMetrics) Record(ctx context.Context, resource string, filtered bool, items int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("resource", resource),
		attribute.Bool("filtered", filtered),
	)
	m.requests.Add(ctx, 1, attrs)
	m.items.Record(ctx, int64(items), attrs)
}
