package store

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "storefront-store"

type storeMetrics struct {
	store      string
	operations metric.Int64Counter
	discarded  metric.Int64Counter
}

func newStoreMetrics(store string) *storeMetrics {
	meter := otel.Meter(meterName)
	operations, err := meter.Int64Counter("store_operations", metric.WithDescription("Store operations by outcome"))
	if err != nil {
		panic(fmt.Sprintf("failed to create store_operations counter: %v", err))
	}
	discarded, err := meter.Int64Counter("store_stale_responses", metric.WithDescription("Fetch results discarded because a newer request superseded them"))
	if err != nil {
		panic(fmt.Sprintf("failed to create store_stale_responses counter: %v", err))
	}
	return &storeMetrics{store: store, operations: operations, discarded: discarded}
}

func (m *storeMetrics) record(ctx context.Context, op string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("store", m.store),
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	))
}

func (m *storeMetrics) stale(ctx context.Context, op string) {
	m.discarded.Add(ctx, 1, metric.WithAttributes(
		attribute.String("store", m.store),
		attribute.String("operation", op),
	))
}
