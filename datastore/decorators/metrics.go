/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package decorators

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/a11yscan/scanstore/storagemodels"
)

// Collector holds the Prometheus metrics for page requests
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	PageRequests *prometheus.CounterVec
	PageDuration *prometheus.HistogramVec
	ItemsFetched *prometheus.CounterVec
}

// NewCollector creates a metrics collector with its own registry, so several
// collectors can coexist (e.g. in tests) without duplicate registration.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	pageRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_page_requests_total",
			Help:      "Total number of query page requests",
		},
		[]string{"backend", "status"},
	)

	pageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_page_duration_seconds",
			Help:      "Query page request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	itemsFetched := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_items_fetched_total",
			Help:      "Total number of documents returned by successful pages",
		},
		[]string{"backend"},
	)

	registry.MustRegister(pageRequests, pageDuration, itemsFetched)

	return &Collector{
		registry:     registry,
		PageRequests: pageRequests,
		PageDuration: pageDuration,
		ItemsFetched: itemsFetched,
	}
}

// Registry returns the collector's registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's metrics in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// MetricsExecutor records one observation per page request. Transport errors are
// counted with status "error".
type MetricsExecutor[T any] struct {
	inner     storagemodels.QueryExecutor[T]
	collector *Collector
	backend   string
}

// WithMetrics wraps inner; backend labels every series.
func WithMetrics[T any](inner storagemodels.QueryExecutor[T], collector *Collector, backend string) *MetricsExecutor[T] {
	return &MetricsExecutor[T]{inner: inner, collector: collector, backend: backend}
}

// ExecuteQuery implements storagemodels.QueryExecutor.
func (m *MetricsExecutor[T]) ExecuteQuery(ctx context.Context, req storagemodels.QueryRequest) (*storagemodels.PageResponse[T], error) {
	start := time.Now()
	resp, err := m.inner.ExecuteQuery(ctx, req)
	m.collector.PageDuration.WithLabelValues(m.backend).Observe(time.Since(start).Seconds())

	status := "error"
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode)
		if resp.Succeeded() {
			m.collector.ItemsFetched.WithLabelValues(m.backend).Add(float64(len(resp.Items)))
		}
	}
	m.collector.PageRequests.WithLabelValues(m.backend, status).Inc()

	return resp, err
}
