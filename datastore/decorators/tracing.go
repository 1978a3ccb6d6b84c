/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package decorators

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/a11yscan/scanstore/storagemodels"
)

// TracingExecutor opens one span per page request.
type TracingExecutor[T any] struct {
	inner  storagemodels.QueryExecutor[T]
	tracer trace.Tracer
}

// WithTracing wraps inner with tracing.
func WithTracing[T any](inner storagemodels.QueryExecutor[T], tracer trace.Tracer) *TracingExecutor[T] {
	return &TracingExecutor[T]{inner: inner, tracer: tracer}
}

// ExecuteQuery implements storagemodels.QueryExecutor.
func (t *TracingExecutor[T]) ExecuteQuery(ctx context.Context, req storagemodels.QueryRequest) (*storagemodels.PageResponse[T], error) {
	attrs := []attribute.KeyValue{
		attribute.Bool("scanstore.page.continued", req.ContinuationToken != ""),
		attribute.Int("scanstore.page.max_item_count", int(req.MaxItemCount)),
	}
	if req.Query != nil {
		attrs = append(attrs, attribute.String("db.query.text", req.Query.QueryText()))
	}

	ctx, span := t.tracer.Start(ctx, "scanstore.ExecuteQuery", trace.WithAttributes(attrs...))
	defer span.End()

	resp, err := t.inner.ExecuteQuery(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return resp, err
	}
	if resp == nil {
		return resp, err
	}

	span.SetAttributes(
		attribute.Int("scanstore.page.status_code", resp.StatusCode),
		attribute.Int("scanstore.page.items", len(resp.Items)),
		attribute.Bool("scanstore.page.has_more", resp.HasMore()),
	)
	if !resp.Succeeded() {
		span.SetStatus(codes.Error, resp.Diagnostics)
	}
	return resp, err
}
