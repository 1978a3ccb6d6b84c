/*
Package decorators wraps a storagemodels.QueryExecutor with cross-cutting behaviour.
Each decorator is itself a QueryExecutor, so they compose and can be handed to
paging.NewQueryResultsIterable in place of the store:

	executor := decorators.WithTracing(
	    decorators.WithMetrics(
	        decorators.WithRetry(store, decorators.DefaultRetryConfig()),
	        collector, "dynamodb"),
	    otel.Tracer("scanstore"))

	results := paging.NewQueryResultsIterable[storagemodels.Page](executor, query)

Decorators act per page request. The iterator never retries on its own, so
resilience is opt-in at this layer.
*/
package decorators
