/*
Package datastore defines the document store contract shared by every backend.

A DataStore[T] reads and writes documents of one Go type and executes one page
of a query at a time:

	type DataStore[T storagemodels.Document] interface {
	    storagemodels.QueryExecutor[T]
	    GetOne(ctx context.Context, id, partitionKey string) (*T, error)
	    Put(ctx context.Context, doc T) error
	    Delete(ctx context.Context, id, partitionKey string) error
	    PartitionQuery(partitionKey string, documentType partitionkey.DocumentType, filters ...Filter) storagemodels.Query
	}

Because a DataStore is a QueryExecutor it can be handed straight to
paging.NewQueryResultsIterable. Page-level failures come back as a PageResponse
with a non-2xx StatusCode; only transport failures are returned as errors.

Implementations:
  - memory: in-process store for tests and local runs
  - ddb: DynamoDB (Query API and PartiQL)
  - pg: PostgreSQL via pgx

The decorators package wraps any executor with retries, a circuit breaker,
Prometheus metrics or OpenTelemetry tracing.
*/
package datastore
