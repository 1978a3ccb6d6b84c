/*
Package paging turns a server-paginated query into a single lazy sequence.

A QueryResultsIterable pairs a storagemodels.QueryExecutor with a query. Each
iteration starts from the first page and follows continuation tokens until the
backend returns a page without one:

	results := paging.NewQueryResultsIterable[storagemodels.Page](store, query,
	    paging.WithMaxItemCount(100),
	)

	for page, err := range results.All(ctx) {
	    if err != nil {
	        return err
	    }
	    ...
	}

Guarantees:
  - items come out in store order, with no reordering or deduplication
  - at most one page is buffered and at most one request is in flight per iteration
  - an empty page that still carries a token does not end the sequence
  - a non-2xx page fails the pull that needed it with an errors.QueryExecutionError;
    items from earlier pages have already been delivered
  - nothing is retried here; wrap the executor (see datastore/decorators) for that
*/
package paging
