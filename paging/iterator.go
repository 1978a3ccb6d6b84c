/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package paging

import (
	"context"
	"fmt"
	"time"

	"github.com/a11yscan/scanstore/errors"
	"github.com/a11yscan/scanstore/storagemodels"
	"go.uber.org/zap"
)

// Iterator is a single cursor over a query's results. It buffers at most one page
// and issues a request only when the buffer is drained and the previous page carried
// a continuation token. An Iterator must not be shared between goroutines.
//
//	it := iterable.Iterator()
//	for it.Next(ctx) {
//	    use(it.Item())
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator[T any] struct {
	executor storagemodels.QueryExecutor[T]
	query    storagemodels.Query
	options  Options

	page              []T
	index             int
	current           T
	continuationToken string
	started           bool
	exhausted         bool
	err               error

	pagesFetched int
	itemsFetched int64
	startTime    time.Time
}

// Next advances to the next item, fetching the next page when needed.
// It returns false when the result set is exhausted or a fetch failed; check Err.
func (it *Iterator[T]) Next(ctx context.Context) bool {
	if it.err != nil || it.exhausted {
		return false
	}

	// Pages may legitimately be empty while still carrying a token, so keep
	// fetching until an item shows up or the token runs out.
	for it.index >= len(it.page) {
		if it.started && it.continuationToken == "" {
			it.exhausted = true
			it.page = nil
			return false
		}
		if err := it.fetchPage(ctx); err != nil {
			it.err = err
			it.page = nil
			return false
		}
	}

	it.current = it.page[it.index]
	it.index++
	return true
}

// Item returns the item Next advanced to.
func (it *Iterator[T]) Item() T {
	return it.current
}

// Err returns the error that stopped iteration, if any.
func (it *Iterator[T]) Err() error {
	return it.err
}

// PagesFetched returns how many pages this iterator has requested successfully.
func (it *Iterator[T]) PagesFetched() int {
	return it.pagesFetched
}

// ContinuationToken returns the token that will be used for the next page request.
func (it *Iterator[T]) ContinuationToken() string {
	return it.continuationToken
}

func (it *Iterator[T]) fetchPage(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("query iteration cancelled before page %d: %w", it.pagesFetched+1, err)
	}

	if !it.started {
		it.startTime = time.Now()
	}

	req := storagemodels.QueryRequest{
		Query:             it.query,
		ContinuationToken: it.continuationToken,
		MaxItemCount:      it.options.MaxItemCount,
	}

	resp, err := it.executor.ExecuteQuery(ctx, req)
	it.started = true
	if err != nil {
		return fmt.Errorf("failed to fetch page %d: %w", it.pagesFetched+1, err)
	}
	if resp == nil {
		return fmt.Errorf("failed to fetch page %d: executor returned no response", it.pagesFetched+1)
	}
	if !resp.Succeeded() {
		return fmt.Errorf("page %d: %w", it.pagesFetched+1, errors.NewQueryExecutionError(resp.StatusCode, resp.Diagnostics))
	}

	it.page = resp.Items
	it.index = 0
	it.continuationToken = resp.ContinuationToken
	it.pagesFetched++
	it.itemsFetched += int64(len(resp.Items))

	it.options.Logger.Debug("fetched query page",
		zap.String("query", it.query.QueryText()),
		zap.Int("page", it.pagesFetched),
		zap.Int("items", len(resp.Items)),
		zap.Bool("hasMore", resp.HasMore()),
	)

	it.reportProgress()
	return nil
}

func (it *Iterator[T]) reportProgress() {
	if it.options.ProgressHandler == nil {
		return
	}

	progress := storagemodels.StreamProgress{
		ItemsProcessed:    it.itemsFetched,
		PagesProcessed:    it.pagesFetched,
		ContinuationToken: it.continuationToken,
		StartTime:         it.startTime,
	}

	elapsed := time.Since(it.startTime).Seconds()
	if elapsed > 0 {
		progress.CurrentRate = float64(progress.ItemsProcessed) / elapsed
	}

	it.options.ProgressHandler(progress)
}
