/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package paging

import (
	"context"
	"time"

	"github.com/a11yscan/scanstore/storagemodels"
)

// Stream delivers the results over an unbuffered channel, closed when the result set
// is exhausted, a page fetch fails, or ctx is cancelled. A failure is delivered as a
// final StreamResult with Error set. Consumers that stop reading early must cancel ctx.
func (q *QueryResultsIterable[T]) Stream(ctx context.Context) <-chan storagemodels.StreamResult[T] {
	resultCh := make(chan storagemodels.StreamResult[T])

	go q.streamWorker(ctx, resultCh)

	return resultCh
}

// streamWorker walks one iterator and forwards its items
func (q *QueryResultsIterable[T]) streamWorker(ctx context.Context, resultCh chan<- storagemodels.StreamResult[T]) {
	defer close(resultCh)

	it := q.Iterator()
	var index int64

	for it.Next(ctx) {
		result := storagemodels.StreamResult[T]{
			Item: it.Item(),
			Meta: storagemodels.StreamMeta{
				Index:      index,
				PageNumber: it.PagesFetched(),
				Timestamp:  time.Now(),
			},
		}

		select {
		case <-ctx.Done():
			return
		case resultCh <- result:
		}
		index++
	}

	if err := it.Err(); err != nil {
		select {
		case <-ctx.Done():
		case resultCh <- storagemodels.StreamResult[T]{
			Error: err,
			Meta: storagemodels.StreamMeta{
				Index:      index,
				PageNumber: it.PagesFetched(),
				Timestamp:  time.Now(),
			},
		}:
		}
	}
}
