/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package paging

import (
	"context"
	"iter"

	"github.com/a11yscan/scanstore/storagemodels"
	"go.uber.org/zap"
)

// QueryResultsIterable exposes every result of a query as one lazy sequence.
// It keeps no iteration state itself: each Iterator, All, Collect or Stream call
// starts a fresh pagination cycle from the first page.
type QueryResultsIterable[T any] struct {
	executor storagemodels.QueryExecutor[T]
	query    storagemodels.Query
	options  Options
}

// Options configures a QueryResultsIterable.
type Options struct {
	MaxItemCount    int32                              // Page-size hint passed with every request (default: 0, backend decides)
	ProgressHandler func(storagemodels.StreamProgress) // Optional callback after every fetched page
	Logger          *zap.Logger                        // Debug logging of page fetches (default: no-op)
}

// Option is a functional option for configuring an iterable
type Option func(*Options)

// DefaultOptions returns default paging options
func DefaultOptions() Options {
	return Options{
		Logger: zap.NewNop(),
	}
}

// WithMaxItemCount sets the page-size hint
func WithMaxItemCount(n int32) Option {
	return func(opts *Options) {
		opts.MaxItemCount = n
	}
}

// WithProgressHandler sets a progress callback
func WithProgressHandler(handler func(storagemodels.StreamProgress)) Option {
	return func(opts *Options) {
		opts.ProgressHandler = handler
	}
}

// WithLogger sets the logger used for page fetches
func WithLogger(logger *zap.Logger) Option {
	return func(opts *Options) {
		if logger != nil {
			opts.Logger = logger
		}
	}
}

// NewQueryResultsIterable wraps executor and query.
func NewQueryResultsIterable[T any](executor storagemodels.QueryExecutor[T], query storagemodels.Query, opts ...Option) *QueryResultsIterable[T] {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &QueryResultsIterable[T]{
		executor: executor,
		query:    query,
		options:  options,
	}
}

// Query returns the query this iterable pages through.
func (q *QueryResultsIterable[T]) Query() storagemodels.Query {
	return q.query
}

// Iterator starts a new pagination cycle. The iterator is owned by one consumer.
func (q *QueryResultsIterable[T]) Iterator() *Iterator[T] {
	return &Iterator[T]{
		executor: q.executor,
		query:    q.query,
		options:  q.options,
	}
}

// All returns the results as a range-over-func sequence. The sequence yields a
// non-nil error at most once, as its final element. Breaking out of the loop
// stops pagination without further requests.
func (q *QueryResultsIterable[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		it := q.Iterator()
		for it.Next(ctx) {
			if !yield(it.Item(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

// Collect drains the whole result set. On failure it returns the items
// delivered before the failing page along with the error.
func (q *QueryResultsIterable[T]) Collect(ctx context.Context) ([]T, error) {
	var results []T
	it := q.Iterator()
	for it.Next(ctx) {
		results = append(results, it.Item())
	}
	return results, it.Err()
}
