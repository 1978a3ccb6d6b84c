/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package paging

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"testing"

	scanerrors "github.com/a11yscan/scanstore/errors"
	"github.com/a11yscan/scanstore/storagemodels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedExecutor serves pages keyed by the continuation token they answer.
type scriptedExecutor[T any] struct {
	mu    sync.Mutex
	pages map[string]*storagemodels.PageResponse[T]
	calls []storagemodels.QueryRequest
	err   error
}

func newScriptedExecutor[T any]() *scriptedExecutor[T] {
	return &scriptedExecutor[T]{pages: make(map[string]*storagemodels.PageResponse[T])}
}

func (s *scriptedExecutor[T]) on(token string, page *storagemodels.PageResponse[T]) *scriptedExecutor[T] {
	s.pages[token] = page
	return s
}

func (s *scriptedExecutor[T]) ExecuteQuery(_ context.Context, req storagemodels.QueryRequest) (*storagemodels.PageResponse[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, req)
	if s.err != nil {
		return nil, s.err
	}
	page, ok := s.pages[req.ContinuationToken]
	if !ok {
		return nil, fmt.Errorf("unexpected continuation token %q", req.ContinuationToken)
	}
	return page, nil
}

func (s *scriptedExecutor[T]) tokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens := make([]string, 0, len(s.calls))
	for _, c := range s.calls {
		tokens = append(tokens, c.ContinuationToken)
	}
	return tokens
}

func ok[T any](token string, items ...T) *storagemodels.PageResponse[T] {
	return &storagemodels.PageResponse[T]{StatusCode: http.StatusOK, Items: items, ContinuationToken: token}
}

var selectAll = storagemodels.RawQuery{Text: "SELECT * FROM c"}

func TestIterableFollowsContinuationTokens(t *testing.T) {
	executor := newScriptedExecutor[string]().
		on("", ok("tok1", "item1")).
		on("tok1", ok("", "item2", "item3"))

	results, err := NewQueryResultsIterable[string](executor, selectAll).Collect(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"item1", "item2", "item3"}, results)
	assert.Equal(t, []string{"", "tok1"}, executor.tokens())
	for _, call := range executor.calls {
		assert.Equal(t, selectAll, call.Query)
	}
}

func TestIterableYieldsEveryItemInOrder(t *testing.T) {
	splits := [][]int{
		{10},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		{3, 0, 4, 3},
		{0, 0, 10},
		{7, 3, 0},
	}

	for _, split := range splits {
		t.Run(fmt.Sprint(split), func(t *testing.T) {
			executor := newScriptedExecutor[int]()
			next := 0
			for i, size := range split {
				token := ""
				if i > 0 {
					token = "page" + strconv.Itoa(i)
				}
				nextToken := ""
				if i < len(split)-1 {
					nextToken = "page" + strconv.Itoa(i+1)
				}
				items := make([]int, 0, size)
				for j := 0; j < size; j++ {
					items = append(items, next)
					next++
				}
				executor.on(token, ok(nextToken, items...))
			}

			results, err := NewQueryResultsIterable[int](executor, selectAll).Collect(context.Background())

			require.NoError(t, err)
			expected := make([]int, 10)
			for i := range expected {
				expected[i] = i
			}
			assert.Equal(t, expected, results)
			assert.Len(t, executor.calls, len(split))
		})
	}
}

func TestIterableStopsAfterSinglePage(t *testing.T) {
	executor := newScriptedExecutor[string]().on("", ok("", "a", "b"))

	it := NewQueryResultsIterable[string](executor, selectAll).Iterator()
	var results []string
	for it.Next(context.Background()) {
		results = append(results, it.Item())
	}

	require.NoError(t, it.Err())
	assert.Equal(t, []string{"a", "b"}, results)
	assert.Len(t, executor.calls, 1)
	assert.False(t, it.Next(context.Background()), "an exhausted iterator stays exhausted")
	assert.Len(t, executor.calls, 1)
}

func TestIterableEmptyResult(t *testing.T) {
	executor := newScriptedExecutor[string]().on("", ok[string](""))

	results, err := NewQueryResultsIterable[string](executor, selectAll).Collect(context.Background())

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Len(t, executor.calls, 1)
}

func TestIterableSurfacesFailureAfterDeliveredItems(t *testing.T) {
	executor := newScriptedExecutor[string]().
		on("", ok("tok1", "item1", "item2")).
		on("tok1", &storagemodels.PageResponse[string]{
			StatusCode:  http.StatusTooManyRequests,
			Diagnostics: "request rate is large",
		})

	it := NewQueryResultsIterable[string](executor, selectAll).Iterator()
	ctx := context.Background()

	require.True(t, it.Next(ctx))
	assert.Equal(t, "item1", it.Item())
	require.True(t, it.Next(ctx))
	assert.Equal(t, "item2", it.Item())
	assert.Len(t, executor.calls, 1, "the second page is only requested when needed")

	assert.False(t, it.Next(ctx))
	require.Error(t, it.Err())
	assert.True(t, scanerrors.IsQueryExecution(it.Err()))
	code, found := scanerrors.StatusCodeOf(it.Err())
	require.True(t, found)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Contains(t, it.Err().Error(), "request rate is large")

	assert.False(t, it.Next(ctx), "a failed iterator does not retry")
	assert.Len(t, executor.calls, 2)
}

func TestIterableCollectReturnsPartialResultsOnFailure(t *testing.T) {
	executor := newScriptedExecutor[string]().
		on("", ok("tok1", "item1")).
		on("tok1", &storagemodels.PageResponse[string]{StatusCode: http.StatusInternalServerError})

	results, err := NewQueryResultsIterable[string](executor, selectAll).Collect(context.Background())

	assert.Equal(t, []string{"item1"}, results)
	assert.True(t, scanerrors.IsQueryExecution(err))
}

func TestIterableWrapsTransportErrors(t *testing.T) {
	boom := errors.New("connection reset")
	executor := newScriptedExecutor[string]()
	executor.err = boom

	_, err := NewQueryResultsIterable[string](executor, selectAll).Collect(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.False(t, scanerrors.IsQueryExecution(err))
}

func TestIterableRejectsNilResponse(t *testing.T) {
	executor := storagemodels.QueryExecutorFunc[string](func(context.Context, storagemodels.QueryRequest) (*storagemodels.PageResponse[string], error) {
		return nil, nil
	})

	_, err := NewQueryResultsIterable[string](executor, selectAll).Collect(context.Background())
	assert.Error(t, err)
}

func TestIterableIsRestartable(t *testing.T) {
	executor := newScriptedExecutor[string]().
		on("", ok("tok1", "item1")).
		on("tok1", ok("", "item2"))
	iterable := NewQueryResultsIterable[string](executor, selectAll)

	first, err := iterable.Collect(context.Background())
	require.NoError(t, err)
	second, err := iterable.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"", "tok1", "", "tok1"}, executor.tokens())
}

func TestIterableAllowsEarlyStop(t *testing.T) {
	executor := newScriptedExecutor[string]().
		on("", ok("tok1", "item1", "item2")).
		on("tok1", ok("", "item3"))

	var seen []string
	for item, err := range NewQueryResultsIterable[string](executor, selectAll).All(context.Background()) {
		require.NoError(t, err)
		seen = append(seen, item)
		if item == "item2" {
			break
		}
	}

	assert.Equal(t, []string{"item1", "item2"}, seen)
	assert.Len(t, executor.calls, 1, "no request is issued after the consumer stops")
}

func TestIterableAllYieldsErrorLast(t *testing.T) {
	executor := newScriptedExecutor[string]().
		on("", ok("tok1", "item1")).
		on("tok1", &storagemodels.PageResponse[string]{StatusCode: http.StatusServiceUnavailable})

	var items []string
	var errs []error
	for item, err := range NewQueryResultsIterable[string](executor, selectAll).All(context.Background()) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		items = append(items, item)
	}

	assert.Equal(t, []string{"item1"}, items)
	require.Len(t, errs, 1)
	assert.True(t, scanerrors.IsQueryExecution(errs[0]))
}

func TestIterableIndependentIterationsRunConcurrently(t *testing.T) {
	executor := newScriptedExecutor[int]().
		on("", ok("a", 1, 2)).
		on("a", ok("b", 3)).
		on("b", ok("", 4, 5))
	iterable := NewQueryResultsIterable[int](executor, selectAll)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := iterable.Collect(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, []int{1, 2, 3, 4, 5}, results)
		}()
	}
	wg.Wait()

	assert.Len(t, executor.calls, 8*3)
}

func TestIterableHonoursCancelledContext(t *testing.T) {
	executor := newScriptedExecutor[string]().
		on("", ok("tok1", "item1")).
		on("tok1", ok("", "item2"))

	ctx, cancel := context.WithCancel(context.Background())
	it := NewQueryResultsIterable[string](executor, selectAll).Iterator()

	require.True(t, it.Next(ctx))
	cancel()

	assert.False(t, it.Next(ctx))
	assert.ErrorIs(t, it.Err(), context.Canceled)
	assert.Len(t, executor.calls, 1)
}

func TestIterablePassesMaxItemCountAndReportsProgress(t *testing.T) {
	executor := newScriptedExecutor[string]().
		on("", ok("tok1", "a", "b")).
		on("tok1", ok("", "c"))

	var progress []storagemodels.StreamProgress
	iterable := NewQueryResultsIterable[string](executor, selectAll,
		WithMaxItemCount(2),
		WithProgressHandler(func(p storagemodels.StreamProgress) {
			progress = append(progress, p)
		}),
		WithLogger(nil),
	)

	_, err := iterable.Collect(context.Background())
	require.NoError(t, err)

	for _, call := range executor.calls {
		assert.Equal(t, int32(2), call.MaxItemCount)
	}
	require.Len(t, progress, 2)
	assert.Equal(t, int64(2), progress[0].ItemsProcessed)
	assert.Equal(t, "tok1", progress[0].ContinuationToken)
	assert.Equal(t, int64(3), progress[1].ItemsProcessed)
	assert.Equal(t, 2, progress[1].PagesProcessed)
	assert.Empty(t, progress[1].ContinuationToken)
}
