/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memory_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/a11yscan/scanstore/datastore"
	"github.com/a11yscan/scanstore/datastore/memory"
	scanerrors "github.com/a11yscan/scanstore/errors"
	"github.com/a11yscan/scanstore/paging"
	"github.com/a11yscan/scanstore/partitionkey"
	"github.com/a11yscan/scanstore/storagemodels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(id, partitionKey, websiteID string) storagemodels.Page {
	return storagemodels.Page{
		StorageDocument: storagemodels.StorageDocument{ID: id, PartitionKey: partitionKey, ItemType: partitionkey.Page},
		WebsiteID:       websiteID,
		URL:             "https://example.com/" + id,
	}
}

func TestMemoryDataStore(t *testing.T) {
	ctx := context.Background()

	t.Run("BasicOperations", func(t *testing.T) {
		store := memory.New[storagemodels.Page]()

		require.NoError(t, store.Put(ctx, page("p1", "page-1", "w1")))

		got, err := store.GetOne(ctx, "p1", "page-1")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/p1", got.URL)

		_, err = store.GetOne(ctx, "p1", "page-2")
		assert.True(t, scanerrors.IsNotFound(err), "the partition key is part of the identity")

		require.NoError(t, store.Delete(ctx, "p1", "page-1"))
		_, err = store.GetOne(ctx, "p1", "page-1")
		assert.True(t, scanerrors.IsNotFound(err))

		err = store.Delete(ctx, "p1", "page-1")
		assert.True(t, scanerrors.IsNotFound(err))
	})

	t.Run("PutReplacesInPlace", func(t *testing.T) {
		store := memory.New[storagemodels.Page]()
		require.NoError(t, store.Put(ctx, page("a", "page-1", "w1")))
		require.NoError(t, store.Put(ctx, page("b", "page-1", "w1")))

		updated := page("a", "page-1", "w1")
		updated.Disabled = true
		require.NoError(t, store.Put(ctx, updated))

		results, err := paging.NewQueryResultsIterable[storagemodels.Page](store, storagemodels.RawQuery{Text: "SELECT * FROM c"}).Collect(ctx)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "a", results[0].ID)
		assert.True(t, results[0].Disabled)
		assert.Equal(t, 2, store.Count())
	})

	t.Run("PutValidates", func(t *testing.T) {
		store := memory.New[storagemodels.Page]()

		err := store.Put(ctx, page("", "page-1", "w1"))
		assert.True(t, scanerrors.IsValidationError(err))

		err = store.Put(ctx, page("p1", "", "w1"))
		assert.True(t, scanerrors.IsValidationError(err))

		wrongType := page("p1", "page-1", "w1")
		wrongType.ItemType = partitionkey.Website
		err = store.Put(ctx, wrongType)
		assert.True(t, scanerrors.IsValidationError(err))
	})

	t.Run("ErrorInjection", func(t *testing.T) {
		boom := errors.New("boom")
		store := memory.New[storagemodels.Page]().WithPutError(boom).WithDeleteError(boom)

		assert.ErrorIs(t, store.Put(ctx, page("p1", "page-1", "w1")), boom)
		assert.ErrorIs(t, store.Delete(ctx, "p1", "page-1"), boom)
	})

	t.Run("Clear", func(t *testing.T) {
		store := memory.New[storagemodels.Page]()
		require.NoError(t, store.Put(ctx, page("p1", "page-1", "w1")))
		store.Clear()
		assert.Equal(t, 0, store.Count())
	})
}

func TestMemoryPaging(t *testing.T) {
	ctx := context.Background()
	store := memory.New[storagemodels.Page]().WithPageSize(3)
	for i := 0; i < 10; i++ {
		require.NoError(t, store.Put(ctx, page(fmt.Sprintf("p%02d", i), "page-1", "w1")))
	}

	first, err := store.ExecuteQuery(ctx, storagemodels.QueryRequest{Query: storagemodels.RawQuery{Text: "SELECT * FROM c"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, first.StatusCode)
	assert.Len(t, first.Items, 3)
	assert.Equal(t, "3", first.ContinuationToken)

	last, err := store.ExecuteQuery(ctx, storagemodels.QueryRequest{
		Query:             storagemodels.RawQuery{Text: "SELECT * FROM c"},
		ContinuationToken: "9",
	})
	require.NoError(t, err)
	require.Len(t, last.Items, 1)
	assert.Equal(t, "p09", last.Items[0].ID)
	assert.False(t, last.HasMore())

	exact, err := store.ExecuteQuery(ctx, storagemodels.QueryRequest{
		Query:        storagemodels.RawQuery{Text: "SELECT * FROM c"},
		MaxItemCount: 10,
	})
	require.NoError(t, err)
	assert.Len(t, exact.Items, 10)
	assert.False(t, exact.HasMore(), "no token when the last page is exactly full")

	all, err := paging.NewQueryResultsIterable[storagemodels.Page](store, storagemodels.RawQuery{Text: "SELECT * FROM c"}).Collect(ctx)
	require.NoError(t, err)
	require.Len(t, all, 10)
	for i, p := range all {
		assert.Equal(t, fmt.Sprintf("p%02d", i), p.ID)
	}
}

func TestMemoryPartitionQuery(t *testing.T) {
	ctx := context.Background()
	store := memory.New[storagemodels.Page]().WithPageSize(2)
	require.NoError(t, store.Put(ctx, page("a", "page-1", "w1")))
	require.NoError(t, store.Put(ctx, page("b", "page-2", "w1")))
	require.NoError(t, store.Put(ctx, page("c", "page-1", "w2")))
	require.NoError(t, store.Put(ctx, page("d", "page-1", "w1")))
	require.NoError(t, store.Put(ctx, page("e", "page-1", "w1")))

	query := store.PartitionQuery("page-1", partitionkey.Page, datastore.Where("websiteId", "w1"))
	pq, ok := query.(storagemodels.ParameterizedQuery)
	require.True(t, ok)
	value, found := pq.Parameter("@websiteId")
	require.True(t, found)
	assert.Equal(t, "w1", value)

	results, err := paging.NewQueryResultsIterable[storagemodels.Page](store, query).Collect(ctx)
	require.NoError(t, err)

	ids := make([]string, 0, len(results))
	for _, p := range results {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"a", "d", "e"}, ids)
}

func TestMemoryRejectsBadRequests(t *testing.T) {
	ctx := context.Background()
	store := memory.New[storagemodels.Page]()

	resp, err := store.ExecuteQuery(ctx, storagemodels.QueryRequest{
		Query:             storagemodels.RawQuery{Text: "SELECT * FROM c"},
		ContinuationToken: "not-a-number",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = store.ExecuteQuery(ctx, storagemodels.QueryRequest{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = store.ExecuteQuery(cancelled, storagemodels.QueryRequest{Query: storagemodels.RawQuery{Text: "SELECT * FROM c"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryQueryFuncFeedsIterable(t *testing.T) {
	store := memory.New[storagemodels.Page]().WithQueryFunc(func(ctx context.Context, req storagemodels.QueryRequest) (*storagemodels.PageResponse[storagemodels.Page], error) {
		if req.ContinuationToken == "" {
			return &storagemodels.PageResponse[storagemodels.Page]{
				StatusCode:        http.StatusOK,
				Items:             []storagemodels.Page{page("p1", "page-1", "w1")},
				ContinuationToken: "next",
			}, nil
		}
		return &storagemodels.PageResponse[storagemodels.Page]{StatusCode: http.StatusServiceUnavailable}, nil
	})

	results, err := paging.NewQueryResultsIterable[storagemodels.Page](store, storagemodels.RawQuery{Text: "SELECT * FROM c"}).Collect(context.Background())

	require.Len(t, results, 1)
	code, ok := scanerrors.StatusCodeOf(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}
