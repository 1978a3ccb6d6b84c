/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/a11yscan/scanstore/partitionkey"
	"github.com/a11yscan/scanstore/storagemodels"
)

type DataStore[T storagemodels.Document] interface {
	storagemodels.QueryExecutor[T]

	GetOne(ctx context.Context, id, partitionKey string) (*T, error)

	Put(ctx context.Context, doc T) error

	Delete(ctx context.Context, id, partitionKey string) error

	// PartitionQuery builds, in the store's own dialect, a query for the documents of
	// documentType under partitionKey that also match every filter.
	PartitionQuery(partitionKey string, documentType partitionkey.DocumentType, filters ...Filter) storagemodels.Query
}

// Filter is an equality condition on a top-level JSON field of a document.
type Filter struct {
	Field string
	Value any
}

// Where is shorthand for Filter{Field: field, Value: value}.
func Where(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}
