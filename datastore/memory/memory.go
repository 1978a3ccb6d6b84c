/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memory provides an in-process DataStore for tests and local runs.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/a11yscan/scanstore/datastore"
	"github.com/a11yscan/scanstore/errors"
	"github.com/a11yscan/scanstore/partitionkey"
	"github.com/a11yscan/scanstore/registry"
	"github.com/a11yscan/scanstore/storagemodels"
)

// DefaultPageSize is used when a request carries no MaxItemCount.
const DefaultPageSize = 100

type documentKey struct {
	partitionKey string
	id           string
}

type entry[T storagemodels.Document] struct {
	key    documentKey
	doc    T
	fields map[string]json.RawMessage
}

// DataStore keeps documents in insertion order. Continuation tokens are decimal
// offsets into the matching documents, so deletes during an iteration can shift it.
type DataStore[T storagemodels.Document] struct {
	mu        sync.RWMutex
	entries   []entry[T]
	positions map[documentKey]int

	pageSize    int
	queryFunc   func(ctx context.Context, req storagemodels.QueryRequest) (*storagemodels.PageResponse[T], error)
	putError    error
	deleteError error
}

var _ datastore.DataStore[storagemodels.Page] = (*DataStore[storagemodels.Page])(nil)

// New creates an empty in-memory DataStore
func New[T storagemodels.Document]() *DataStore[T] {
	return &DataStore[T]{
		positions: make(map[documentKey]int),
		pageSize:  DefaultPageSize,
	}
}

// WithPageSize sets the page size used when a request has no MaxItemCount
func (m *DataStore[T]) WithPageSize(n int) *DataStore[T] {
	if n > 0 {
		m.pageSize = n
	}
	return m
}

// WithQueryFunc replaces query execution, for injecting page-level failures in tests
func (m *DataStore[T]) WithQueryFunc(f func(ctx context.Context, req storagemodels.QueryRequest) (*storagemodels.PageResponse[T], error)) *DataStore[T] {
	m.queryFunc = f
	return m
}

// WithPutError makes Put operations return an error
func (m *DataStore[T]) WithPutError(err error) *DataStore[T] {
	m.putError = err
	return m
}

// WithDeleteError makes Delete operations return an error
func (m *DataStore[T]) WithDeleteError(err error) *DataStore[T] {
	m.deleteError = err
	return m
}

// GetOne retrieves a document by id and partition key
func (m *DataStore[T]) GetOne(ctx context.Context, id, partitionKey string) (*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pos, exists := m.positions[documentKey{partitionKey: partitionKey, id: id}]
	if !exists {
		return nil, errors.NewNotFoundError(typeName[T](), id)
	}
	doc := m.entries[pos].doc
	return &doc, nil
}

// Put inserts or replaces a document. A replaced document keeps its position.
func (m *DataStore[T]) Put(ctx context.Context, doc T) error {
	if m.putError != nil {
		return m.putError
	}
	if err := datastore.ValidateDocument(doc); err != nil {
		return err
	}

	fields, err := documentFields(doc)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := documentKey{partitionKey: doc.DocumentPartitionKey(), id: doc.DocumentID()}
	e := entry[T]{key: key, doc: doc, fields: fields}
	if pos, exists := m.positions[key]; exists {
		m.entries[pos] = e
		return nil
	}
	m.positions[key] = len(m.entries)
	m.entries = append(m.entries, e)
	return nil
}

// Delete removes a document by id and partition key
func (m *DataStore[T]) Delete(ctx context.Context, id, partitionKey string) error {
	if m.deleteError != nil {
		return m.deleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := documentKey{partitionKey: partitionKey, id: id}
	pos, exists := m.positions[key]
	if !exists {
		return errors.NewNotFoundError(typeName[T](), id)
	}

	m.entries = append(m.entries[:pos], m.entries[pos+1:]...)
	delete(m.positions, key)
	for i := pos; i < len(m.entries); i++ {
		m.positions[m.entries[i].key] = i
	}
	return nil
}

// PartitionQuery builds a parameterized query whose parameters are matched
// against the documents' JSON fields.
func (m *DataStore[T]) PartitionQuery(partitionKey string, documentType partitionkey.DocumentType, filters ...datastore.Filter) storagemodels.Query {
	var b strings.Builder
	b.WriteString("SELECT * FROM c WHERE c.partitionKey = @partitionKey AND c.itemType = @itemType")

	params := []storagemodels.QueryParameter{
		{Name: "@partitionKey", Value: partitionKey},
		{Name: "@itemType", Value: documentType},
	}
	for _, f := range filters {
		fmt.Fprintf(&b, " AND c.%s = @%s", f.Field, f.Field)
		params = append(params, storagemodels.QueryParameter{Name: "@" + f.Field, Value: f.Value})
	}

	return storagemodels.ParameterizedQuery{Text: b.String(), Parameters: params}
}

// ExecuteQuery returns one page of matching documents. A RawQuery matches every
// document; each parameter of a ParameterizedQuery, minus its "@" prefix, must
// equal the document field of the same name.
func (m *DataStore[T]) ExecuteQuery(ctx context.Context, req storagemodels.QueryRequest) (*storagemodels.PageResponse[T], error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	offset := 0
	if req.ContinuationToken != "" {
		n, err := strconv.Atoi(req.ContinuationToken)
		if err != nil || n < 0 {
			return badRequest[T](fmt.Sprintf("invalid continuation token %q", req.ContinuationToken)), nil
		}
		offset = n
	}

	match, err := matcher(req.Query)
	if err != nil {
		return badRequest[T](err.Error()), nil
	}

	size := m.pageSize
	if req.MaxItemCount > 0 {
		size = int(req.MaxItemCount)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	resp := &storagemodels.PageResponse[T]{StatusCode: http.StatusOK, Items: []T{}}
	seen := 0
	for _, e := range m.entries {
		if !match(e.fields) {
			continue
		}
		if seen >= offset {
			if len(resp.Items) == size {
				resp.ContinuationToken = strconv.Itoa(offset + size)
				break
			}
			resp.Items = append(resp.Items, e.doc)
		}
		seen++
	}
	return resp, nil
}

// Helper methods for testing

// Count returns the number of stored documents
func (m *DataStore[T]) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Clear removes all data
func (m *DataStore[T]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	m.positions = make(map[documentKey]int)
}

func matcher(query storagemodels.Query) (func(map[string]json.RawMessage) bool, error) {
	switch q := query.(type) {
	case storagemodels.RawQuery:
		return func(map[string]json.RawMessage) bool { return true }, nil
	case storagemodels.ParameterizedQuery:
		want := make(map[string][]byte, len(q.Parameters))
		for _, p := range q.Parameters {
			encoded, err := json.Marshal(p.Value)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: %v", p.Name, err)
			}
			want[strings.TrimPrefix(p.Name, "@")] = encoded
		}
		return func(fields map[string]json.RawMessage) bool {
			for field, value := range want {
				if !bytes.Equal(fields[field], value) {
					return false
				}
			}
			return true
		}, nil
	default:
		return nil, fmt.Errorf("unsupported query type %T", query)
	}
}

func documentFields(doc any) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to index document fields: %w", err)
	}
	return fields, nil
}

func badRequest[T any](diagnostics string) *storagemodels.PageResponse[T] {
	return &storagemodels.PageResponse[T]{StatusCode: http.StatusBadRequest, Diagnostics: diagnostics}
}

func typeName[T any]() string {
	if dt, ok := registry.DocumentTypeOf[T](); ok {
		return string(dt)
	}
	var zero T
	return fmt.Sprintf("%T", zero)
}
