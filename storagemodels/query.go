/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"context"
	"net/http"
)

// Query describes the statement sent to a document store. It is a closed union of
// RawQuery and ParameterizedQuery; use a type switch to handle both.
type Query interface {
	// QueryText returns the statement text in the backend's dialect.
	QueryText() string

	isQuery()
}

// RawQuery is a statement with no bound parameters.
type RawQuery struct {
	Text string
}

func (q RawQuery) QueryText() string { return q.Text }

func (RawQuery) isQuery() {}

// QueryParameter is a named value bound into a ParameterizedQuery.
// Names keep the backend's placeholder prefix, e.g. "@websiteId" or ":pk".
type QueryParameter struct {
	Name  string
	Value any
}

// ParameterizedQuery is a statement with named parameters.
type ParameterizedQuery struct {
	Text       string
	Parameters []QueryParameter
}

func (q ParameterizedQuery) QueryText() string { return q.Text }

func (ParameterizedQuery) isQuery() {}

// Parameter returns the value bound to name, if any.
func (q ParameterizedQuery) Parameter(name string) (any, bool) {
	for _, p := range q.Parameters {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// QueryRequest is one page request. It is never mutated after it is issued.
type QueryRequest struct {
	// Query is the statement being paged through.
	Query Query
	// ContinuationToken resumes a previous page. Empty on the first request.
	ContinuationToken string
	// MaxItemCount is a page-size hint; zero lets the backend decide.
	MaxItemCount int32
}

// PageResponse is what a document store returns for a single QueryRequest.
type PageResponse[T any] struct {
	// StatusCode follows HTTP semantics: 2xx is success.
	StatusCode int
	// Items holds the documents of this page in store order.
	Items []T
	// ContinuationToken is non-empty when more data is available.
	ContinuationToken string
	// Diagnostics carries backend detail for failed pages.
	Diagnostics string
}

// Succeeded reports whether the page carries a 2xx status code.
func (p *PageResponse[T]) Succeeded() bool {
	return p.StatusCode >= http.StatusOK && p.StatusCode < http.StatusMultipleChoices
}

// HasMore reports whether the backend signalled further pages.
func (p *PageResponse[T]) HasMore() bool {
	return p.ContinuationToken != ""
}

// QueryExecutor executes one page of a query.
// A returned error means the request never produced a response (transport failure,
// cancelled context); backend rejections are reported through PageResponse.StatusCode.
type QueryExecutor[T any] interface {
	ExecuteQuery(ctx context.Context, req QueryRequest) (*PageResponse[T], error)
}

// QueryExecutorFunc adapts a function to the QueryExecutor interface.
type QueryExecutorFunc[T any] func(ctx context.Context, req QueryRequest) (*PageResponse[T], error)

// ExecuteQuery implements QueryExecutor.
func (f QueryExecutorFunc[T]) ExecuteQuery(ctx context.Context, req QueryRequest) (*PageResponse[T], error) {
	return f(ctx, req)
}
