/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"

	"github.com/a11yscan/scanstore/errors"
	"github.com/a11yscan/scanstore/storagemodels"
)

// QueryBuilder provides a fluent interface for building key queries. Sort key
// conditions apply to document ids, which are time-ordered UUIDv7 values.
type QueryBuilder struct {
	keys        KeySchema
	pkValue     string
	skCondition *expression.KeyConditionBuilder
	filters     []expression.ConditionBuilder
}

// NewQueryBuilder creates a builder for a table with the given key schema
func NewQueryBuilder(keys KeySchema) *QueryBuilder {
	return &QueryBuilder{keys: keys}
}

// WithPartitionKey sets the partition key value
func (q *QueryBuilder) WithPartitionKey(value string) *QueryBuilder {
	q.pkValue = value
	return q
}

// WithSortKey sets the sort key value with equals operator
func (q *QueryBuilder) WithSortKey(value string) *QueryBuilder {
	return q.withSortKey(expression.Key(q.keys.SortKey).Equal(expression.Value(value)))
}

// WithSortKeyPrefix sets the sort key to use begins_with operator
func (q *QueryBuilder) WithSortKeyPrefix(prefix string) *QueryBuilder {
	return q.withSortKey(expression.Key(q.keys.SortKey).BeginsWith(prefix))
}

// WithSortKeyGreaterThan sets the sort key to use > operator
func (q *QueryBuilder) WithSortKeyGreaterThan(value string) *QueryBuilder {
	return q.withSortKey(expression.Key(q.keys.SortKey).GreaterThan(expression.Value(value)))
}

// WithSortKeyLessThan sets the sort key to use < operator
func (q *QueryBuilder) WithSortKeyLessThan(value string) *QueryBuilder {
	return q.withSortKey(expression.Key(q.keys.SortKey).LessThan(expression.Value(value)))
}

// WithSortKeyBetween sets the sort key to use BETWEEN operator
func (q *QueryBuilder) WithSortKeyBetween(start, end string) *QueryBuilder {
	return q.withSortKey(expression.Key(q.keys.SortKey).Between(expression.Value(start), expression.Value(end)))
}

// WithFilter adds an equality filter on a document field
func (q *QueryBuilder) WithFilter(field string, value any) *QueryBuilder {
	q.filters = append(q.filters, expression.Name(field).Equal(expression.Value(value)))
	return q
}

func (q *QueryBuilder) withSortKey(cond expression.KeyConditionBuilder) *QueryBuilder {
	q.skCondition = &cond
	return q
}

// Build constructs the query. The text is the key condition, followed by
// FilterSeparator and the filter expression when filters were added.
func (q *QueryBuilder) Build() (storagemodels.ParameterizedQuery, error) {
	if q.pkValue == "" {
		return storagemodels.ParameterizedQuery{}, errors.NewValidationError("partitionKey", "partition key value is required")
	}

	keyCond := expression.Key(q.keys.PartitionKey).Equal(expression.Value(q.pkValue))
	if q.skCondition != nil {
		keyCond = keyCond.And(*q.skCondition)
	}

	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	switch len(q.filters) {
	case 0:
	case 1:
		builder = builder.WithFilter(q.filters[0])
	default:
		builder = builder.WithFilter(expression.And(q.filters[0], q.filters[1], q.filters[2:]...))
	}

	expr, err := builder.Build()
	if err != nil {
		return storagemodels.ParameterizedQuery{}, fmt.Errorf("failed to build expression: %w", err)
	}

	text := *expr.KeyCondition()
	if filter := expr.Filter(); filter != nil {
		text += FilterSeparator + *filter
	}

	var params []storagemodels.QueryParameter
	for _, name := range sortedKeys(expr.Names()) {
		params = append(params, storagemodels.QueryParameter{Name: name, Value: expr.Names()[name]})
	}
	values := expr.Values()
	for _, name := range sortedKeys(values) {
		params = append(params, storagemodels.QueryParameter{Name: name, Value: values[name]})
	}

	return storagemodels.ParameterizedQuery{Text: text, Parameters: params}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
