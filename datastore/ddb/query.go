/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/a11yscan/scanstore/datastore"
	"github.com/a11yscan/scanstore/partitionkey"
	"github.com/a11yscan/scanstore/storagemodels"
)

// FilterSeparator splits a ParameterizedQuery's text into the key condition and
// an optional filter expression: "#pk = :pk FILTER #itemType = :itemType".
const FilterSeparator = " FILTER "

// ExecuteQuery runs one page of a query. A ParameterizedQuery goes through the
// Query API and pages with LastEvaluatedKey; a RawQuery is a PartiQL statement
// run through ExecuteStatement and pages with NextToken.
func (d *DynamodbDataStore[T]) ExecuteQuery(ctx context.Context, req storagemodels.QueryRequest) (*storagemodels.PageResponse[T], error) {
	switch q := req.Query.(type) {
	case storagemodels.ParameterizedQuery:
		return d.executeKeyQuery(ctx, q, req)
	case storagemodels.RawQuery:
		return d.executeStatement(ctx, q, req)
	default:
		return &storagemodels.PageResponse[T]{
			StatusCode:  http.StatusBadRequest,
			Diagnostics: fmt.Sprintf("unsupported query type %T", req.Query),
		}, nil
	}
}

// PartitionQuery builds a key query on the partition key with equality filters
// on the item type and any extra fields.
func (d *DynamodbDataStore[T]) PartitionQuery(partitionKey string, documentType partitionkey.DocumentType, filters ...datastore.Filter) storagemodels.Query {
	b := NewQueryBuilder(d.keys).
		WithPartitionKey(partitionKey).
		WithFilter("itemType", documentType)
	for _, f := range filters {
		b.WithFilter(f.Field, f.Value)
	}

	query, err := b.Build()
	if err != nil {
		// Only reachable with an empty field name; ExecuteQuery answers the empty query with a 400 page.
		d.logger.Warn("failed to build partition query", zap.Error(err))
		return storagemodels.ParameterizedQuery{}
	}
	return query
}

func (d *DynamodbDataStore[T]) executeKeyQuery(ctx context.Context, q storagemodels.ParameterizedQuery, req storagemodels.QueryRequest) (*storagemodels.PageResponse[T], error) {
	keyCondition, filter, _ := strings.Cut(q.Text, FilterSeparator)
	if strings.TrimSpace(keyCondition) == "" {
		return badRequest[T]("query has no key condition"), nil
	}

	names, values, err := expressionParameters(q.Parameters)
	if err != nil {
		return badRequest[T](err.Error()), nil
	}

	input := &sdk.QueryInput{
		TableName:                 aws.String(d.tableName),
		KeyConditionExpression:    aws.String(keyCondition),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}
	if filter != "" {
		input.FilterExpression = aws.String(filter)
	}
	if req.MaxItemCount > 0 {
		input.Limit = aws.Int32(req.MaxItemCount)
	}
	if req.ContinuationToken != "" {
		startKey, err := decodeStartKey(req.ContinuationToken)
		if err != nil {
			return badRequest[T](err.Error()), nil
		}
		input.ExclusiveStartKey = startKey
	}

	out, err := d.client.Query(ctx, input)
	if err != nil {
		if page, ok := failedPage[T](err); ok {
			return page, nil
		}
		return nil, fmt.Errorf("query error: %w", err)
	}

	token, err := encodeStartKey(out.LastEvaluatedKey)
	if err != nil {
		return nil, err
	}
	return d.page(out.Items, token)
}

func (d *DynamodbDataStore[T]) executeStatement(ctx context.Context, q storagemodels.RawQuery, req storagemodels.QueryRequest) (*storagemodels.PageResponse[T], error) {
	input := &sdk.ExecuteStatementInput{
		Statement: aws.String(q.Text),
	}
	if req.MaxItemCount > 0 {
		input.Limit = aws.Int32(req.MaxItemCount)
	}
	if req.ContinuationToken != "" {
		input.NextToken = aws.String(req.ContinuationToken)
	}

	out, err := d.client.ExecuteStatement(ctx, input)
	if err != nil {
		if page, ok := failedPage[T](err); ok {
			return page, nil
		}
		return nil, fmt.Errorf("execute statement error: %w", err)
	}

	return d.page(out.Items, aws.ToString(out.NextToken))
}

func (d *DynamodbDataStore[T]) page(items []map[string]types.AttributeValue, token string) (*storagemodels.PageResponse[T], error) {
	docs := make([]T, 0, len(items))
	for _, item := range items {
		doc, err := d.decodeItem(item)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return &storagemodels.PageResponse[T]{
		StatusCode:        http.StatusOK,
		Items:             docs,
		ContinuationToken: token,
	}, nil
}

// expressionParameters splits parameters into attribute names ("#name") and values (":value").
func expressionParameters(params []storagemodels.QueryParameter) (map[string]string, map[string]types.AttributeValue, error) {
	var names map[string]string
	var values map[string]types.AttributeValue

	for _, p := range params {
		switch {
		case strings.HasPrefix(p.Name, "#"):
			name, ok := p.Value.(string)
			if !ok {
				return nil, nil, fmt.Errorf("attribute name %s must be a string, got %T", p.Name, p.Value)
			}
			if names == nil {
				names = make(map[string]string)
			}
			names[p.Name] = name
		case strings.HasPrefix(p.Name, ":"):
			av, ok := p.Value.(types.AttributeValue)
			if !ok {
				var err error
				av, err = attributevalue.Marshal(p.Value)
				if err != nil {
					return nil, nil, fmt.Errorf("failed to marshal parameter %s: %w", p.Name, err)
				}
			}
			if values == nil {
				values = make(map[string]types.AttributeValue)
			}
			values[p.Name] = av
		default:
			return nil, nil, fmt.Errorf("parameter %q must start with '#' or ':'", p.Name)
		}
	}
	return names, values, nil
}

// keyAttribute is one attribute of a LastEvaluatedKey with its type kept.
// Key attributes are always S, N or B.
type keyAttribute struct {
	S *string `json:"S,omitempty"`
	N *string `json:"N,omitempty"`
	B []byte  `json:"B,omitempty"`
}

// encodeStartKey turns a LastEvaluatedKey into an opaque continuation token.
func encodeStartKey(key map[string]types.AttributeValue) (string, error) {
	if len(key) == 0 {
		return "", nil
	}

	tagged := make(map[string]keyAttribute, len(key))
	for name, av := range key {
		switch v := av.(type) {
		case *types.AttributeValueMemberS:
			tagged[name] = keyAttribute{S: aws.String(v.Value)}
		case *types.AttributeValueMemberN:
			tagged[name] = keyAttribute{N: aws.String(v.Value)}
		case *types.AttributeValueMemberB:
			tagged[name] = keyAttribute{B: v.Value}
		default:
			return "", fmt.Errorf("failed to encode continuation token: key attribute %q has unsupported type %T", name, av)
		}
	}

	data, err := json.Marshal(tagged)
	if err != nil {
		return "", fmt.Errorf("failed to encode continuation token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func decodeStartKey(token string) (map[string]types.AttributeValue, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid continuation token: %v", err)
	}

	var tagged map[string]keyAttribute
	if err := json.Unmarshal(data, &tagged); err != nil || len(tagged) == 0 {
		return nil, fmt.Errorf("invalid continuation token")
	}

	key := make(map[string]types.AttributeValue, len(tagged))
	for name, attr := range tagged {
		switch {
		case attr.S != nil:
			key[name] = &types.AttributeValueMemberS{Value: *attr.S}
		case attr.N != nil:
			key[name] = &types.AttributeValueMemberN{Value: *attr.N}
		case attr.B != nil:
			key[name] = &types.AttributeValueMemberB{Value: attr.B}
		default:
			return nil, fmt.Errorf("invalid continuation token: key attribute %q has no value", name)
		}
	}
	return key, nil
}

func badRequest[T any](diagnostics string) *storagemodels.PageResponse[T] {
	return &storagemodels.PageResponse[T]{StatusCode: http.StatusBadRequest, Diagnostics: diagnostics}
}
