/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package pg

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/a11yscan/scanstore/datastore"
	"github.com/a11yscan/scanstore/partitionkey"
	"github.com/a11yscan/scanstore/storagemodels"
)

// DefaultPageSize is used when a request carries no MaxItemCount.
const DefaultPageSize = 100

const (
	limitArg  = "page_limit"
	offsetArg = "page_offset"
)

// ExecuteQuery runs one page of a query. The statement must select a single
// jsonb (or json text) column holding the document body and should be ordered;
// paging appends LIMIT and OFFSET to it. ParameterizedQuery parameters are bound
// as pgx named arguments, so "@websiteId" in the text matches the parameter
// "@websiteId" (or "websiteId").
func (p *PostgresDataStore[T]) ExecuteQuery(ctx context.Context, req storagemodels.QueryRequest) (*storagemodels.PageResponse[T], error) {
	args := pgx.NamedArgs{}
	switch q := req.Query.(type) {
	case storagemodels.RawQuery:
	case storagemodels.ParameterizedQuery:
		for _, param := range q.Parameters {
			name := strings.TrimPrefix(param.Name, "@")
			if name == limitArg || name == offsetArg {
				return badRequest[T](fmt.Sprintf("parameter name %q is reserved", param.Name)), nil
			}
			args[name] = param.Value
		}
	default:
		return badRequest[T](fmt.Sprintf("unsupported query type %T", req.Query)), nil
	}

	offset, err := decodeOffset(req.ContinuationToken)
	if err != nil {
		return badRequest[T](err.Error()), nil
	}

	size := DefaultPageSize
	if req.MaxItemCount > 0 {
		size = int(req.MaxItemCount)
	}
	// One extra row tells whether another page exists.
	args[limitArg] = size + 1
	args[offsetArg] = offset

	sql := strings.TrimRight(strings.TrimSpace(req.Query.QueryText()), ";") +
		" LIMIT @" + limitArg + " OFFSET @" + offsetArg

	rows, err := p.db.Query(ctx, sql, args)
	if err != nil {
		return p.failedPage(err)
	}
	defer rows.Close()

	items := make([]T, 0, size)
	more := false
	for rows.Next() {
		if len(items) == size {
			more = true
			break
		}

		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		var doc T
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		items = append(items, doc)
	}
	if err := rows.Err(); err != nil {
		return p.failedPage(err)
	}

	resp := &storagemodels.PageResponse[T]{StatusCode: http.StatusOK, Items: items}
	if more {
		resp.ContinuationToken = encodeOffset(offset + size)
	}
	return resp, nil
}

// PartitionQuery selects the documents of one type under a partition key, ordered
// by id. Filters are matched with jsonb containment on the body.
func (p *PostgresDataStore[T]) PartitionQuery(partitionKey string, documentType partitionkey.DocumentType, filters ...datastore.Filter) storagemodels.Query {
	text := fmt.Sprintf(`SELECT body FROM %s WHERE partition_key = @partitionKey AND item_type = @itemType`, p.table)
	params := []storagemodels.QueryParameter{
		{Name: "@partitionKey", Value: partitionKey},
		{Name: "@itemType", Value: string(documentType)},
	}

	if len(filters) > 0 {
		contained := make(map[string]any, len(filters))
		for _, f := range filters {
			contained[f.Field] = f.Value
		}
		encoded, err := json.Marshal(contained)
		if err != nil {
			p.logger.Warn("dropping unencodable partition query filters", zap.Error(err))
		} else {
			text += ` AND body @> @filters::jsonb`
			params = append(params, storagemodels.QueryParameter{Name: "@filters", Value: string(encoded)})
		}
	}

	return storagemodels.ParameterizedQuery{Text: text + ` ORDER BY id`, Parameters: params}
}

// failedPage reports errors raised by the server as pages; anything else never
// reached it and is returned as an error.
func (p *PostgresDataStore[T]) failedPage(err error) (*storagemodels.PageResponse[T], error) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil, fmt.Errorf("query error: %w", err)
	}

	return &storagemodels.PageResponse[T]{
		StatusCode:  statusCode(pgErr),
		Diagnostics: pgErr.Code + ": " + pgErr.Message,
	}, nil
}

// statusCode maps a SQLSTATE to an HTTP status: data and syntax errors are the
// caller's fault, contention and resource exhaustion are transient.
func statusCode(pgErr *pgconn.PgError) int {
	switch pgErr.Code {
	case "40001", "40P01":
		return http.StatusServiceUnavailable
	case "57014":
		return http.StatusRequestTimeout
	}

	switch {
	case strings.HasPrefix(pgErr.Code, "22"), strings.HasPrefix(pgErr.Code, "42"):
		return http.StatusBadRequest
	case strings.HasPrefix(pgErr.Code, "53"):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func encodeOffset(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

func decodeOffset(token string) (int, error) {
	if token == "" {
		return 0, nil
	}

	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("invalid continuation token %q", token)
	}
	offset, err := strconv.Atoi(string(data))
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("invalid continuation token %q", token)
	}
	return offset, nil
}

func badRequest[T any](diagnostics string) *storagemodels.PageResponse[T] {
	return &storagemodels.PageResponse[T]{StatusCode: http.StatusBadRequest, Diagnostics: diagnostics}
}
