/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/a11yscan/scanstore/datastore"
	scanerrors "github.com/a11yscan/scanstore/errors"
	"github.com/a11yscan/scanstore/registry"
	"github.com/a11yscan/scanstore/storagemodels"
)

// Querier is the subset of pgx the data store uses. *pgxpool.Pool and *pgx.Conn satisfy it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PostgresDataStore implements datastore.DataStore[T] on a table of jsonb documents.
type PostgresDataStore[T storagemodels.Document] struct {
	db     Querier
	table  string
	logger *zap.Logger
}

var _ datastore.DataStore[storagemodels.Page] = (*PostgresDataStore[storagemodels.Page])(nil)

// Option configures a PostgresDataStore
type Option func(*storeOptions)

type storeOptions struct {
	logger *zap.Logger
}

// WithLogger sets the store's logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *storeOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	return pool, nil
}

// NewPostgresDataStore constructs a PostgresDataStore for type T on table.
func NewPostgresDataStore[T storagemodels.Document](db Querier, table string, opts ...Option) (*PostgresDataStore[T], error) {
	if db == nil {
		return nil, errors.New("postgres querier is required")
	}
	if !tableNamePattern.MatchString(table) {
		return nil, scanerrors.NewValidationError("table", fmt.Sprintf("invalid table name %q", table))
	}

	options := storeOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&options)
	}

	return &PostgresDataStore[T]{
		db:     db,
		table:  pgx.Identifier{table}.Sanitize(),
		logger: options.logger,
	}, nil
}

// EnsureSchema creates the document table and its type index if they are missing.
func (p *PostgresDataStore[T]) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			partition_key text NOT NULL,
			id text NOT NULL,
			item_type text NOT NULL,
			body jsonb NOT NULL,
			PRIMARY KEY (partition_key, id)
		)`, p.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (partition_key, item_type, id)`,
			pgx.Identifier{trimQuotes(p.table) + "_type_idx"}.Sanitize(), p.table),
	}

	for _, sql := range statements {
		if _, err := p.db.Exec(ctx, sql); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// GetOne retrieves a single document by id and partition key.
func (p *PostgresDataStore[T]) GetOne(ctx context.Context, id, partitionKey string) (*T, error) {
	sql := fmt.Sprintf(`SELECT body FROM %s WHERE partition_key = $1 AND id = $2`, p.table)

	var body []byte
	err := p.db.QueryRow(ctx, sql, partitionKey, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, scanerrors.NewNotFoundError(documentTypeName[T](), id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	var doc T
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &doc, nil
}

// Put inserts or replaces a document.
func (p *PostgresDataStore[T]) Put(ctx context.Context, doc T) error {
	if err := datastore.ValidateDocument(doc); err != nil {
		return err
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	sql := fmt.Sprintf(`INSERT INTO %s (partition_key, id, item_type, body)
		VALUES (@partitionKey, @id, @itemType, @body)
		ON CONFLICT (partition_key, id) DO UPDATE SET item_type = EXCLUDED.item_type, body = EXCLUDED.body`, p.table)

	_, err = p.db.Exec(ctx, sql, pgx.NamedArgs{
		"partitionKey": doc.DocumentPartitionKey(),
		"id":           doc.DocumentID(),
		"itemType":     string(doc.DocumentType()),
		"body":         string(body),
	})
	if err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	return nil
}

// Delete removes a document. Deleting a missing document returns a NotFoundError.
func (p *PostgresDataStore[T]) Delete(ctx context.Context, id, partitionKey string) error {
	sql := fmt.Sprintf(`DELETE FROM %s WHERE partition_key = $1 AND id = $2`, p.table)

	tag, err := p.db.Exec(ctx, sql, partitionKey, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return scanerrors.NewNotFoundError(documentTypeName[T](), id)
	}
	return nil
}

func documentTypeName[T any]() string {
	if dt, ok := registry.DocumentTypeOf[T](); ok {
		return string(dt)
	}
	var zero T
	return fmt.Sprintf("%T", zero)
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
