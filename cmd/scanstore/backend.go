/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/a11yscan/scanstore"
	"github.com/a11yscan/scanstore/config"
	"github.com/a11yscan/scanstore/datastore"
	"github.com/a11yscan/scanstore/datastore/ddb"
	"github.com/a11yscan/scanstore/datastore/decorators"
	"github.com/a11yscan/scanstore/datastore/memory"
	"github.com/a11yscan/scanstore/datastore/pg"
	"github.com/a11yscan/scanstore/storagemodels"
)

const tracerName = "github.com/a11yscan/scanstore/cmd/scanstore"

// backend is an opened storage backend with one datastore per document type,
// registered under the backend name.
type backend struct {
	name      string
	stores    *scanstore.MultiTypeStorage
	retryable func(error) bool
	closers   []func()
}

func (b *backend) Close() {
	for _, c := range b.closers {
		c()
	}
}

func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backend, error) {
	b := &backend{name: string(cfg.Backend), stores: scanstore.NewMultiTypeStorage()}

	switch cfg.Backend {
	case config.BackendMemory:
		err := errors.Join(
			scanstore.RegisterDataStore[storagemodels.Website](b.stores, b.name, memory.New[storagemodels.Website]()),
			scanstore.RegisterDataStore[storagemodels.Page](b.stores, b.name, memory.New[storagemodels.Page]()),
			scanstore.RegisterDataStore[storagemodels.WebsiteScan](b.stores, b.name, memory.New[storagemodels.WebsiteScan]()),
			scanstore.RegisterDataStore[storagemodels.PageScan](b.stores, b.name, memory.New[storagemodels.PageScan]()),
			scanstore.RegisterDataStore[storagemodels.RawDocument](b.stores, b.name, memory.New[storagemodels.RawDocument]()),
		)
		if err != nil {
			return nil, err
		}

	case config.BackendDynamoDB:
		client, err := ddb.NewDynamoDBClient(ctx, ddb.ClientConfig{
			Region:          cfg.DynamoDB.Region,
			Endpoint:        cfg.DynamoDB.Endpoint,
			AccessKeyID:     cfg.DynamoDB.AccessKeyID,
			SecretAccessKey: cfg.DynamoDB.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		b.retryable = ddb.IsRetryableError

		err = errors.Join(
			addDynamoDB[storagemodels.Website](b, client, cfg.DynamoDB, logger),
			addDynamoDB[storagemodels.Page](b, client, cfg.DynamoDB, logger),
			addDynamoDB[storagemodels.WebsiteScan](b, client, cfg.DynamoDB, logger),
			addDynamoDB[storagemodels.PageScan](b, client, cfg.DynamoDB, logger),
			addDynamoDB[storagemodels.RawDocument](b, client, cfg.DynamoDB, logger),
		)
		if err != nil {
			return nil, err
		}

	case config.BackendPostgres:
		pool, err := pg.Connect(ctx, cfg.Postgres.ConnString)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)

		raw, err := pg.NewPostgresDataStore[storagemodels.RawDocument](pool, cfg.Postgres.Table, pg.WithLogger(logger))
		if err != nil {
			b.Close()
			return nil, err
		}
		if cfg.Postgres.EnsureSchema {
			if err := raw.EnsureSchema(ctx); err != nil {
				b.Close()
				return nil, err
			}
		}

		err = errors.Join(
			scanstore.RegisterDataStore[storagemodels.RawDocument](b.stores, b.name, raw),
			addPostgres[storagemodels.Website](b, pool, cfg.Postgres, logger),
			addPostgres[storagemodels.Page](b, pool, cfg.Postgres, logger),
			addPostgres[storagemodels.WebsiteScan](b, pool, cfg.Postgres, logger),
			addPostgres[storagemodels.PageScan](b, pool, cfg.Postgres, logger),
		)
		if err != nil {
			b.Close()
			return nil, err
		}

	default:
		return nil, errors.New("unknown backend " + b.name)
	}

	logger.Debug("opened backend", zap.String("backend", b.name))
	return b, nil
}

func addDynamoDB[T storagemodels.Document](b *backend, client ddb.Client, cfg config.DynamoDBConfig, logger *zap.Logger) error {
	keys := ddb.KeySchema{PartitionKey: cfg.PartitionKeyAttribute, SortKey: cfg.SortKeyAttribute}

	store, err := ddb.NewDynamodbDataStore[T](client, cfg.Table, ddb.WithKeySchema(keys), ddb.WithLogger(logger))
	if err != nil {
		return err
	}
	return scanstore.RegisterDataStore[T](b.stores, b.name, store)
}

func addPostgres[T storagemodels.Document](b *backend, db pg.Querier, cfg config.PostgresConfig, logger *zap.Logger) error {
	store, err := pg.NewPostgresDataStore[T](db, cfg.Table, pg.WithLogger(logger))
	if err != nil {
		return err
	}
	return scanstore.RegisterDataStore[T](b.stores, b.name, store)
}

// store returns the backend's datastore for T.
func store[T storagemodels.Document](b *backend) (datastore.DataStore[T], error) {
	return scanstore.GetDataStore[T](b.stores, b.name)
}

// decorate wraps inner in the configured resilience and observability layers:
// tracing → metrics → retry → circuit breaker → inner.
func decorate[T any](inner storagemodels.QueryExecutor[T], cfg *config.Config, b *backend, collector *decorators.Collector) storagemodels.QueryExecutor[T] {
	executor := inner

	if cfg.Breaker.Enabled {
		executor = decorators.WithCircuitBreaker(executor, decorators.BreakerConfig{
			Name:             cfg.Breaker.Name,
			MaxRequests:      cfg.Breaker.MaxRequests,
			Interval:         cfg.Breaker.Interval,
			Timeout:          cfg.Breaker.Timeout,
			FailureThreshold: cfg.Breaker.FailureThreshold,
			MinRequests:      cfg.Breaker.MinRequests,
		})
	}

	executor = decorators.WithRetry(executor, decorators.RetryConfig{
		MaxRetries:     cfg.Retry.MaxRetries,
		InitialDelay:   cfg.Retry.InitialDelay,
		MaxDelay:       cfg.Retry.MaxDelay,
		BackoffFactor:  cfg.Retry.BackoffFactor,
		JitterFactor:   cfg.Retry.JitterFactor,
		RetryableError: b.retryable,
	})
	executor = decorators.WithMetrics(executor, collector, b.name)
	executor = decorators.WithTracing(executor, otel.Tracer(tracerName))

	return executor
}
