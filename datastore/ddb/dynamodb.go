/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/a11yscan/scanstore/datastore"
	scanerrors "github.com/a11yscan/scanstore/errors"
	"github.com/a11yscan/scanstore/registry"
	"github.com/a11yscan/scanstore/storagemodels"
)

// Client is the subset of the DynamoDB API the data store uses. *dynamodb.Client satisfies it.
type Client interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
	ExecuteStatement(ctx context.Context, params *sdk.ExecuteStatementInput, optFns ...func(*sdk.Options)) (*sdk.ExecuteStatementOutput, error)
}

// ClientConfig holds what is needed to reach a DynamoDB endpoint. Empty keys fall
// back to the default AWS credential chain.
type ClientConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// DynamodbDataStore implements datastore.DataStore[T] on a single DynamoDB table.
// Documents are stored as their JSON fields plus the partition and sort key attributes.
type DynamodbDataStore[T storagemodels.Document] struct {
	client    Client
	tableName string
	keys      KeySchema
	logger    *zap.Logger
}

var _ datastore.DataStore[storagemodels.Page] = (*DynamodbDataStore[storagemodels.Page])(nil)

// Option configures a DynamodbDataStore
type Option func(*storeOptions)

type storeOptions struct {
	keys   KeySchema
	logger *zap.Logger
}

// WithKeySchema overrides the key attribute names
func WithKeySchema(keys KeySchema) Option {
	return func(o *storeOptions) {
		o.keys = keys
	}
}

// WithLogger sets the store's logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *storeOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewDynamoDBClient initializes a DynamoDB client from cfg.
func NewDynamoDBClient(ctx context.Context, cfg ClientConfig) (*sdk.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return sdk.NewFromConfig(awsCfg, func(o *sdk.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// NewDynamodbDataStore constructs a DynamodbDataStore for type T on tableName.
func NewDynamodbDataStore[T storagemodels.Document](client Client, tableName string, opts ...Option) (*DynamodbDataStore[T], error) {
	if client == nil {
		return nil, errors.New("dynamodb client is required")
	}
	if tableName == "" {
		return nil, scanerrors.NewValidationError("tableName", "table name is required")
	}

	options := storeOptions{keys: DefaultKeySchema, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&options)
	}
	if err := options.keys.Validate(); err != nil {
		return nil, err
	}

	return &DynamodbDataStore[T]{
		client:    client,
		tableName: tableName,
		keys:      options.keys,
		logger:    options.logger,
	}, nil
}

// GetOne retrieves a single document by id and partition key.
func (d *DynamodbDataStore[T]) GetOne(ctx context.Context, id, partitionKey string) (*T, error) {
	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName: aws.String(d.tableName),
		Key:       d.keys.Key(partitionKey, id),
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, scanerrors.NewNotFoundError(documentTypeName[T](), id)
	}

	doc, err := d.decodeItem(out.Item)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Put stores doc, replacing any document with the same key.
func (d *DynamodbDataStore[T]) Put(ctx context.Context, doc T) error {
	if err := datastore.ValidateDocument(doc); err != nil {
		return err
	}

	item, err := d.encodeItem(doc)
	if err != nil {
		return err
	}

	_, err = d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("PutItem failed: %w", err)
	}

	d.logger.Debug("document stored",
		zap.String("table", d.tableName),
		zap.String("id", doc.DocumentID()),
		zap.String("partitionKey", doc.DocumentPartitionKey()),
	)
	return nil
}

// Delete removes a document. Deleting a missing document returns a NotFoundError.
func (d *DynamodbDataStore[T]) Delete(ctx context.Context, id, partitionKey string) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name(d.keys.PartitionKey))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build delete condition: %w", err)
	}

	_, err = d.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName:                 aws.String(d.tableName),
		Key:                       d.keys.Key(partitionKey, id),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return scanerrors.NewNotFoundError(documentTypeName[T](), id)
		}
		return fmt.Errorf("failed to delete item in DynamoDB: %w", err)
	}
	return nil
}

// encodeItem converts a document to a DynamoDB item through its JSON form, so the
// stored attributes use the same field names as every other backend.
func (d *DynamodbDataStore[T]) encodeItem(doc T) (map[string]types.AttributeValue, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	item, err := attributevalue.MarshalMap(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	for k, v := range d.keys.Key(doc.DocumentPartitionKey(), doc.DocumentID()) {
		item[k] = v
	}
	return item, nil
}

func (d *DynamodbDataStore[T]) decodeItem(item map[string]types.AttributeValue) (T, error) {
	var doc T

	var fields map[string]any
	if err := attributevalue.UnmarshalMap(item, &fields); err != nil {
		return doc, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	delete(fields, d.keys.PartitionKey)
	delete(fields, d.keys.SortKey)

	data, err := json.Marshal(fields)
	if err != nil {
		return doc, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return doc, nil
}

func documentTypeName[T any]() string {
	if dt, ok := registry.DocumentTypeOf[T](); ok {
		return string(dt)
	}
	var zero T
	return fmt.Sprintf("%T", zero)
}
