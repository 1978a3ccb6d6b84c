/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/a11yscan/scanstore/errors"
)

// KeySchema holds the table's key attribute names
type KeySchema struct {
	// PartitionKey is the hash key attribute; it holds the document's partition key (e.g., "PK")
	PartitionKey string
	// SortKey is the range key attribute; it holds the document id (e.g., "SK")
	SortKey string
}

// DefaultKeySchema matches a single-table design with generic key names
var DefaultKeySchema = KeySchema{
	PartitionKey: "PK",
	SortKey:      "SK",
}

// Validate checks that both attribute names are set and distinct
func (k KeySchema) Validate() error {
	if k.PartitionKey == "" || k.SortKey == "" {
		return errors.NewValidationError("keySchema", "partition and sort key attribute names are required")
	}
	if k.PartitionKey == k.SortKey {
		return errors.NewValidationError("keySchema", "partition and sort key attributes must differ")
	}
	return nil
}

// Key builds the primary key of a document
func (k KeySchema) Key(partitionKey, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		k.PartitionKey: &types.AttributeValueMemberS{Value: partitionKey},
		k.SortKey:      &types.AttributeValueMemberS{Value: id},
	}
}
