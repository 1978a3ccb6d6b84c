/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package partitionkey

import (
	"fmt"
	"strconv"

	"github.com/a11yscan/scanstore/errors"
	"github.com/a11yscan/scanstore/identifier"
	"github.com/cespare/xxhash/v2"
)

// DefaultBucketCount is the number of hash buckets per document type.
const DefaultBucketCount = 1000

// NodeExtractor returns the stable node segment of an identifier.
type NodeExtractor func(id string) (string, error)

// HashBucketer folds a document type and a node into a partition key.
type HashBucketer func(documentType DocumentType, node string) string

// Factory derives partition keys. It holds no mutable state and is safe for concurrent use.
type Factory struct {
	extractNode NodeExtractor
	bucket      HashBucketer
	bucketCount uint64
}

// Option configures a Factory.
type Option func(*Factory)

// WithNodeExtractor replaces the default UUID node extractor.
func WithNodeExtractor(fn NodeExtractor) Option {
	return func(f *Factory) {
		f.extractNode = fn
	}
}

// WithHashBucketer replaces the default xxhash bucketer.
func WithHashBucketer(fn HashBucketer) Option {
	return func(f *Factory) {
		f.bucket = fn
	}
}

// WithBucketCount sets the bucket count used by the default bucketer.
// Changing it re-shards every document, so it must match across processes.
func WithBucketCount(n int) Option {
	return func(f *Factory) {
		if n > 0 {
			f.bucketCount = uint64(n)
		}
	}
}

// NewFactory returns a Factory using identifier.Node and xxhash buckets.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		extractNode: identifier.Node,
		bucketCount: DefaultBucketCount,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.bucket == nil {
		f.bucket = HashBucket(int(f.bucketCount))
	}
	return f
}

// CreatePartitionKeyForDocument maps (documentType, id) to a partition key.
// Ids that share a node get the same key for the same document type.
func (f *Factory) CreatePartitionKeyForDocument(documentType DocumentType, id string) (string, error) {
	if !documentType.Valid() {
		return "", errors.NewValidationError("documentType", fmt.Sprintf("unknown document type %q", documentType))
	}

	node, err := f.extractNode(id)
	if err != nil {
		return "", fmt.Errorf("failed to extract node for %s partition key: %w", documentType, err)
	}

	return f.bucket(documentType, node), nil
}

// HashBucket returns a HashBucketer producing "<type>-<bucket>" keys, bucket in [0, bucketCount).
func HashBucket(bucketCount int) HashBucketer {
	if bucketCount <= 0 {
		bucketCount = DefaultBucketCount
	}
	n := uint64(bucketCount)

	return func(documentType DocumentType, node string) string {
		h := xxhash.New()
		_, _ = h.WriteString(string(documentType))
		_, _ = h.WriteString("|")
		_, _ = h.WriteString(node)

		return string(documentType) + "-" + strconv.FormatUint(h.Sum64()%n, 10)
	}
}
