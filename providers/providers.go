/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package providers

import (
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"
	"go.uber.org/zap"

	"github.com/a11yscan/scanstore/identifier"
	"github.com/a11yscan/scanstore/paging"
	"github.com/a11yscan/scanstore/partitionkey"
)

// Option configures a provider.
type Option func(*options)

type options struct {
	ids        *identifier.Generator
	keys       *partitionkey.Factory
	logger     *zap.Logger
	now        func() time.Time
	pagingOpts []paging.Option
}

func defaultOptions() options {
	return options{
		ids:    identifier.NewGenerator(),
		keys:   partitionkey.NewFactory(),
		logger: zap.NewNop(),
		now:    time.Now,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithGenerator sets the id generator.
func WithGenerator(ids *identifier.Generator) Option {
	return func(o *options) {
		if ids != nil {
			o.ids = ids
		}
	}
}

// WithPartitionKeyFactory sets the partition key factory. Every process sharing a
// store must use an equivalent factory.
func WithPartitionKeyFactory(keys *partitionkey.Factory) Option {
	return func(o *options) {
		if keys != nil {
			o.keys = keys
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock sets the source of creation and status timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithPagingOptions sets the options of every iterable a provider returns.
func WithPagingOptions(opts ...paging.Option) Option {
	return func(o *options) {
		o.pagingOpts = append(o.pagingOpts, opts...)
	}
}

// locate returns the partition key of the document with the given id.
func (o options) locate(documentType partitionkey.DocumentType, id string) (string, error) {
	pk, err := o.keys.CreatePartitionKeyForDocument(documentType, id)
	if err != nil {
		return "", fmt.Errorf("failed to locate %s %s: %w", documentType, id, err)
	}
	return pk, nil
}

func (o options) timestamp() *strfmt.DateTime {
	t := strfmt.DateTime(o.now().UTC())
	return &t
}
