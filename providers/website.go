/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package providers

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/a11yscan/scanstore/datastore"
	"github.com/a11yscan/scanstore/errors"
	"github.com/a11yscan/scanstore/paging"
	"github.com/a11yscan/scanstore/partitionkey"
	"github.com/a11yscan/scanstore/storagemodels"
)

// WebsiteProvider manages websites.
type WebsiteProvider struct {
	store datastore.DataStore[storagemodels.Website]
	options
}

// NewWebsiteProvider returns a provider over store.
func NewWebsiteProvider(store datastore.DataStore[storagemodels.Website], opts ...Option) *WebsiteProvider {
	return &WebsiteProvider{store: store, options: applyOptions(opts)}
}

// Create registers a website under a fresh id.
func (p *WebsiteProvider) Create(ctx context.Context, name, baseURL string) (*storagemodels.Website, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.NewValidationError("baseUrl", fmt.Sprintf("%q is not an absolute URL", baseURL))
	}

	id, err := p.ids.New()
	if err != nil {
		return nil, err
	}
	pk, err := p.locate(partitionkey.Website, id)
	if err != nil {
		return nil, err
	}

	website := storagemodels.Website{
		StorageDocument: storagemodels.StorageDocument{ID: id, PartitionKey: pk, ItemType: partitionkey.Website},
		Name:            name,
		BaseURL:         baseURL,
		Domain:          u.Hostname(),
		CreatedAt:       p.timestamp(),
	}
	if err := p.store.Put(ctx, website); err != nil {
		return nil, fmt.Errorf("failed to store website: %w", err)
	}

	p.logger.Debug("created website", zap.String("id", id), zap.String("partitionKey", pk))
	return &website, nil
}

// Get returns the website with the given id.
func (p *WebsiteProvider) Get(ctx context.Context, id string) (*storagemodels.Website, error) {
	pk, err := p.locate(partitionkey.Website, id)
	if err != nil {
		return nil, err
	}
	return p.store.GetOne(ctx, id, pk)
}

// Delete removes the website with the given id. Its pages are left in place.
func (p *WebsiteProvider) Delete(ctx context.Context, id string) error {
	pk, err := p.locate(partitionkey.Website, id)
	if err != nil {
		return err
	}
	return p.store.Delete(ctx, id, pk)
}

// All returns every website. Websites are spread over all buckets, so this
// runs a cross-partition query.
func (p *WebsiteProvider) All(query storagemodels.Query) *paging.QueryResultsIterable[storagemodels.Website] {
	return paging.NewQueryResultsIterable[storagemodels.Website](p.store, query, p.pagingOpts...)
}
