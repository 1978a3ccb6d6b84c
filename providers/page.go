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

// PageProvider manages the pages of websites. A page id is a child of its
// website id, so all pages of a website live in one partition.
type PageProvider struct {
	store datastore.DataStore[storagemodels.Page]
	options
}

// NewPageProvider returns a provider over store.
func NewPageProvider(store datastore.DataStore[storagemodels.Page], opts ...Option) *PageProvider {
	return &PageProvider{store: store, options: applyOptions(opts)}
}

// Create adds a page to a website.
func (p *PageProvider) Create(ctx context.Context, websiteID, pageURL string) (*storagemodels.Page, error) {
	if _, err := url.ParseRequestURI(pageURL); err != nil {
		return nil, errors.NewValidationError("url", fmt.Sprintf("%q is not a URL", pageURL))
	}

	id, err := p.ids.NewChild(websiteID)
	if err != nil {
		return nil, err
	}
	pk, err := p.locate(partitionkey.Page, id)
	if err != nil {
		return nil, err
	}

	page := storagemodels.Page{
		StorageDocument: storagemodels.StorageDocument{ID: id, PartitionKey: pk, ItemType: partitionkey.Page},
		WebsiteID:       websiteID,
		URL:             pageURL,
		LastSeen:        p.timestamp(),
	}
	if err := p.store.Put(ctx, page); err != nil {
		return nil, fmt.Errorf("failed to store page: %w", err)
	}

	p.logger.Debug("created page",
		zap.String("id", id),
		zap.String("websiteId", websiteID),
		zap.String("partitionKey", pk),
	)
	return &page, nil
}

// Get returns the page with the given id.
func (p *PageProvider) Get(ctx context.Context, id string) (*storagemodels.Page, error) {
	pk, err := p.locate(partitionkey.Page, id)
	if err != nil {
		return nil, err
	}
	return p.store.GetOne(ctx, id, pk)
}

// SetDisabled marks a page as excluded from (or included in) future scans.
func (p *PageProvider) SetDisabled(ctx context.Context, id string, disabled bool) (*storagemodels.Page, error) {
	page, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	page.Disabled = disabled
	if err := p.store.Put(ctx, *page); err != nil {
		return nil, fmt.Errorf("failed to update page %s: %w", id, err)
	}
	return page, nil
}

// Delete removes the page with the given id.
func (p *PageProvider) Delete(ctx context.Context, id string) error {
	pk, err := p.locate(partitionkey.Page, id)
	if err != nil {
		return err
	}
	return p.store.Delete(ctx, id, pk)
}

// ListByWebsite returns the pages of a website. Other websites may hash into the
// same bucket, so the query also filters on the website id.
func (p *PageProvider) ListByWebsite(websiteID string) (*paging.QueryResultsIterable[storagemodels.Page], error) {
	pk, err := p.locate(partitionkey.Page, websiteID)
	if err != nil {
		return nil, err
	}

	query := p.store.PartitionQuery(pk, partitionkey.Page, datastore.Where("websiteId", websiteID))
	return paging.NewQueryResultsIterable[storagemodels.Page](p.store, query, p.pagingOpts...), nil
}
