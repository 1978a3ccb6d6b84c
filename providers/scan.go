/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package providers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/a11yscan/scanstore/datastore"
	"github.com/a11yscan/scanstore/errors"
	"github.com/a11yscan/scanstore/paging"
	"github.com/a11yscan/scanstore/partitionkey"
	"github.com/a11yscan/scanstore/storagemodels"
)

// ScanProvider manages website scans and their page scans. A website scan id is a
// child of the website id and a page scan id is a child of the website scan id,
// so every scan of a website shares the website's node.
type ScanProvider struct {
	websiteScans datastore.DataStore[storagemodels.WebsiteScan]
	pageScans    datastore.DataStore[storagemodels.PageScan]
	options
}

// NewScanProvider returns a provider over the two scan stores.
func NewScanProvider(
	websiteScans datastore.DataStore[storagemodels.WebsiteScan],
	pageScans datastore.DataStore[storagemodels.PageScan],
	opts ...Option,
) *ScanProvider {
	return &ScanProvider{websiteScans: websiteScans, pageScans: pageScans, options: applyOptions(opts)}
}

// StartWebsiteScan records a pending scan of a website.
func (p *ScanProvider) StartWebsiteScan(ctx context.Context, websiteID, scanType string) (*storagemodels.WebsiteScan, error) {
	id, err := p.ids.NewChild(websiteID)
	if err != nil {
		return nil, err
	}
	pk, err := p.locate(partitionkey.WebsiteScan, id)
	if err != nil {
		return nil, err
	}

	scan := storagemodels.WebsiteScan{
		StorageDocument: storagemodels.StorageDocument{ID: id, PartitionKey: pk, ItemType: partitionkey.WebsiteScan},
		WebsiteID:       websiteID,
		ScanType:        scanType,
		Status:          storagemodels.ScanStatusPending,
		StartTime:       p.timestamp(),
	}
	if err := p.websiteScans.Put(ctx, scan); err != nil {
		return nil, fmt.Errorf("failed to store website scan: %w", err)
	}

	p.logger.Info("started website scan", zap.String("id", id), zap.String("websiteId", websiteID))
	return &scan, nil
}

// GetWebsiteScan returns the website scan with the given id.
func (p *ScanProvider) GetWebsiteScan(ctx context.Context, id string) (*storagemodels.WebsiteScan, error) {
	pk, err := p.locate(partitionkey.WebsiteScan, id)
	if err != nil {
		return nil, err
	}
	return p.websiteScans.GetOne(ctx, id, pk)
}

// SetWebsiteScanStatus moves a website scan to status. Finished scans get an end time.
func (p *ScanProvider) SetWebsiteScanStatus(ctx context.Context, id string, status storagemodels.ScanStatus) (*storagemodels.WebsiteScan, error) {
	scan, err := p.GetWebsiteScan(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(scan.Status, status); err != nil {
		return nil, err
	}

	scan.Status = status
	if finished(status) {
		scan.EndTime = p.timestamp()
	}
	if err := p.websiteScans.Put(ctx, *scan); err != nil {
		return nil, fmt.Errorf("failed to update website scan %s: %w", id, err)
	}
	return scan, nil
}

// ListWebsiteScans returns the scans of a website.
func (p *ScanProvider) ListWebsiteScans(websiteID string) (*paging.QueryResultsIterable[storagemodels.WebsiteScan], error) {
	pk, err := p.locate(partitionkey.WebsiteScan, websiteID)
	if err != nil {
		return nil, err
	}

	query := p.websiteScans.PartitionQuery(pk, partitionkey.WebsiteScan, datastore.Where("websiteId", websiteID))
	return paging.NewQueryResultsIterable[storagemodels.WebsiteScan](p.websiteScans, query, p.pagingOpts...), nil
}

// AddPageScan queues the scan of one page within a website scan.
func (p *ScanProvider) AddPageScan(ctx context.Context, websiteScanID, pageID string, priority int) (*storagemodels.PageScan, error) {
	id, err := p.ids.NewChild(websiteScanID)
	if err != nil {
		return nil, err
	}
	pk, err := p.locate(partitionkey.PageScan, id)
	if err != nil {
		return nil, err
	}

	scan := storagemodels.PageScan{
		StorageDocument: storagemodels.StorageDocument{ID: id, PartitionKey: pk, ItemType: partitionkey.PageScan},
		WebsiteScanID:   websiteScanID,
		PageID:          pageID,
		Priority:        priority,
		Status:          storagemodels.ScanStatusPending,
		Timestamp:       p.timestamp(),
	}
	if err := p.pageScans.Put(ctx, scan); err != nil {
		return nil, fmt.Errorf("failed to store page scan: %w", err)
	}
	return &scan, nil
}

// GetPageScan returns the page scan with the given id.
func (p *ScanProvider) GetPageScan(ctx context.Context, id string) (*storagemodels.PageScan, error) {
	pk, err := p.locate(partitionkey.PageScan, id)
	if err != nil {
		return nil, err
	}
	return p.pageScans.GetOne(ctx, id, pk)
}

// CompletePageScan stores the result of a page scan. A result in state "failed"
// fails the page scan; any other result completes it.
func (p *ScanProvider) CompletePageScan(ctx context.Context, id string, result storagemodels.PageScanResult) (*storagemodels.PageScan, error) {
	scan, err := p.GetPageScan(ctx, id)
	if err != nil {
		return nil, err
	}

	status := storagemodels.ScanStatusCompleted
	if result.State == string(storagemodels.ScanStatusFailed) {
		status = storagemodels.ScanStatusFailed
	}
	if err := checkTransition(scan.Status, status); err != nil {
		return nil, err
	}

	scan.Status = status
	scan.Result = &result
	scan.Timestamp = p.timestamp()
	if err := p.pageScans.Put(ctx, *scan); err != nil {
		return nil, fmt.Errorf("failed to update page scan %s: %w", id, err)
	}
	return scan, nil
}

// ListPageScans returns the page scans of a website scan.
func (p *ScanProvider) ListPageScans(websiteScanID string) (*paging.QueryResultsIterable[storagemodels.PageScan], error) {
	pk, err := p.locate(partitionkey.PageScan, websiteScanID)
	if err != nil {
		return nil, err
	}

	query := p.pageScans.PartitionQuery(pk, partitionkey.PageScan, datastore.Where("websiteScanId", websiteScanID))
	return paging.NewQueryResultsIterable[storagemodels.PageScan](p.pageScans, query, p.pagingOpts...), nil
}

func finished(status storagemodels.ScanStatus) bool {
	return status == storagemodels.ScanStatusCompleted || status == storagemodels.ScanStatusFailed
}

// checkTransition allows pending → running → completed|failed, skipping running.
func checkTransition(from, to storagemodels.ScanStatus) error {
	allowed := false
	switch from {
	case storagemodels.ScanStatusPending:
		allowed = to == storagemodels.ScanStatusRunning || finished(to)
	case storagemodels.ScanStatusRunning:
		allowed = finished(to)
	}
	if !allowed {
		return errors.NewConditionFailedError("scan status transition", fmt.Sprintf("%s -> %s", from, to))
	}
	return nil
}
