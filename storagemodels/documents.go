/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"encoding/json"

	"github.com/a11yscan/scanstore/partitionkey"
	"github.com/go-openapi/strfmt"
)

// Document is implemented by every persisted document through StorageDocument.
type Document interface {
	DocumentID() string
	DocumentPartitionKey() string
	DocumentType() partitionkey.DocumentType
}

// StorageDocument holds the fields every stored document carries.
type StorageDocument struct {
	ID           string                    `json:"id"`
	PartitionKey string                    `json:"partitionKey"`
	ItemType     partitionkey.DocumentType `json:"itemType"`
	ETag         string                    `json:"_etag,omitempty"`
}

func (d StorageDocument) DocumentID() string { return d.ID }

func (d StorageDocument) DocumentPartitionKey() string { return d.PartitionKey }

func (d StorageDocument) DocumentType() partitionkey.DocumentType { return d.ItemType }

// Website is a site registered for accessibility scanning.
type Website struct {
	StorageDocument

	Name    string `json:"name"`
	BaseURL string `json:"baseUrl"`
	Domain  string `json:"domain,omitempty"`

	CreatedAt *strfmt.DateTime `json:"createdAt,omitempty"`
}

// Page is a single URL discovered under a website.
type Page struct {
	StorageDocument

	WebsiteID string `json:"websiteId"`
	URL       string `json:"url"`
	Disabled  bool   `json:"disabled,omitempty"`

	LastSeen *strfmt.DateTime `json:"lastSeen,omitempty"`
}

// ScanStatus is the lifecycle state of a website or page scan.
type ScanStatus string

const (
	ScanStatusPending   ScanStatus = "pending"
	ScanStatusRunning   ScanStatus = "running"
	ScanStatusCompleted ScanStatus = "completed"
	ScanStatusFailed    ScanStatus = "failed"
)

// WebsiteScan is one scan run over a website.
type WebsiteScan struct {
	StorageDocument

	WebsiteID string     `json:"websiteId"`
	ScanType  string     `json:"scanType"`
	Status    ScanStatus `json:"scanStatus"`
	Notes     string     `json:"notes,omitempty"`

	StartTime *strfmt.DateTime `json:"startTime,omitempty"`
	EndTime   *strfmt.DateTime `json:"endTime,omitempty"`
}

// PageScanResult summarizes the outcome of scanning a single page.
type PageScanResult struct {
	State      string `json:"state"`
	IssueCount int    `json:"issueCount"`
}

// PageScan is the scan of one page within a website scan. Its id carries the node
// of the website scan, so all page scans of one run land in the same partition.
type PageScan struct {
	StorageDocument

	WebsiteScanID string          `json:"websiteScanId"`
	PageID        string          `json:"pageId"`
	Priority      int             `json:"priority"`
	Status        ScanStatus      `json:"scanStatus"`
	Result        *PageScanResult `json:"result,omitempty"`

	Timestamp *strfmt.DateTime `json:"timestamp,omitempty"`
}

// RawDocument is a document of any type. It decodes the common fields and keeps
// the full body so it can be decoded again once ItemType is known.
type RawDocument struct {
	StorageDocument

	Body json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps a copy of data alongside the common fields.
func (d *RawDocument) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &d.StorageDocument); err != nil {
		return err
	}
	d.Body = append(d.Body[:0], data...)
	return nil
}

// MarshalJSON writes the body back unchanged.
func (d RawDocument) MarshalJSON() ([]byte, error) {
	if len(d.Body) == 0 {
		return json.Marshal(d.StorageDocument)
	}
	return d.Body, nil
}
