/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package partitionkey

// DocumentType tags the kind of document a partition key is derived for.
type DocumentType string

const (
	Website     DocumentType = "website"
	Page        DocumentType = "page"
	WebsiteScan DocumentType = "websiteScan"
	PageScan    DocumentType = "pageScan"
)

// DocumentTypes lists every known tag.
var DocumentTypes = []DocumentType{Website, Page, WebsiteScan, PageScan}

// Valid reports whether t is one of the known document types.
func (t DocumentType) Valid() bool {
	switch t {
	case Website, Page, WebsiteScan, PageScan:
		return true
	}
	return false
}

// ParseDocumentType converts a tag string into a DocumentType.
func ParseDocumentType(s string) (DocumentType, bool) {
	t := DocumentType(s)
	return t, t.Valid()
}
