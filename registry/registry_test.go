/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"testing"

	"github.com/a11yscan/scanstore/partitionkey"
	"github.com/a11yscan/scanstore/storagemodels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltInDocumentTypes(t *testing.T) {
	tests := []struct {
		name string
		got  func() (partitionkey.DocumentType, bool)
		want partitionkey.DocumentType
	}{
		{"website", DocumentTypeOf[storagemodels.Website], partitionkey.Website},
		{"page", DocumentTypeOf[storagemodels.Page], partitionkey.Page},
		{"websiteScan", DocumentTypeOf[storagemodels.WebsiteScan], partitionkey.WebsiteScan},
		{"pageScan", DocumentTypeOf[storagemodels.PageScan], partitionkey.PageScan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt, ok := tt.got()
			require.True(t, ok)
			assert.Equal(t, tt.want, dt)
		})
	}
}

func TestDocumentTypeOfUnregistered(t *testing.T) {
	_, ok := DocumentTypeOf[struct{ Name string }]()
	assert.False(t, ok)
}

func TestRegisterDocumentTypeConflictPanics(t *testing.T) {
	type probe struct{}
	RegisterDocumentType[probe]("probe")
	assert.NotPanics(t, func() { RegisterDocumentType[probe]("probe") })
	assert.Panics(t, func() { RegisterDocumentType[probe]("other") })
}

func TestRegisterDecoderTwicePanics(t *testing.T) {
	assert.Panics(t, func() {
		RegisterDecoder(partitionkey.Website, func([]byte) (storagemodels.Document, error) { return nil, nil })
	})
}

func TestDecodeRawDocument(t *testing.T) {
	body := []byte(`{"id":"p1","partitionKey":"page-1","itemType":"page","websiteId":"w1","url":"https://example.com/a"}`)

	var raw storagemodels.RawDocument
	require.NoError(t, raw.UnmarshalJSON(body))
	assert.Equal(t, partitionkey.Page, raw.ItemType)

	doc, err := Decode(raw)
	require.NoError(t, err)
	page, ok := doc.(storagemodels.Page)
	require.True(t, ok)
	assert.Equal(t, "p1", page.ID)
	assert.Equal(t, "w1", page.WebsiteID)
	assert.Equal(t, "https://example.com/a", page.URL)
}

func TestDecodeUnknownType(t *testing.T) {
	raw := storagemodels.RawDocument{StorageDocument: storagemodels.StorageDocument{ItemType: "unknown"}}
	_, err := Decode(raw)
	assert.Error(t, err)
}
