/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"encoding/json"
	"fmt"

	"github.com/a11yscan/scanstore/partitionkey"
	"github.com/a11yscan/scanstore/storagemodels"
)

// DecodeFunc turns a stored JSON body into its typed document.
type DecodeFunc func(body []byte) (storagemodels.Document, error)

// decoderRegistry holds the mapping from a document type tag to its decode function.
var decoderRegistry = make(map[partitionkey.DocumentType]DecodeFunc)

// RegisterDecoder registers a decode function for a document type.
// If a decoder is already registered for the tag, it panics to prevent accidental overrides.
func RegisterDecoder(documentType partitionkey.DocumentType, fn DecodeFunc) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := decoderRegistry[documentType]; exists {
		panic(fmt.Sprintf("registry: decoder for %q already registered", documentType))
	}
	decoderRegistry[documentType] = fn
}

// GetDecoder returns the registered decode function for the given document type.
func GetDecoder(documentType partitionkey.DocumentType) (DecodeFunc, error) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := decoderRegistry[documentType]
	if !ok {
		return nil, fmt.Errorf("registry: no decoder registered for document type %q", documentType)
	}
	return fn, nil
}

// Decode resolves a RawDocument into its registered Go type.
func Decode(raw storagemodels.RawDocument) (storagemodels.Document, error) {
	fn, err := GetDecoder(raw.ItemType)
	if err != nil {
		return nil, err
	}
	return fn(raw.Body)
}

// Register wires both the type mapping and a JSON decoder for T.
func Register[T storagemodels.Document](documentType partitionkey.DocumentType) {
	RegisterDocumentType[T](documentType)
	RegisterDecoder(documentType, func(body []byte) (storagemodels.Document, error) {
		var doc T
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s document: %w", documentType, err)
		}
		return doc, nil
	})
}

func init() {
	Register[storagemodels.Website](partitionkey.Website)
	Register[storagemodels.Page](partitionkey.Page)
	Register[storagemodels.WebsiteScan](partitionkey.WebsiteScan)
	Register[storagemodels.PageScan](partitionkey.PageScan)
}
