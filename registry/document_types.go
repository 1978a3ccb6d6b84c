/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/a11yscan/scanstore/partitionkey"
)

// documentTypeRegistry associates Go document types with their DocumentType tag.

var (
	documentTypeRegistry = make(map[reflect.Type]partitionkey.DocumentType)
	mu                   sync.RWMutex
)

// RegisterDocumentType associates a Go type T with the tag its documents are stored under.
// Registering the same type twice with a different tag panics to prevent accidental overrides.
func RegisterDocumentType[T any](documentType partitionkey.DocumentType) {
	var zero T
	t := reflect.TypeOf(zero)

	mu.Lock()
	defer mu.Unlock()
	if existing, ok := documentTypeRegistry[t]; ok && existing != documentType {
		panic(fmt.Sprintf("registry: %v already registered as %q", t, existing))
	}
	documentTypeRegistry[t] = documentType
}

// DocumentTypeOf returns the tag registered for type T, if any.
func DocumentTypeOf[T any]() (partitionkey.DocumentType, bool) {
	var zero T
	t := reflect.TypeOf(zero)

	mu.RLock()
	defer mu.RUnlock()
	dt, ok := documentTypeRegistry[t]
	return dt, ok
}
