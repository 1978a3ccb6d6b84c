/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package scanstore

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/a11yscan/scanstore/datastore"
	"github.com/a11yscan/scanstore/paging"
	"github.com/a11yscan/scanstore/storagemodels"
)

// TypedStorage holds the named datastores of one document type
type TypedStorage[T storagemodels.Document] struct {
	mu     sync.RWMutex
	stores map[string]datastore.DataStore[T]
}

// NewTypedStorage creates a new TypedStorage for type T
func NewTypedStorage[T storagemodels.Document]() *TypedStorage[T] {
	return &TypedStorage[T]{
		stores: make(map[string]datastore.DataStore[T]),
	}
}

// Register adds a datastore with the given key
func (ts *TypedStorage[T]) Register(key string, ds datastore.DataStore[T]) error {
	if ds == nil {
		return fmt.Errorf("datastore for key %q is nil", key)
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	if _, exists := ts.stores[key]; exists {
		return fmt.Errorf("datastore with key %q already registered", key)
	}

	ts.stores[key] = ds
	return nil
}

// Get retrieves a datastore by key
func (ts *TypedStorage[T]) Get(key string) (datastore.DataStore[T], error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	ds, exists := ts.stores[key]
	if !exists {
		return nil, fmt.Errorf("%s datastore with key %q not found", typeName[T](), key)
	}

	return ds, nil
}

// Remove deletes a datastore by key
func (ts *TypedStorage[T]) Remove(key string) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if _, exists := ts.stores[key]; !exists {
		return fmt.Errorf("%s datastore with key %q not found", typeName[T](), key)
	}

	delete(ts.stores, key)
	return nil
}

// List returns all registered datastore keys in sorted order
func (ts *TypedStorage[T]) List() []string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	keys := make([]string, 0, len(ts.stores))
	for k := range ts.stores {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MultiTypeStorage manages TypedStorage instances for different document types.
// The same key may be used for different types, so one backend can be registered
// under its name for every document type it holds.
type MultiTypeStorage struct {
	mu       sync.Mutex
	storages map[reflect.Type]any
}

// NewMultiTypeStorage creates a new MultiTypeStorage
func NewMultiTypeStorage() *MultiTypeStorage {
	return &MultiTypeStorage{
		storages: make(map[reflect.Type]any),
	}
}

// GetTypedStorage returns a TypedStorage for the specified type, creating it if necessary
func GetTypedStorage[T storagemodels.Document](mts *MultiTypeStorage) *TypedStorage[T] {
	mts.mu.Lock()
	defer mts.mu.Unlock()

	typ := reflect.TypeFor[T]()

	if storage, exists := mts.storages[typ]; exists {
		return storage.(*TypedStorage[T])
	}

	newStorage := NewTypedStorage[T]()
	mts.storages[typ] = newStorage
	return newStorage
}

// RegisterDataStore is a convenience function to register a datastore for type T
func RegisterDataStore[T storagemodels.Document](mts *MultiTypeStorage, key string, ds datastore.DataStore[T]) error {
	return GetTypedStorage[T](mts).Register(key, ds)
}

// GetDataStore is a convenience function to get a datastore for type T
func GetDataStore[T storagemodels.Document](mts *MultiTypeStorage, key string) (datastore.DataStore[T], error) {
	return GetTypedStorage[T](mts).Get(key)
}

// RemoveDataStore is a convenience function to remove a datastore for type T
func RemoveDataStore[T storagemodels.Document](mts *MultiTypeStorage, key string) error {
	return GetTypedStorage[T](mts).Remove(key)
}

// ListDataStores is a convenience function to list all datastores for type T
func ListDataStores[T storagemodels.Document](mts *MultiTypeStorage) []string {
	return GetTypedStorage[T](mts).List()
}

// Query returns a lazy iterable over query run against the datastore registered
// for T under key.
func Query[T storagemodels.Document](mts *MultiTypeStorage, key string, query storagemodels.Query, opts ...paging.Option) (*paging.QueryResultsIterable[T], error) {
	ds, err := GetDataStore[T](mts, key)
	if err != nil {
		return nil, err
	}
	return paging.NewQueryResultsIterable[T](ds, query, opts...), nil
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().Name()
}
