/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"
)

// StreamResult represents a single item in a stream with metadata
type StreamResult[T any] struct {
	Item  T          // The decoded document
	Error error      // Set on the final result when the stream failed
	Meta  StreamMeta // Metadata about this item
}

// StreamMeta contains metadata about a streamed item
type StreamMeta struct {
	Index      int64     // Item index in stream (0-based)
	PageNumber int       // Page number (1-based)
	Timestamp  time.Time // When item was handed to the consumer
}

// StreamProgress tracks paging progress, reported once per fetched page
type StreamProgress struct {
	ItemsProcessed    int64     // Total items fetched so far
	PagesProcessed    int       // Total pages fetched so far
	ContinuationToken string    // Token returned with the last page, empty at the end
	StartTime         time.Time // When the first page was requested
	CurrentRate       float64   // Items per second
}
