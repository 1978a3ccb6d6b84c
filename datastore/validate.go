/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"github.com/a11yscan/scanstore/errors"
	"github.com/a11yscan/scanstore/registry"
	"github.com/a11yscan/scanstore/storagemodels"
)

// ValidateDocument checks the fields every store needs before a write: an id, a
// partition key, and a type tag that matches the one registered for T.
func ValidateDocument[T storagemodels.Document](doc T) error {
	if doc.DocumentID() == "" {
		return errors.NewValidationError("id", "document id is required")
	}
	if doc.DocumentPartitionKey() == "" {
		return errors.NewValidationError("partitionKey", "partition key is required")
	}

	dt := doc.DocumentType()
	if registered, ok := registry.DocumentTypeOf[T](); ok {
		if registered != dt {
			return errors.NewValidationError("itemType", "expected "+string(registered)+", got "+string(dt))
		}
		return nil
	}
	if !dt.Valid() {
		return errors.NewValidationError("itemType", "unknown document type "+string(dt))
	}
	return nil
}
