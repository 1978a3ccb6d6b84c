/*
Package errors provides semantic error types for scanstore.

The package defines common error scenarios with specific types that can be
checked using the standard errors.Is() function or the provided helper functions.

Common Errors:

	var (
	    ErrNotFound          = errors.New("document not found")
	    ErrAlreadyExists     = errors.New("document already exists")
	    ErrInvalidInput      = errors.New("invalid input")
	    ErrConditionFailed   = errors.New("condition check failed")
	    ErrQueryExecution    = errors.New("query execution failed")
	    ErrInvalidIdentifier = errors.New("invalid identifier")
	)

Usage:

	// Check error type
	page, err := store.GetOne(ctx, pageID, partitionKey)
	if err != nil {
	    if errors.IsNotFound(err) {
	        return nil, fmt.Errorf("page %s does not exist", pageID)
	    }
	    return nil, err
	}

	// Paged queries surface backend failures with their status code
	if code, ok := errors.StatusCodeOf(it.Err()); ok && code == 429 {
	    // throttled, let the caller's retry policy decide
	}

	// Create typed errors
	err := errors.NewNotFoundError("Page", "123")
	err := errors.NewQueryExecutionError(503, "service unavailable")
	err := errors.NewInvalidIdentifierError("not-a-uuid", "invalid UUID length: 10")
	err := errors.NewValidationError("url", "must be absolute")
	err := errors.NewConditionFailedError("update", "version mismatch")

The error types implement the error interface and support wrapping,
making them compatible with Go's standard error handling patterns.
*/
package errors