package report

import (
	"errors"
	"fmt"
)

// Common errors returned by the generator.
var (
	// ErrInvalidBatchSize is returned when the configured batch size is
	// zero or negative. Rejected before any fetch is issued.
	ErrInvalidBatchSize = errors.New("batch size must be positive")

	// ErrMissingGroupID is returned when no group id is supplied.
	ErrMissingGroupID = errors.New("group id is required")

	// ErrStop can be returned by a PageHandler to cancel a streamed report
	// early. The generator stops fetching and surfaces a *HandlerError
	// wrapping ErrStop; check for it with errors.Is.
	ErrStop = errors.New("report cancelled by page handler")
)

// StoreError reports a failed query against the backing store. A store
// failure aborts the whole batch operation; there are no partial-success
// semantics at this layer.
type StoreError struct {
	Op  string // "fetch" or "count"
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("report store %s failed: %v", e.Op, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// HandlerError reports a page handler failure (or cancellation) during
// streamed generation. Pages delivered before the failure are not retried
// or rolled back.
type HandlerError struct {
	Batch int
	Err   error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("page handler failed on batch %d: %v", e.Batch, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *HandlerError) Unwrap() error {
	return e.Err
}
