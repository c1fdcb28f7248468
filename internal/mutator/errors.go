package mutator

import (
	"errors"
	"fmt"
)

var (
	// ErrPreconditionFailed is returned by Apply when the currency refuses
	// the item. Match it with errors.Is; the concrete error is a
	// *PreconditionError.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrTransactionNotFound is returned by Rollback for an unknown id.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrRecordFailed wraps a Recorder failure. The application is not
	// logged when recording fails.
	ErrRecordFailed = errors.New("failed to record transaction")
)

// PreconditionError names the currency and item a refused application
// involved.
type PreconditionError struct {
	Currency string
	ItemID   string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("cannot apply %s to item %s", e.Currency, e.ItemID)
}

func (e *PreconditionError) Unwrap() error {
	return ErrPreconditionFailed
}
