/*
errors.go - Centralized error types for the loyalty engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is, or use the helpers at the bottom.

ERROR CATEGORIES:
  1. Idempotency violations - expected, recoverable, not a defect
  2. Balance violations     - redemption exceeding available points
  3. Store failures         - transient backend errors, retryable

USAGE:
  if errors.Is(err, loyalty.ErrDuplicateTransaction) {
      // Already applied - safe to treat as success
  }
*/
package loyalty

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateTransaction is returned when a transaction id already
	// exists in the target account's history. Expected on redelivery.
	ErrDuplicateTransaction = errors.New("transaction already processed")

	// ErrStoreUnavailable wraps transient backend failures. The caller
	// cannot know whether the write landed; retrying is safe because
	// the transaction id dedups.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInsufficientBalance is returned when a redemption would drive
	// the balance negative.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DuplicateTransactionError identifies which transaction was replayed.
type DuplicateTransactionError struct {
	UserID        string
	TransactionID string
}

func (e *DuplicateTransactionError) Error() string {
	return fmt.Sprintf("transaction %s already processed for user %s", e.TransactionID, e.UserID)
}

func (e *DuplicateTransactionError) Unwrap() error {
	return ErrDuplicateTransaction
}

// InsufficientBalanceError details a redemption shortfall.
type InsufficientBalanceError struct {
	UserID    string
	Available int64
	Requested int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for user %s: available %d, requested %d",
		e.UserID, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsDuplicate reports whether err is an idempotency violation. The
// ingestion boundary treats this as success-equivalent: no retry.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateTransaction)
}

// IsRetryable reports whether the operation might succeed on retry.
// Duplicate and balance violations are deterministic; store failures
// are not.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
