/*
store.go - Persistence interface for loyalty accounts

PURPOSE:
  Defines the contract between the domain logic and the database.
  The Store is the sole arbiter of consistency: all balance math and
  duplicate detection happen inside one atomic conditional write, so
  multiple processor instances can run concurrently with no external
  locking.

IDEMPOTENCY CONTRACT:
  ApplyTransaction must reject a write whose transaction id already
  exists in the target account's history, atomically with the write
  itself. Two concurrent calls with the same id result in exactly one
  success and one ErrDuplicateTransaction - never two applications,
  never a lost write.

CREATE-IF-ABSENT:
  The first successful apply for a user creates the account with a
  zero-point Basic baseline in the same atomic step as the write.
  There is no separate create operation and no read-check-write window.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite store
  - loyalty/store/memory.go: In-memory store for testing/dev

SEE ALSO:
  - processor.go: Orchestrates purchases on top of this interface
*/
package loyalty

import "context"

// Store handles persistence of loyalty accounts. The reward history is
// append-only: there is no operation to modify or remove a transaction.
type Store interface {
	// GetAccount returns the account, or (nil, nil) when it does not
	// exist. Absence is valid domain state, not an error - callers
	// treat it as "Basic tier, zero points".
	GetAccount(ctx context.Context, userID string) (*Account, error)

	// ApplyTransaction atomically applies a signed point delta:
	// create-if-absent with the Basic/0 baseline, add the delta, and
	// append the history entry, all in one conditional step. The entry
	// type is derived from the sign of the delta (>= 0 EARN, < 0
	// REDEEM) and the amount is its absolute value.
	//
	// Fails with ErrDuplicateTransaction if transactionID is already
	// in the account's history, ErrInsufficientBalance if the delta
	// would drive the balance negative, and ErrStoreUnavailable for
	// backend failures. Returns the full post-update account.
	ApplyTransaction(ctx context.Context, userID string, pointsDelta int64, transactionID, orderID, description string) (*Account, error)

	// SetTier upserts the tier classification for a user, creating the
	// account with zero points if needed. Administrative operation;
	// tier recalculation policy lives outside this system.
	SetTier(ctx context.Context, userID string, tier Tier) error

	// DeleteAccount removes an account and its history. Idempotent:
	// deleting a nonexistent account is not an error. Administrative
	// and test-support operation only.
	DeleteAccount(ctx context.Context, userID string) error
}
