/*
Package loyalty provides the core loyalty point-ledger engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking
  customer loyalty points: crediting points for purchases, tiering
  customers, and answering balance queries. The heart of it is the
  idempotent ledger update - turning a stream of possibly-duplicated
  purchase events into an exactly-once-applied, append-only reward
  history with a running balance.

KEY CONCEPTS IN THIS FILE (types.go):
  - Account: One loyalty account per customer, balance + tier + history
  - RewardTransaction: An immutable ledger entry (EARN or REDEEM)
  - Tier: Customer classification controlling the earning multiplier

DESIGN PRINCIPLES:
  1. Immutability: Transactions are written once and never modified
  2. Derived balance: Points always equal the signed sum of the history
  3. Idempotency: The transaction id is the dedup key - a given id can
     appear at most once in an account's history
  4. Implicit accounts: An account comes into existence on its first
     successful apply; there is no explicit create operation

SEE ALSO:
  - calculator.go: Tier multiplier math
  - store.go: Persistence interface
  - processor.go: Purchase orchestration
*/
package loyalty

import "time"

// =============================================================================
// TIER - Customer classification
// =============================================================================

// Tier controls the point-earning multiplier. Any value outside the
// known set behaves like Basic (multiplier 1.0).
type Tier string

const (
	TierBasic  Tier = "Basic"
	TierBronze Tier = "Bronze"
	TierSilver Tier = "Silver"
	TierGold   Tier = "Gold"
)

// =============================================================================
// TRANSACTION - Atomic change to an account balance
// =============================================================================

type TransactionType string

const (
	TxEarn   TransactionType = "EARN"   // Points credited (purchase)
	TxRedeem TransactionType = "REDEEM" // Points spent (redemption)
)

// RewardTransaction is an immutable ledger entry. Amount is always the
// non-negative magnitude; the sign is implied by Type.
type RewardTransaction struct {
	TransactionID string
	Type          TransactionType
	Amount        int64
	Timestamp     time.Time
	OrderID       string
	Description   string
}

// SignedAmount returns the balance delta this transaction contributed.
func (t RewardTransaction) SignedAmount() int64 {
	if t.Type == TxRedeem {
		return -t.Amount
	}
	return t.Amount
}

// =============================================================================
// ACCOUNT - One per customer
// =============================================================================

// Account holds a customer's balance, tier, and full reward history.
//
// INVARIANT: Points equals the sum of SignedAmount over RewardHistory.
// The balance is derived from the ledger, never set independently.
type Account struct {
	UserID        string
	Points        int64
	Tier          Tier
	LastUpdated   time.Time
	RewardHistory []RewardTransaction
}

// HasTransaction reports whether a transaction id already appears in
// this account's history.
func (a *Account) HasTransaction(transactionID string) bool {
	for _, tx := range a.RewardHistory {
		if tx.TransactionID == transactionID {
			return true
		}
	}
	return false
}
