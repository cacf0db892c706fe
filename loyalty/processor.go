/*
processor.go - Purchase orchestration

PURPOSE:
  Turns a validated purchase event into a ledger mutation:
  read the current tier, compute the points, apply conditionally.

STALENESS:
  The tier read and the apply are two separate store calls. A tier
  change racing the purchase only affects the multiplier of this one
  transaction, never the correctness of the balance, so the stale read
  is tolerated and no locking is needed.

FAILURE PROPAGATION:
  ErrDuplicateTransaction and ErrStoreUnavailable propagate unchanged.
  Duplicate suppression is the ingestion boundary's job, not ours.
*/
package loyalty

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// PurchaseEvent is a validated inbound purchase. The caller-supplied
// TransactionID is the idempotency key end to end; the processor never
// substitutes its own, otherwise redelivered messages would double-credit.
type PurchaseEvent struct {
	UserID        string
	OrderID       string
	TotalAmount   float64
	TransactionID string
}

// PurchaseProcessor credits points for purchases. Safe for concurrent
// use; holds no state beyond the store handle.
type PurchaseProcessor struct {
	Store Store
}

func NewPurchaseProcessor(store Store) *PurchaseProcessor {
	return &PurchaseProcessor{Store: store}
}

// Execute applies one purchase:
//  1. Look up the account (absent means Basic tier).
//  2. Compute points from the purchase amount and tier.
//  3. Apply the delta conditionally on the transaction id.
//
// Exactly one ledger mutation per successful invocation.
func (p *PurchaseProcessor) Execute(ctx context.Context, event PurchaseEvent) (*Account, error) {
	account, err := p.Store.GetAccount(ctx, event.UserID)
	if err != nil {
		return nil, err
	}

	tier := TierBasic
	if account != nil {
		tier = account.Tier
	}

	pointsEarned := CalculatePointsWithTier(decimal.NewFromFloat(event.TotalAmount), tier)

	return p.Store.ApplyTransaction(ctx,
		event.UserID,
		pointsEarned,
		event.TransactionID,
		event.OrderID,
		fmt.Sprintf("Points earned for order %s", event.OrderID),
	)
}

// Redeem spends points through the same idempotent apply path, as a
// REDEEM transaction. Fails with ErrInsufficientBalance when the
// account (or a nonexistent account) cannot cover the points.
func (p *PurchaseProcessor) Redeem(ctx context.Context, userID string, points int64, transactionID, description string) (*Account, error) {
	if points <= 0 {
		return nil, fmt.Errorf("redeem points must be positive, got %d", points)
	}
	return p.Store.ApplyTransaction(ctx, userID, -points, transactionID, "", description)
}
