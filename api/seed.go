/*
seed.go - Demo data loader for testing and demonstrations

PURPOSE:
  Populates the store with a handful of customers across the tier
  ladder plus a few purchases, so the API has something to show in
  development. Purchases go through the real processor, so the seeded
  histories obey the same idempotency and balance invariants as
  production traffic.

NOTE:
  Seeding purges the demo accounts first. Only use in development.

USAGE VIA API:
  POST /api/admin/seed
*/
package api

import (
	"context"
	"net/http"

	"github.com/warp/loyalty-engine/loyalty"
)

type demoCustomer struct {
	UserID    string
	Tier      loyalty.Tier
	Purchases []demoPurchase
}

type demoPurchase struct {
	OrderID       string
	TransactionID string
	TotalAmount   float64
}

// Fixed UUIDs so reseeding is idempotent per transaction.
var demoCustomers = []demoCustomer{
	{
		UserID: "7f8bb3a2-4f1e-4c70-9d8a-2a9c61a1f001",
		Tier:   loyalty.TierGold,
		Purchases: []demoPurchase{
			{OrderID: "b1a6f1de-0001-4a1b-8000-000000000001", TransactionID: "c2b7e2ef-0001-4a1b-8000-000000000001", TotalAmount: 100},
			{OrderID: "b1a6f1de-0001-4a1b-8000-000000000002", TransactionID: "c2b7e2ef-0001-4a1b-8000-000000000002", TotalAmount: 250.50},
		},
	},
	{
		UserID: "7f8bb3a2-4f1e-4c70-9d8a-2a9c61a1f002",
		Tier:   loyalty.TierSilver,
		Purchases: []demoPurchase{
			{OrderID: "b1a6f1de-0002-4a1b-8000-000000000001", TransactionID: "c2b7e2ef-0002-4a1b-8000-000000000001", TotalAmount: 89.99},
		},
	},
	{
		UserID: "7f8bb3a2-4f1e-4c70-9d8a-2a9c61a1f003",
		Tier:   loyalty.TierBronze,
		Purchases: []demoPurchase{
			{OrderID: "b1a6f1de-0003-4a1b-8000-000000000001", TransactionID: "c2b7e2ef-0003-4a1b-8000-000000000001", TotalAmount: 42},
		},
	},
	{
		// No tier assignment: exercises the implicit Basic account.
		UserID: "7f8bb3a2-4f1e-4c70-9d8a-2a9c61a1f004",
		Purchases: []demoPurchase{
			{OrderID: "b1a6f1de-0004-4a1b-8000-000000000001", TransactionID: "c2b7e2ef-0004-4a1b-8000-000000000001", TotalAmount: 15.75},
		},
	},
}

// SeedDemoData resets and reloads the demo accounts.
func (h *Handler) SeedDemoData(w http.ResponseWriter, r *http.Request) {
	if err := h.loadDemoData(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"seeded": len(demoCustomers),
	})
}

func (h *Handler) loadDemoData(ctx context.Context) error {
	for _, c := range demoCustomers {
		if err := h.Store.DeleteAccount(ctx, c.UserID); err != nil {
			return err
		}
		if c.Tier != "" {
			if err := h.Store.SetTier(ctx, c.UserID, c.Tier); err != nil {
				return err
			}
		}
		for _, p := range c.Purchases {
			_, err := h.Processor.Execute(ctx, loyalty.PurchaseEvent{
				UserID:        c.UserID,
				OrderID:       p.OrderID,
				TotalAmount:   p.TotalAmount,
				TransactionID: p.TransactionID,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}
