// Package store provides loyalty.Store implementations.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/warp/loyalty-engine/loyalty"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory is a mutex-guarded in-memory store. The whole check-and-apply
// runs under one lock, which gives the same atomic conditional-write
// semantics the SQLite store gets from its unique constraint.
type Memory struct {
	mu       sync.RWMutex
	accounts map[string]*loyalty.Account
	applied  map[string]map[string]bool // userID -> transactionID set
}

func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]*loyalty.Account),
		applied:  make(map[string]map[string]bool),
	}
}

func (m *Memory) GetAccount(_ context.Context, userID string) (*loyalty.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[userID]
	if !ok {
		return nil, nil
	}
	return copyAccount(account), nil
}

func (m *Memory) ApplyTransaction(_ context.Context, userID string, pointsDelta int64, transactionID, orderID, description string) (*loyalty.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.applied[userID][transactionID] {
		return nil, &loyalty.DuplicateTransactionError{UserID: userID, TransactionID: transactionID}
	}

	account, ok := m.accounts[userID]
	if !ok {
		// Create-if-absent baseline, same atomic step as the apply.
		account = &loyalty.Account{UserID: userID, Points: 0, Tier: loyalty.TierBasic}
	}

	if account.Points+pointsDelta < 0 {
		return nil, &loyalty.InsufficientBalanceError{
			UserID:    userID,
			Available: account.Points,
			Requested: -pointsDelta,
		}
	}

	txType := loyalty.TxEarn
	amount := pointsDelta
	if pointsDelta < 0 {
		txType = loyalty.TxRedeem
		amount = -pointsDelta
	}

	now := time.Now().UTC()
	account.Points += pointsDelta
	account.LastUpdated = now
	account.RewardHistory = append(account.RewardHistory, loyalty.RewardTransaction{
		TransactionID: transactionID,
		Type:          txType,
		Amount:        amount,
		Timestamp:     now,
		OrderID:       orderID,
		Description:   description,
	})

	m.accounts[userID] = account
	if m.applied[userID] == nil {
		m.applied[userID] = make(map[string]bool)
	}
	m.applied[userID][transactionID] = true

	return copyAccount(account), nil
}

func (m *Memory) SetTier(_ context.Context, userID string, tier loyalty.Tier) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[userID]
	if !ok {
		account = &loyalty.Account{UserID: userID, Points: 0}
		m.accounts[userID] = account
	}
	account.Tier = tier
	account.LastUpdated = time.Now().UTC()
	return nil
}

func (m *Memory) DeleteAccount(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.accounts, userID)
	delete(m.applied, userID)
	return nil
}

// copyAccount returns a defensive copy so callers cannot mutate the
// stored history outside the lock.
func copyAccount(a *loyalty.Account) *loyalty.Account {
	history := make([]loyalty.RewardTransaction, len(a.RewardHistory))
	copy(history, a.RewardHistory)
	out := *a
	out.RewardHistory = history
	return &out
}

var _ loyalty.Store = (*Memory)(nil)
