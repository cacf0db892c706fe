// balance.go - Read-only balance lookup.
//
// Absence is valid domain state: an unknown user has zero points, not
// an error. The query never exposes internal "not found" conditions.
package loyalty

import "context"

// BalanceQuery answers point-balance lookups.
type BalanceQuery struct {
	Store Store
}

func NewBalanceQuery(store Store) *BalanceQuery {
	return &BalanceQuery{Store: store}
}

// Execute returns the current balance, or 0 for an unknown user.
func (q *BalanceQuery) Execute(ctx context.Context, userID string) (int64, error) {
	account, err := q.Store.GetAccount(ctx, userID)
	if err != nil {
		return 0, err
	}
	if account == nil {
		return 0, nil
	}
	return account.Points, nil
}
