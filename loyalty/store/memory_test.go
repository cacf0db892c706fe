package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/loyalty-engine/loyalty"
	"github.com/warp/loyalty-engine/loyalty/store"
)

// =============================================================================
// IDEMPOTENCY
// =============================================================================

func TestMemory_DuplicateTransaction_Rejected(t *testing.T) {
	// GIVEN: tx-1 already applied
	// WHEN: Applying tx-1 again
	// THEN: Second apply fails, exactly one history entry remains

	mem := store.NewMemory()
	ctx := context.Background()

	_, err := mem.ApplyTransaction(ctx, "user-1", 100, "tx-1", "order-1", "first")
	require.NoError(t, err)

	_, err = mem.ApplyTransaction(ctx, "user-1", 100, "tx-1", "order-1", "replay")
	require.Error(t, err)
	assert.True(t, loyalty.IsDuplicate(err))

	account, err := mem.GetAccount(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), account.Points)
	assert.Len(t, account.RewardHistory, 1)
}

func TestMemory_SameTransactionID_DifferentUsers_Allowed(t *testing.T) {
	// The idempotency key is scoped per account.
	mem := store.NewMemory()
	ctx := context.Background()

	_, err := mem.ApplyTransaction(ctx, "user-1", 10, "tx-1", "", "")
	require.NoError(t, err)
	_, err = mem.ApplyTransaction(ctx, "user-2", 10, "tx-1", "", "")
	require.NoError(t, err)
}

// =============================================================================
// CREATE-IF-ABSENT
// =============================================================================

func TestMemory_FirstApply_CreatesBasicAccount(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	before, err := mem.GetAccount(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, before, "absent account must be (nil, nil), not an error")

	account, err := mem.ApplyTransaction(ctx, "user-1", 42, "tx-1", "order-1", "")
	require.NoError(t, err)
	assert.Equal(t, loyalty.TierBasic, account.Tier)
	assert.Equal(t, int64(42), account.Points)
	assert.False(t, account.LastUpdated.IsZero())
}

// =============================================================================
// BALANCE CORRECTNESS
// =============================================================================

func TestMemory_BalanceEqualsSignedHistorySum(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	deltas := []int64{100, 50, -30, 200, -120}
	for i, d := range deltas {
		_, err := mem.ApplyTransaction(ctx, "user-1", d, fmt.Sprintf("tx-%d", i), "", "")
		require.NoError(t, err)
	}

	account, err := mem.GetAccount(ctx, "user-1")
	require.NoError(t, err)

	var sum int64
	for _, tx := range account.RewardHistory {
		sum += tx.SignedAmount()
	}
	assert.Equal(t, sum, account.Points)
	assert.Equal(t, int64(200), account.Points)
}

func TestMemory_NegativeBalance_Rejected(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	_, err := mem.ApplyTransaction(ctx, "user-1", -10, "tx-1", "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, loyalty.ErrInsufficientBalance)

	// No account is created by a failed apply.
	account, err := mem.GetAccount(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, account)
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestMemory_ConcurrentDistinctTransactions_AllApply(t *testing.T) {
	// GIVEN: N concurrent applies with distinct ids on one account
	// THEN: All succeed and the balance is the sum regardless of order

	mem := store.NewMemory()
	ctx := context.Background()
	const n = 50

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = mem.ApplyTransaction(ctx, "user-1", 10, fmt.Sprintf("tx-%d", i), "", "")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "apply %d", i)
	}

	account, err := mem.GetAccount(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(n*10), account.Points)
	assert.Len(t, account.RewardHistory, n)
}

func TestMemory_ConcurrentSameTransaction_ExactlyOneWins(t *testing.T) {
	// GIVEN: N concurrent applies with the SAME transaction id
	// THEN: Exactly one succeeds; the rest fail as duplicates

	mem := store.NewMemory()
	ctx := context.Background()
	const n = 20

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = mem.ApplyTransaction(ctx, "user-1", 25, "tx-same", "order-1", "")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.True(t, loyalty.IsDuplicate(err))
		}
	}
	assert.Equal(t, 1, successes)

	account, err := mem.GetAccount(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(25), account.Points)
	assert.Len(t, account.RewardHistory, 1)
}

// =============================================================================
// ADMIN OPERATIONS
// =============================================================================

func TestMemory_SetTier_UpsertsAccount(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.SetTier(ctx, "user-1", loyalty.TierGold))

	account, err := mem.GetAccount(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, loyalty.TierGold, account.Tier)
	assert.Equal(t, int64(0), account.Points)

	// Tier change preserves balance and history.
	_, err = mem.ApplyTransaction(ctx, "user-1", 100, "tx-1", "", "")
	require.NoError(t, err)
	require.NoError(t, mem.SetTier(ctx, "user-1", loyalty.TierSilver))

	account, err = mem.GetAccount(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, loyalty.TierSilver, account.Tier)
	assert.Equal(t, int64(100), account.Points)
	assert.Len(t, account.RewardHistory, 1)
}

func TestMemory_DeleteAccount_Idempotent(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	_, err := mem.ApplyTransaction(ctx, "user-1", 10, "tx-1", "", "")
	require.NoError(t, err)

	require.NoError(t, mem.DeleteAccount(ctx, "user-1"))
	require.NoError(t, mem.DeleteAccount(ctx, "user-1"), "deleting a nonexistent account is not an error")

	account, err := mem.GetAccount(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, account)

	// Purge clears the idempotency record along with the account.
	_, err = mem.ApplyTransaction(ctx, "user-1", 10, "tx-1", "", "")
	require.NoError(t, err)
}

func TestMemory_GetAccount_ReturnsCopy(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	_, err := mem.ApplyTransaction(ctx, "user-1", 10, "tx-1", "", "")
	require.NoError(t, err)

	account, _ := mem.GetAccount(ctx, "user-1")
	account.Points = 9999
	account.RewardHistory[0].Amount = 9999

	fresh, _ := mem.GetAccount(ctx, "user-1")
	assert.Equal(t, int64(10), fresh.Points)
	assert.Equal(t, int64(10), fresh.RewardHistory[0].Amount)
}
