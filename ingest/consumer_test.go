package ingest_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/loyalty-engine/ingest"
	"github.com/warp/loyalty-engine/loyalty"
	"github.com/warp/loyalty-engine/loyalty/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func eventBody(userID, txID string, amount float64) []byte {
	return []byte(fmt.Sprintf(
		`{"userId":%q,"orderId":%q,"totalAmount":%v,"transactionId":%q}`,
		userID, order, amount, txID))
}

// flakyProcessor fails specific transaction ids with a store error.
type flakyProcessor struct {
	inner    ingest.Processor
	failOn   map[string]bool
	executed []string
}

func (f *flakyProcessor) Execute(ctx context.Context, event loyalty.PurchaseEvent) (*loyalty.Account, error) {
	f.executed = append(f.executed, event.TransactionID)
	if f.failOn[event.TransactionID] {
		return nil, fmt.Errorf("connection reset: %w", loyalty.ErrStoreUnavailable)
	}
	return f.inner.Execute(ctx, event)
}

// =============================================================================
// BATCH PROCESSING
// =============================================================================

func TestConsumer_BatchPartialFailure(t *testing.T) {
	// GIVEN: A batch of 5 where #2 is invalid JSON and #4 hits a store outage
	// WHEN: Handling the batch
	// THEN: #1, #3, #5 are processed; the batch never aborts

	mem := store.NewMemory()
	flaky := &flakyProcessor{
		inner:  loyalty.NewPurchaseProcessor(mem),
		failOn: map[string]bool{tx(4): true},
	}
	consumer := ingest.NewConsumer(flaky, discardLogger())

	msgs := []ingest.Message{
		{ID: "m1", Body: eventBody(userID, tx(1), 10)},
		{ID: "m2", Body: []byte(`{broken`)},
		{ID: "m3", Body: eventBody(userID, tx(3), 20)},
		{ID: "m4", Body: eventBody(userID, tx(4), 30)},
		{ID: "m5", Body: eventBody(userID, tx(5), 40)},
	}

	result := consumer.HandleBatch(context.Background(), msgs)

	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 1, result.Invalid)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 0, result.Duplicates)

	account, err := mem.GetAccount(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(70), account.Points, "10 + 20 + 40; the failed and invalid messages contribute nothing")
}

func TestConsumer_Duplicate_SuccessEquivalent(t *testing.T) {
	// Redelivered messages count as duplicates, not failures: the
	// purchase was already recorded, so there is nothing to retry.

	mem := store.NewMemory()
	consumer := ingest.NewConsumer(loyalty.NewPurchaseProcessor(mem), discardLogger())
	ctx := context.Background()

	msgs := []ingest.Message{
		{ID: "m1", Body: eventBody(userID, tx(1), 50)},
		{ID: "m1-redelivery", Body: eventBody(userID, tx(1), 50)},
	}

	result := consumer.HandleBatch(ctx, msgs)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, 0, result.Failed)

	account, err := mem.GetAccount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), account.Points)
	assert.Len(t, account.RewardHistory, 1)
}

func TestConsumer_InvalidMessage_NeverReachesProcessor(t *testing.T) {
	flaky := &flakyProcessor{inner: loyalty.NewPurchaseProcessor(store.NewMemory())}
	consumer := ingest.NewConsumer(flaky, discardLogger())

	msgs := []ingest.Message{
		{ID: "m1", Body: []byte(`{"userId":"not-a-uuid","orderId":"x","totalAmount":1,"transactionId":"y"}`)},
	}

	result := consumer.HandleBatch(context.Background(), msgs)
	assert.Equal(t, 1, result.Invalid)
	assert.Empty(t, flaky.executed)
}

func TestConsumer_EmptyBatch(t *testing.T) {
	consumer := ingest.NewConsumer(loyalty.NewPurchaseProcessor(store.NewMemory()), discardLogger())

	result := consumer.HandleBatch(context.Background(), nil)
	assert.Equal(t, ingest.BatchResult{}, result)
}

// tx derives a valid, distinct UUID per index.
func tx(i int) string {
	return fmt.Sprintf("5b3c4d5e-6f70-4182-93a4-b5c6d7e8f9%02d", i)
}
