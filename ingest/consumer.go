/*
consumer.go - Batch processing loop (log-and-skip)

PURPOSE:
  Processes a batch of raw messages from the at-least-once transport.
  Every failure class is handled per message and never aborts the
  batch:

    parse/validation failure  -> drop, count as invalid
    ErrDuplicateTransaction   -> success-equivalent, count as duplicate
                                 (the purchase was already recorded;
                                 no retry, no alert)
    any other processor error -> drop, count as failed; redelivery by
                                 the upstream transport is the retry
                                 mechanism

  A store timeout is an unknown outcome; redelivery is safe because
  the transaction id dedups at the store.
*/
package ingest

import (
	"context"
	"log/slog"

	"github.com/warp/loyalty-engine/loyalty"
)

// Message is one raw delivery from the transport. ID is the transport's
// message id, used only for logging.
type Message struct {
	ID   string
	Body []byte
}

// Processor is the downstream purchase handler.
// *loyalty.PurchaseProcessor implements it.
type Processor interface {
	Execute(ctx context.Context, event loyalty.PurchaseEvent) (*loyalty.Account, error)
}

// BatchResult counts per-message outcomes of one batch.
type BatchResult struct {
	Processed  int `json:"processed"`
	Duplicates int `json:"duplicates"`
	Invalid    int `json:"invalid"`
	Failed     int `json:"failed"`
}

// Consumer drains message batches into the processor.
type Consumer struct {
	Processor Processor
	Logger    *slog.Logger
}

func NewConsumer(processor Processor, logger *slog.Logger) *Consumer {
	return &Consumer{Processor: processor, Logger: logger}
}

// HandleBatch processes each message independently. It never returns
// an error: a single bad message must never block or fail the batch.
func (c *Consumer) HandleBatch(ctx context.Context, msgs []Message) BatchResult {
	var result BatchResult

	for _, msg := range msgs {
		event, err := ParsePurchaseEvent(msg.Body)
		if err != nil {
			c.Logger.Warn("dropping invalid message",
				"messageId", msg.ID, "error", err)
			result.Invalid++
			continue
		}

		_, err = c.Processor.Execute(ctx, event)
		switch {
		case err == nil:
			result.Processed++
		case loyalty.IsDuplicate(err):
			c.Logger.Info("transaction already processed",
				"messageId", msg.ID, "transactionId", event.TransactionID)
			result.Duplicates++
		default:
			c.Logger.Error("failed to process message",
				"messageId", msg.ID, "transactionId", event.TransactionID, "error", err)
			result.Failed++
		}
	}

	return result
}
