/*
Package ingest decodes and validates inbound purchase events before
handing them to the purchase processor.

PURPOSE:
  This is the at-least-once delivery boundary. The upstream transport
  (queue, webhook, batch endpoint) delivers raw messages; this package
  parses each one independently, validates its shape, and feeds the
  processor. A bad message is dropped and logged - it never blocks or
  fails the rest of the batch.

VALIDATION:
  A purchase event must carry all four fields, correctly typed:
    userId         UUID string
    orderId        UUID string
    totalAmount    non-negative number
    transactionId  UUID string
  The transactionId is the idempotency key: it is taken from the event
  verbatim so redelivered messages dedup at the store.

SEE ALSO:
  - consumer.go: Batch processing loop
  - loyalty/processor.go: Where valid events go
*/
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/warp/loyalty-engine/loyalty"
)

// ErrInvalidEvent is the sentinel for all parse/validation failures.
var ErrInvalidEvent = errors.New("invalid purchase event")

// ValidationError reports which field of an event failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid purchase event: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidEvent
}

// rawPurchaseEvent uses pointers to distinguish "missing" from "zero".
type rawPurchaseEvent struct {
	UserID        *string  `json:"userId"`
	OrderID       *string  `json:"orderId"`
	TotalAmount   *float64 `json:"totalAmount"`
	TransactionID *string  `json:"transactionId"`
}

// ParsePurchaseEvent decodes and validates one raw message body.
func ParsePurchaseEvent(body []byte) (loyalty.PurchaseEvent, error) {
	var raw rawPurchaseEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return loyalty.PurchaseEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	if err := requireUUID("userId", raw.UserID); err != nil {
		return loyalty.PurchaseEvent{}, err
	}
	if err := requireUUID("orderId", raw.OrderID); err != nil {
		return loyalty.PurchaseEvent{}, err
	}
	if err := requireUUID("transactionId", raw.TransactionID); err != nil {
		return loyalty.PurchaseEvent{}, err
	}
	if raw.TotalAmount == nil {
		return loyalty.PurchaseEvent{}, &ValidationError{Field: "totalAmount", Reason: "is required"}
	}
	if *raw.TotalAmount < 0 {
		return loyalty.PurchaseEvent{}, &ValidationError{Field: "totalAmount", Reason: "must not be negative"}
	}

	return loyalty.PurchaseEvent{
		UserID:        *raw.UserID,
		OrderID:       *raw.OrderID,
		TotalAmount:   *raw.TotalAmount,
		TransactionID: *raw.TransactionID,
	}, nil
}

func requireUUID(field string, value *string) error {
	if value == nil || *value == "" {
		return &ValidationError{Field: field, Reason: "is required"}
	}
	if _, err := uuid.Parse(*value); err != nil {
		return &ValidationError{Field: field, Reason: "must be a UUID"}
	}
	return nil
}
