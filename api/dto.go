/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the domain model
  from the external contract. Timestamps are exposed as epoch millis,
  matching the persisted record shape consumers already depend on.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
*/
package api

import (
	"github.com/warp/loyalty-engine/loyalty"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// PointsDTO answers the balance query. Always present: unknown users
// have zero points.
type PointsDTO struct {
	UserID string `json:"userId"`
	Points int64  `json:"points"`
}

// TransactionDTO is one reward history entry.
type TransactionDTO struct {
	TransactionID string `json:"transactionId"`
	Type          string `json:"type"`
	Amount        int64  `json:"amount"`
	Timestamp     int64  `json:"timestamp"`
	OrderID       string `json:"orderId,omitempty"`
	Description   string `json:"description,omitempty"`
}

// AccountDTO is the full account state.
type AccountDTO struct {
	UserID        string           `json:"userId"`
	Points        int64            `json:"points"`
	Tier          string           `json:"tier"`
	LastUpdated   int64            `json:"lastUpdated"`
	RewardHistory []TransactionDTO `json:"rewardHistory"`
}

func toTransactionDTO(tx loyalty.RewardTransaction) TransactionDTO {
	return TransactionDTO{
		TransactionID: tx.TransactionID,
		Type:          string(tx.Type),
		Amount:        tx.Amount,
		Timestamp:     tx.Timestamp.UnixMilli(),
		OrderID:       tx.OrderID,
		Description:   tx.Description,
	}
}

func toAccountDTO(account *loyalty.Account) AccountDTO {
	history := make([]TransactionDTO, 0, len(account.RewardHistory))
	for _, tx := range account.RewardHistory {
		history = append(history, toTransactionDTO(tx))
	}
	return AccountDTO{
		UserID:        account.UserID,
		Points:        account.Points,
		Tier:          string(account.Tier),
		LastUpdated:   account.LastUpdated.UnixMilli(),
		RewardHistory: history,
	}
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// EventBatchRequest carries raw transport messages. Body is the raw
// JSON-encoded purchase event, kept as a string so a malformed body
// can be dropped per message instead of failing the whole request.
type EventBatchRequest struct {
	Records []EventRecord `json:"records"`
}

type EventRecord struct {
	MessageID string `json:"messageId"`
	Body      string `json:"body"`
}

// RedeemRequest spends points.
type RedeemRequest struct {
	UserID        string `json:"userId"`
	Points        int64  `json:"points"`
	TransactionID string `json:"transactionId"`
	Description   string `json:"description"`
}

// SetTierRequest assigns a tier (admin).
type SetTierRequest struct {
	Tier string `json:"tier"`
}
