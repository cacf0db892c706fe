/*
handlers.go - HTTP handlers for the loyalty engine

PURPOSE:
  Exposes the loyalty engine via REST. Handles HTTP request/response
  and JSON serialization, delegates everything else to domain logic.

ENDPOINTS:
  Loyalty:
    GET    /loyalty/points/{userId}           Balance query (always 200)
    GET    /loyalty/accounts/{userId}         Full account with history
    GET    /loyalty/accounts/{userId}/history Reward history only
    POST   /loyalty/events                    Batch event ingestion
    POST   /loyalty/redeem                    Spend points

  Admin:
    PUT    /api/admin/accounts/{userId}/tier  Assign tier
    DELETE /api/admin/accounts/{userId}       Purge account (test support)
    POST   /api/admin/seed                    Load demo data

ERROR HANDLING:
  - 400: malformed request body, invalid tier
  - 404: account not found (full-account reads only; the balance
         query never 404s - absence is zero points)
  - 409: duplicate transaction, insufficient balance
  - 503: store unavailable
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/loyalty-engine/ingest"
	"github.com/warp/loyalty-engine/loyalty"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     loyalty.Store
	Processor *loyalty.PurchaseProcessor
	Balance   *loyalty.BalanceQuery
	Consumer  *ingest.Consumer
}

// NewHandler wires a handler around the given store and consumer.
func NewHandler(store loyalty.Store, consumer *ingest.Consumer) *Handler {
	return &Handler{
		Store:     store,
		Processor: loyalty.NewPurchaseProcessor(store),
		Balance:   loyalty.NewBalanceQuery(store),
		Consumer:  consumer,
	}
}

// =============================================================================
// LOYALTY ENDPOINTS
// =============================================================================

// GetPoints answers the balance query. Unknown users get 0 points and
// HTTP 200 - absence is valid domain state, never an error.
func (h *Handler) GetPoints(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	points, err := h.Balance.Execute(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PointsDTO{UserID: userID, Points: points})
}

// GetAccount returns the full account state with history.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	account, err := h.Store.GetAccount(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if account == nil {
		writeError(w, http.StatusNotFound, "account not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toAccountDTO(account))
}

// GetHistory returns the reward history only.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	account, err := h.Store.GetAccount(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	history := []TransactionDTO{}
	if account != nil {
		for _, tx := range account.RewardHistory {
			history = append(history, toTransactionDTO(tx))
		}
	}

	writeJSON(w, http.StatusOK, history)
}

// IngestEvents accepts a batch of raw purchase-event messages. This is
// the in-process stand-in for the queue transport: per-message
// log-and-skip, the batch itself always answers 200 with counts.
func (h *Handler) IngestEvents(w http.ResponseWriter, r *http.Request) {
	var req EventBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	msgs := make([]ingest.Message, 0, len(req.Records))
	for _, rec := range req.Records {
		msgs = append(msgs, ingest.Message{ID: rec.MessageID, Body: []byte(rec.Body)})
	}

	result := h.Consumer.HandleBatch(r.Context(), msgs)
	writeJSON(w, http.StatusOK, result)
}

// Redeem spends points as a REDEEM transaction through the same
// idempotent apply path purchases use.
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.UserID == "" || req.TransactionID == "" {
		writeError(w, http.StatusBadRequest, "userId and transactionId are required", nil)
		return
	}
	if req.Points <= 0 {
		writeError(w, http.StatusBadRequest, "points must be positive", nil)
		return
	}

	account, err := h.Processor.Redeem(r.Context(), req.UserID, req.Points, req.TransactionID, req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountDTO(account))
}

// =============================================================================
// ADMIN ENDPOINTS
// =============================================================================

// SetTier assigns a tier classification. Tier values outside the known
// set are rejected here even though the calculator would tolerate them.
func (h *Handler) SetTier(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	var req SetTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	tier := loyalty.Tier(req.Tier)
	switch tier {
	case loyalty.TierBasic, loyalty.TierBronze, loyalty.TierSilver, loyalty.TierGold:
	default:
		writeError(w, http.StatusBadRequest, "unknown tier", nil)
		return
	}

	if err := h.Store.SetTier(r.Context(), userID, tier); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"userId": userID, "tier": req.Tier})
}

// DeleteAccount purges an account. Idempotent; answers 204 either way.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	if err := h.Store.DeleteAccount(r.Context(), userID); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	body := map[string]string{"error": message}
	if err != nil {
		body["detail"] = err.Error()
	}
	writeJSON(w, status, body)
}

// writeDomainError maps domain errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, loyalty.ErrDuplicateTransaction):
		writeError(w, http.StatusConflict, "transaction already processed", err)
	case errors.Is(err, loyalty.ErrInsufficientBalance):
		writeError(w, http.StatusConflict, "insufficient balance", err)
	case errors.Is(err, loyalty.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}
