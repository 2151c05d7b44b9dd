package handler

import (
	"encoding/json"
	"time"

	"github.com/damon-houk/transaction-record-service/internal/domain/entity"
)

// TransactionRequest represents the request body for creating or updating a transaction.
// Amount and date are kept raw so they can be coerced from either numbers or strings.
type TransactionRequest struct {
	ID          string          `json:"id"`
	Amount      json.RawMessage `json:"amount"`
	Date        json.RawMessage `json:"date"`
	Description string          `json:"description"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
}

// MessageResponse carries a confirmation message
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func toTransactionResponse(tx *entity.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          tx.ID,
		Amount:      tx.Amount,
		Date:        tx.Date.UTC().Format(time.RFC3339Nano),
		Description: tx.Description,
	}
}

func toTransactionResponses(txs []*entity.Transaction) []TransactionResponse {
	resp := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		resp = append(resp, toTransactionResponse(tx))
	}
	return resp
}
