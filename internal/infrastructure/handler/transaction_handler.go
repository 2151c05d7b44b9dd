package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/damon-houk/transaction-record-service/internal/application/service"
	"github.com/damon-houk/transaction-record-service/internal/infrastructure/logger"
	"github.com/damon-houk/transaction-record-service/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
)

// TransactionHandler handles HTTP requests for transactions
type TransactionHandler struct {
	service *service.TransactionService
	logger  logger.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(service *service.TransactionService, log logger.Logger) *TransactionHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &TransactionHandler{
		service: service,
		logger:  log,
	}
}

// ListTransactions handles listing all transactions, most recent first
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	h.logger.Info("Handling list transactions request", map[string]interface{}{
		"request_id": requestID,
	})

	txs, err := h.service.ListTransactions(r.Context())
	if err != nil {
		h.sendError(w, "list", err, requestID, nil)
		return
	}

	h.logger.Info("Transactions listed successfully", map[string]interface{}{
		"request_id": requestID,
		"count":      len(txs),
	})

	sendJSON(w, http.StatusOK, toTransactionResponses(txs))
}

// GetTransaction handles retrieving a transaction by ID
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id := mux.Vars(r)["id"]

	h.logger.Info("Handling get transaction request", map[string]interface{}{
		"request_id": requestID,
		"id":         id,
	})

	tx, err := h.service.GetTransaction(r.Context(), id)
	if err != nil {
		h.sendError(w, "get", err, requestID, map[string]interface{}{"id": id})
		return
	}

	h.logger.Info("Transaction retrieved successfully", map[string]interface{}{
		"request_id": requestID,
		"id":         id,
	})

	sendJSON(w, http.StatusOK, toTransactionResponse(tx))
}

// CreateTransaction handles the creation of a new transaction
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	h.logger.Info("Handling create transaction request", map[string]interface{}{
		"request_id": requestID,
	})

	req, err := decodeRequest(r)
	if err != nil {
		h.sendError(w, "create", err, requestID, nil)
		return
	}

	h.logger.Debug("Request parsed", map[string]interface{}{
		"request_id":  requestID,
		"id":          req.ID,
		"amount":      string(req.Amount),
		"date":        string(req.Date),
		"description": req.Description,
	})

	tx, err := h.service.CreateTransaction(r.Context(), service.TransactionInput{
		ID:          req.ID,
		Amount:      req.Amount,
		Date:        req.Date,
		Description: req.Description,
	})
	if err != nil {
		h.sendError(w, "create", err, requestID, map[string]interface{}{"id": req.ID})
		return
	}

	h.logger.Info("Transaction created successfully", map[string]interface{}{
		"request_id": requestID,
		"id":         tx.ID,
	})

	sendJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

// UpdateTransaction handles replacing the amount, date and description of a transaction
func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id := mux.Vars(r)["id"]

	h.logger.Info("Handling update transaction request", map[string]interface{}{
		"request_id": requestID,
		"id":         id,
	})

	req, err := decodeRequest(r)
	if err != nil {
		h.sendError(w, "update", err, requestID, map[string]interface{}{"id": id})
		return
	}

	tx, err := h.service.UpdateTransaction(r.Context(), id, service.TransactionInput{
		Amount:      req.Amount,
		Date:        req.Date,
		Description: req.Description,
	})
	if err != nil {
		h.sendError(w, "update", err, requestID, map[string]interface{}{"id": id})
		return
	}

	h.logger.Info("Transaction updated successfully", map[string]interface{}{
		"request_id": requestID,
		"id":         id,
	})

	sendJSON(w, http.StatusOK, toTransactionResponse(tx))
}

// DeleteTransaction handles removing a transaction
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id := mux.Vars(r)["id"]

	h.logger.Info("Handling delete transaction request", map[string]interface{}{
		"request_id": requestID,
		"id":         id,
	})

	if err := h.service.DeleteTransaction(r.Context(), id); err != nil {
		h.sendError(w, "delete", err, requestID, map[string]interface{}{"id": id})
		return
	}

	h.logger.Info("Transaction deleted successfully", map[string]interface{}{
		"request_id": requestID,
		"id":         id,
	})

	sendJSON(w, http.StatusOK, MessageResponse{Message: "Transaction deleted successfully"})
}

// RegisterRoutes registers the transaction handler routes
func (h *TransactionHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/transactions").Subrouter()
	api.HandleFunc("", h.ListTransactions).Methods("GET")
	api.HandleFunc("", h.CreateTransaction).Methods("POST")
	api.HandleFunc("/{id}", h.GetTransaction).Methods("GET")
	api.HandleFunc("/{id}", h.UpdateTransaction).Methods("PUT")
	api.HandleFunc("/{id}", h.DeleteTransaction).Methods("DELETE")

	h.logger.Info("Transaction routes registered", map[string]interface{}{
		"routes": []string{
			"GET /api/transactions",
			"POST /api/transactions",
			"GET /api/transactions/{id}",
			"PUT /api/transactions/{id}",
			"DELETE /api/transactions/{id}",
		},
	})
}

func decodeRequest(r *http.Request) (*TransactionRequest, error) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return &req, nil
}

// sendError logs the failure and writes the mapped error response
func (h *TransactionHandler) sendError(w http.ResponseWriter, op string, err error, requestID string, fields map[string]interface{}) {
	status, message := statusForError(err)

	logFields := map[string]interface{}{
		"request_id":  requestID,
		"operation":   op,
		"status_code": status,
		"error":       err.Error(),
	}
	for k, v := range fields {
		logFields[k] = v
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Transaction request failed", logFields)
	} else {
		h.logger.Warn("Transaction request rejected", logFields)
	}

	sendJSON(w, status, ErrorResponse{
		Error:     message,
		RequestID: requestID,
	})
}

// sendJSON writes a JSON response with the given status code
func sendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
