package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nuofunds/backend/src/database"
	"github.com/nuofunds/backend/src/logger"
	"github.com/nuofunds/backend/src/models"
	"github.com/nuofunds/backend/src/security/validation"
)

type TransactionHandler struct{}

func NewTransactionHandler() *TransactionHandler {
	return &TransactionHandler{}
}

type manualTransactionRequest struct {
	Mode       string   `json:"mode"`
	CustomMode string   `json:"customMode"`
	Type       string   `json:"type"`
	TxnID      string   `json:"txnid"`
	Amount     float64  `json:"amount"`
	Balance    *float64 `json:"balance"`
	DateTime   string   `json:"dateTime"`
	Comment    string   `json:"comment"`
}

// HandleCreateManual records a user-entered transaction. These rows flow into
// the same table the aggregator pipeline writes, with no financial account.
func (h *TransactionHandler) HandleCreateManual(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req manualTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Type = strings.ToUpper(strings.TrimSpace(req.Type))
	if req.Type != "CREDIT" && req.Type != "DEBIT" {
		sendJSONError(w, "type must be CREDIT or DEBIT", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStringNotEmpty(req.Mode, "mode"); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePositiveAmount(req.Amount, "amount"); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	date, err := validation.ParseTimestamp(req.DateTime, "dateTime")
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	mode := strings.ToUpper(strings.TrimSpace(req.Mode))
	if mode == "OTHER" {
		if custom := validation.SanitizeText(strings.TrimSpace(req.CustomMode)); custom != "" {
			mode = custom
		}
	}

	comment := validation.SanitizeText(req.Comment)
	if err := validation.ValidateStringMaxLength(comment, validation.MaxNotesLength, "comment"); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	txn := &models.Transaction{
		UserID: userID,
		Mode:   mode,
		Type:   req.Type,
		Amount: req.Amount,
		Date:   date,
	}
	if req.TxnID != "" {
		txn.TxnID = sql.NullString{String: strings.TrimSpace(req.TxnID), Valid: true}
	}
	if req.Balance != nil {
		txn.Balance = sql.NullFloat64{Float64: *req.Balance, Valid: true}
	}
	if comment != "" {
		txn.Comment = sql.NullString{String: comment, Valid: true}
	}

	if err := txn.CreateManualTransaction(database.DB); err != nil {
		logger.FromContext(r.Context()).Error("Manual transaction insert failed", "userID", userID, "error", err)
		sendJSONError(w, "Failed to create transaction", http.StatusInternalServerError)
		return
	}

	logger.FromContext(r.Context()).Info("Manual transaction created", "userID", userID, "transactionID", txn.ID)
	sendJSON(w, http.StatusCreated, txn, "Transaction created")
}
