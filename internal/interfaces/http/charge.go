package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"fatura/internal/domain/card"
	"fatura/internal/domain/transaction"
	"fatura/internal/shared/middleware"
)

type ChargeHandler struct {
	charges *transaction.ChargeService
}

func NewChargeHandler(charges *transaction.ChargeService) *ChargeHandler {
	return &ChargeHandler{charges: charges}
}

type CreateChargeRequest struct {
	AccountID       string  `json:"accountId"`
	Amount          Amount  `json:"amount"`
	Description     string  `json:"description"`
	TransactionDate string  `json:"transactionDate"`
	Installments    int     `json:"installments,omitempty"`  // defaults to 1
	Frequency       string  `json:"frequency,omitempty"`     // defaults to monthly
	AmountIsTotal   bool    `json:"amountIsTotal,omitempty"` // false: amount is per installment
	Notes           *string `json:"notes,omitempty"`
}

type ChargeResponse struct {
	MovementIDs []string `json:"movementIds"`
}

// HandleCharge records a purchase on the card in the path.
func (h *ChargeHandler) HandleCharge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	cardID := r.PathValue("id")
	if cardID == "" {
		http.Error(w, "Card ID is required", http.StatusBadRequest)
		return
	}

	var req CreateChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding charge request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	transactionDate, err := time.Parse("2006-01-02", req.TransactionDate)
	if err != nil {
		http.Error(w, "Invalid transactionDate format (use YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	installments := req.Installments
	if installments == 0 {
		installments = 1
	}
	frequency := transaction.Frequency(req.Frequency)
	if frequency == "" {
		frequency = transaction.FrequencyMonthly
	}

	committed, err := h.charges.ChargeCard(r.Context(), transaction.ChargeParams{
		UserID:          userID,
		CreditCardID:    cardID,
		AccountID:       req.AccountID,
		Description:     req.Description,
		Amount:          req.Amount.Cents(),
		TransactionDate: transactionDate,
		Installments:    installments,
		Frequency:       frequency,
		AmountIsTotal:   req.AmountIsTotal,
		Notes:           req.Notes,
	})
	if err != nil {
		writeChargeError(w, cardID, committed, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ChargeResponse{MovementIDs: committed})
}

type UpdatePlanRequest struct {
	Amount        Amount  `json:"amount"`
	StartDate     string  `json:"startDate"`
	Frequency     string  `json:"frequency,omitempty"`
	AmountIsTotal bool    `json:"amountIsTotal,omitempty"`
	Description   *string `json:"description,omitempty"`
}

// HandleUpdatePlan rewrites every installment of the group in the path.
func (h *ChargeHandler) HandleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	groupID := r.PathValue("id")
	if groupID == "" {
		http.Error(w, "Installment group ID is required", http.StatusBadRequest)
		return
	}

	var req UpdatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding plan update request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		http.Error(w, "Invalid startDate format (use YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	frequency := transaction.Frequency(req.Frequency)
	if frequency == "" {
		frequency = transaction.FrequencyMonthly
	}

	err = h.charges.UpdateInstallmentPlan(r.Context(), transaction.UpdatePlanParams{
		UserID:        userID,
		GroupID:       groupID,
		Amount:        req.Amount.Cents(),
		StartDate:     startDate,
		Frequency:     frequency,
		AmountIsTotal: req.AmountIsTotal,
		Description:   req.Description,
	})
	if err != nil {
		writeChargeError(w, groupID, nil, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeChargeError(w http.ResponseWriter, id string, committed []string, err error) {
	var partial *transaction.PartialChargeError
	switch {
	case errors.Is(err, transaction.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, card.ErrCardNotFound):
		http.Error(w, "Card not found", http.StatusNotFound)
	case errors.Is(err, card.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, transaction.ErrInsufficientLimit):
		http.Error(w, "Insufficient credit limit", http.StatusUnprocessableEntity)
	case errors.Is(err, transaction.ErrGroupNotFound):
		http.Error(w, "Installment group not found", http.StatusNotFound)
	case errors.As(err, &partial):
		// Part of the charge is in the ledger; the committed ids must
		// reach the caller for reconciliation.
		log.Printf("Charge %s partially committed: %v", id, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"error":       "charge partially committed",
			"movementIds": committed,
		})
	default:
		log.Printf("Charge error for %s: %v", id, err)
		http.Error(w, "Failed to record charge", http.StatusInternalServerError)
	}
}
