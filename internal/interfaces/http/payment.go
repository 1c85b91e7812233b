package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"fatura/internal/domain/account"
	"fatura/internal/domain/invoice"
	"fatura/internal/domain/transaction"
	"fatura/internal/shared/middleware"
)

type PaymentHandler struct {
	payments *transaction.PaymentService
}

func NewPaymentHandler(payments *transaction.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type PayInvoiceRequest struct {
	// CreditCardID and ReferenceMonth identify the invoice when the URL
	// carries no invoice id.
	CreditCardID   string `json:"creditCardId,omitempty"`
	ReferenceMonth string `json:"referenceMonth,omitempty"` // YYYY-MM-DD, any day of the month
	AccountID      string `json:"accountId"`
	Amount         Amount `json:"amount"`
	PaymentDate    string `json:"paymentDate"`
}

// HandlePayInvoice pays the invoice in the path.
func (h *PaymentHandler) HandlePayInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID := r.PathValue("id")
	if invoiceID == "" {
		http.Error(w, "Invoice ID is required", http.StatusBadRequest)
		return
	}
	h.pay(w, r, invoiceID)
}

// HandlePayByReference pays an invoice addressed by card and reference
// month in the request body.
func (h *PaymentHandler) HandlePayByReference(w http.ResponseWriter, r *http.Request) {
	h.pay(w, r, "")
}

func (h *PaymentHandler) pay(w http.ResponseWriter, r *http.Request, invoiceID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := r.Context().Value(middleware.UserIDKey).(int64)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req PayInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding payment request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	paymentDate, err := time.Parse("2006-01-02", req.PaymentDate)
	if err != nil {
		http.Error(w, "Invalid paymentDate format (use YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	var referenceMonth time.Time
	if req.ReferenceMonth != "" {
		referenceMonth, err = time.Parse("2006-01-02", req.ReferenceMonth)
		if err != nil {
			http.Error(w, "Invalid referenceMonth format (use YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
	}

	result, err := h.payments.PayInvoice(r.Context(), transaction.PayInvoiceParams{
		UserID:         userID,
		InvoiceID:      invoiceID,
		CreditCardID:   req.CreditCardID,
		ReferenceMonth: referenceMonth,
		AccountID:      req.AccountID,
		Amount:         req.Amount.Cents(),
		PaymentDate:    paymentDate,
	})
	if err != nil && !errors.Is(err, transaction.ErrLimitReconciliationStale) {
		writePaymentError(w, err)
		return
	}
	if errors.Is(err, transaction.ErrLimitReconciliationStale) {
		// The payment stands; only the card limit lags. The stale flag
		// in the body tells the caller.
		log.Printf("Invoice %s paid with stale card limit: %v", result.InvoiceID, err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func writePaymentError(w http.ResponseWriter, err error) {
	var reconciliation *transaction.ReconciliationError
	switch {
	case errors.Is(err, transaction.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, invoice.ErrInvoiceNotFound):
		http.Error(w, "Invoice not found", http.StatusNotFound)
	case errors.Is(err, account.ErrAccountNotFound):
		http.Error(w, "Account not found", http.StatusNotFound)
	case errors.Is(err, invoice.ErrForbidden), errors.Is(err, account.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, invoice.ErrAlreadyPaid):
		http.Error(w, "Invoice is already paid", http.StatusConflict)
	case errors.As(err, &reconciliation):
		// The payment row committed but the invoice did not advance.
		log.Printf("Payment reconciliation needed: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error":      "payment recorded but invoice not updated",
			"movementId": reconciliation.MovementID,
			"invoiceId":  reconciliation.InvoiceID,
		})
	default:
		log.Printf("Payment error: %v", err)
		http.Error(w, "Failed to pay invoice", http.StatusInternalServerError)
	}
}
