package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"fatura/internal/domain/card"
	"fatura/internal/domain/invoice"
	"fatura/internal/shared/middleware"
)

type InvoiceHandler struct {
	invoiceRepo invoice.Repository
	cardRepo    card.Repository
}

func NewInvoiceHandler(invoiceRepo invoice.Repository, cardRepo card.Repository) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceRepo: invoiceRepo,
		cardRepo:    cardRepo,
	}
}

// HandleListInvoices returns the invoices of a card, newest cycle first.
func (h *InvoiceHandler) HandleListInvoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
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

	// Verify card ownership
	c, err := h.cardRepo.GetByID(r.Context(), cardID)
	if err != nil {
		log.Printf("Error getting card %s for invoice list: %v", cardID, err)
		http.Error(w, "Failed to list invoices", http.StatusInternalServerError)
		return
	}
	if c == nil {
		http.Error(w, "Card not found", http.StatusNotFound)
		return
	}
	if c.UserID != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	limit := 12
	offset := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsedOffset, err := strconv.Atoi(offsetStr); err == nil && parsedOffset >= 0 {
			offset = parsedOffset
		}
	}

	invoices, err := h.invoiceRepo.ListByCardID(r.Context(), cardID, limit, offset)
	if err != nil {
		log.Printf("Error listing invoices for card %s: %v", cardID, err)
		http.Error(w, "Failed to list invoices", http.StatusInternalServerError)
		return
	}
	if invoices == nil {
		invoices = []*invoice.Invoice{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(invoices)
}
