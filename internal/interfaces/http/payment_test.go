package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fatura/internal/domain/account"
	"fatura/internal/domain/invoice"
	"fatura/internal/domain/money"
	"fatura/internal/domain/transaction"
)

func paymentTestRepos(inv *invoice.Invoice) (*MockInvoiceRepo, *MockMovementRepo, *MockCardRepo, *MockAccountRepo) {
	invoices := &MockInvoiceRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*invoice.Invoice, error) {
			if inv != nil && id == inv.ID {
				return inv, nil
			}
			return nil, nil
		},
	}
	movements := &MockMovementRepo{
		CreateFunc: func(ctx context.Context, params transaction.CreateParams) (*transaction.Movement, error) {
			return &transaction.Movement{ID: params.ID, Amount: params.Amount}, nil
		},
	}
	cards := &MockCardRepo{}
	accounts := &MockAccountRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*account.Account, error) {
			return &account.Account{ID: id, UserID: 1, Name: "Checking"}, nil
		},
	}
	return invoices, movements, cards, accounts
}

func TestHandlePayInvoice(t *testing.T) {
	openInvoice := func() *invoice.Invoice {
		return &invoice.Invoice{
			ID:           "inv-1",
			UserID:       1,
			CreditCardID: "card-1",
			TotalAmount:  20000,
			PaidAmount:   0,
			Status:       invoice.StatusOpen,
		}
	}

	t.Run("full payment settles the invoice", func(t *testing.T) {
		invoices, movements, cards, accounts := paymentTestRepos(openInvoice())
		var limitDelta money.Cents
		cards.AdjustAvailableLimitFunc = func(ctx context.Context, id string, userID int64, delta money.Cents) error {
			limitDelta = delta
			return nil
		}
		handler := NewPaymentHandler(transaction.NewPaymentService(invoices, movements, cards, accounts))

		body := `{"accountId":"acc-1","amount":200,"paymentDate":"2025-04-08"}`
		req := httptest.NewRequest(http.MethodPost, "/api/invoices/inv-1/pay", bytes.NewBufferString(body))
		req.SetPathValue("id", "inv-1")
		req = requestWithUser(req, 1)
		rec := httptest.NewRecorder()

		handler.HandlePayInvoice(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
		}
		var result transaction.PaymentResult
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("invalid JSON response: %v", err)
		}
		if result.Status != invoice.StatusPaid {
			t.Errorf("status = %q, want %q", result.Status, invoice.StatusPaid)
		}
		if result.PaidAmount != 20000 {
			t.Errorf("paid amount = %d, want 20000", result.PaidAmount)
		}
		if limitDelta != 20000 {
			t.Errorf("limit delta = %d, want 20000", limitDelta)
		}
	})

	t.Run("already paid returns conflict", func(t *testing.T) {
		paid := openInvoice()
		paid.Status = invoice.StatusPaid
		invoices, movements, cards, accounts := paymentTestRepos(paid)
		handler := NewPaymentHandler(transaction.NewPaymentService(invoices, movements, cards, accounts))

		body := `{"accountId":"acc-1","amount":200,"paymentDate":"2025-04-08"}`
		req := httptest.NewRequest(http.MethodPost, "/api/invoices/inv-1/pay", bytes.NewBufferString(body))
		req.SetPathValue("id", "inv-1")
		req = requestWithUser(req, 1)
		rec := httptest.NewRecorder()

		handler.HandlePayInvoice(rec, req)

		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
		}
	})

	t.Run("unknown invoice returns not found", func(t *testing.T) {
		invoices, movements, cards, accounts := paymentTestRepos(nil)
		handler := NewPaymentHandler(transaction.NewPaymentService(invoices, movements, cards, accounts))

		body := `{"accountId":"acc-1","amount":200,"paymentDate":"2025-04-08"}`
		req := httptest.NewRequest(http.MethodPost, "/api/invoices/inv-9/pay", bytes.NewBufferString(body))
		req.SetPathValue("id", "inv-9")
		req = requestWithUser(req, 1)
		rec := httptest.NewRecorder()

		handler.HandlePayInvoice(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("stale limit still reports the settled payment", func(t *testing.T) {
		invoices, movements, cards, accounts := paymentTestRepos(openInvoice())
		cards.AdjustAvailableLimitFunc = func(ctx context.Context, id string, userID int64, delta money.Cents) error {
			return context.DeadlineExceeded
		}
		handler := NewPaymentHandler(transaction.NewPaymentService(invoices, movements, cards, accounts))

		body := `{"accountId":"acc-1","amount":200,"paymentDate":"2025-04-08"}`
		req := httptest.NewRequest(http.MethodPost, "/api/invoices/inv-1/pay", bytes.NewBufferString(body))
		req.SetPathValue("id", "inv-1")
		req = requestWithUser(req, 1)
		rec := httptest.NewRecorder()

		handler.HandlePayInvoice(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
		}
		var result transaction.PaymentResult
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("invalid JSON response: %v", err)
		}
		if !result.LimitStale {
			t.Error("expected limitStale to be set")
		}
		if result.Status != invoice.StatusPaid {
			t.Errorf("status = %q, want %q", result.Status, invoice.StatusPaid)
		}
	})

	t.Run("bad payment date", func(t *testing.T) {
		invoices, movements, cards, accounts := paymentTestRepos(openInvoice())
		handler := NewPaymentHandler(transaction.NewPaymentService(invoices, movements, cards, accounts))

		body := `{"accountId":"acc-1","amount":200,"paymentDate":"08/04/2025"}`
		req := httptest.NewRequest(http.MethodPost, "/api/invoices/inv-1/pay", bytes.NewBufferString(body))
		req.SetPathValue("id", "inv-1")
		req = requestWithUser(req, 1)
		rec := httptest.NewRecorder()

		handler.HandlePayInvoice(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestHandlePayByReference(t *testing.T) {
	inv := &invoice.Invoice{
		ID:           "inv-2",
		UserID:       1,
		CreditCardID: "card-1",
		TotalAmount:  5000,
		Status:       invoice.StatusOpen,
	}
	invoices, movements, cards, accounts := paymentTestRepos(nil)
	invoices.FindByReferenceFunc = func(ctx context.Context, creditCardID string, referenceMonth time.Time) (*invoice.Invoice, error) {
		if creditCardID == "card-1" && referenceMonth.Equal(time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)) {
			return inv, nil
		}
		return nil, nil
	}
	handler := NewPaymentHandler(transaction.NewPaymentService(invoices, movements, cards, accounts))

	// Any day of the month resolves to its first day.
	body := `{"creditCardId":"card-1","referenceMonth":"2025-04-17",
		"accountId":"acc-1","amount":50,"paymentDate":"2025-04-08"}`
	req := httptest.NewRequest(http.MethodPost, "/api/invoices/pay", bytes.NewBufferString(body))
	req = requestWithUser(req, 1)
	rec := httptest.NewRecorder()

	handler.HandlePayByReference(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var result transaction.PaymentResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if result.InvoiceID != "inv-2" {
		t.Errorf("invoice id = %q, want %q", result.InvoiceID, "inv-2")
	}
	if result.Status != invoice.StatusPaid {
		t.Errorf("status = %q, want %q", result.Status, invoice.StatusPaid)
	}
}
