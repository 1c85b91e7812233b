package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fatura/internal/domain/card"
	"fatura/internal/domain/invoice"
	"fatura/internal/domain/transaction"
)

func chargeTestCard() *card.Card {
	return &card.Card{
		ID:             "card-1",
		UserID:         1,
		Name:           "Main",
		ClosingDay:     28,
		DueDay:         8,
		CreditLimit:    500000,
		AvailableLimit: 100000,
		IsActive:       true,
	}
}

func chargeTestInvoiceRepo() *MockInvoiceRepo {
	return &MockInvoiceRepo{
		FindByReferenceFunc: func(ctx context.Context, creditCardID string, referenceMonth time.Time) (*invoice.Invoice, error) {
			return &invoice.Invoice{
				ID:             "inv-" + referenceMonth.Format("2006-01"),
				UserID:         1,
				CreditCardID:   creditCardID,
				ReferenceMonth: referenceMonth,
				Status:         invoice.StatusOpen,
			}, nil
		},
	}
}

func TestHandleCharge(t *testing.T) {
	tests := []struct {
		name           string
		userID         int64
		body           string
		movements      *MockMovementRepo
		expectedStatus int
		expectedIDs    int
	}{
		{
			name:   "single purchase created",
			userID: 1,
			body: `{"accountId":"acc-1","amount":120.50,"description":"Groceries",
				"transactionDate":"2025-03-10"}`,
			movements: &MockMovementRepo{
				CreateBatchFunc: func(ctx context.Context, params []transaction.CreateParams) ([]string, error) {
					ids := make([]string, len(params))
					for i, p := range params {
						ids[i] = p.ID
					}
					return ids, nil
				},
			},
			expectedStatus: http.StatusCreated,
			expectedIDs:    1,
		},
		{
			name:   "installment plan created",
			userID: 1,
			body: `{"accountId":"acc-1","amount":300,"description":"TV",
				"transactionDate":"2025-03-10","installments":3,"amountIsTotal":true}`,
			movements: &MockMovementRepo{
				CreateBatchFunc: func(ctx context.Context, params []transaction.CreateParams) ([]string, error) {
					ids := make([]string, len(params))
					for i, p := range params {
						ids[i] = p.ID
					}
					return ids, nil
				},
			},
			expectedStatus: http.StatusCreated,
			expectedIDs:    3,
		},
		{
			name:   "insufficient limit",
			userID: 1,
			body: `{"accountId":"acc-1","amount":5000,"description":"Too much",
				"transactionDate":"2025-03-10"}`,
			movements:      &MockMovementRepo{},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:   "missing description",
			userID: 1,
			body: `{"accountId":"acc-1","amount":10,
				"transactionDate":"2025-03-10"}`,
			movements:      &MockMovementRepo{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "card owned by someone else",
			userID: 9,
			body: `{"accountId":"acc-1","amount":10,"description":"x",
				"transactionDate":"2025-03-10"}`,
			movements:      &MockMovementRepo{},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cardRepo := &MockCardRepo{
				GetByIDFunc: func(ctx context.Context, id string) (*card.Card, error) {
					return chargeTestCard(), nil
				},
			}
			service := transaction.NewChargeService(cardRepo, chargeTestInvoiceRepo(), tt.movements)
			handler := NewChargeHandler(service)

			req := httptest.NewRequest(http.MethodPost, "/api/cards/card-1/charges", bytes.NewBufferString(tt.body))
			req.SetPathValue("id", "card-1")
			req = requestWithUser(req, tt.userID)
			rec := httptest.NewRecorder()

			handler.HandleCharge(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d (body: %s)", rec.Code, tt.expectedStatus, rec.Body.String())
			}
			if tt.expectedStatus != http.StatusCreated {
				return
			}

			var resp ChargeResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid JSON response: %v", err)
			}
			if len(resp.MovementIDs) != tt.expectedIDs {
				t.Errorf("got %d movement ids, want %d", len(resp.MovementIDs), tt.expectedIDs)
			}
		})
	}
}

func TestHandleCharge_BadDate(t *testing.T) {
	service := transaction.NewChargeService(&MockCardRepo{}, &MockInvoiceRepo{}, &MockMovementRepo{})
	handler := NewChargeHandler(service)

	body := `{"accountId":"acc-1","amount":10,"description":"x","transactionDate":"10/03/2025"}`
	req := httptest.NewRequest(http.MethodPost, "/api/cards/card-1/charges", bytes.NewBufferString(body))
	req.SetPathValue("id", "card-1")
	req = requestWithUser(req, 1)
	rec := httptest.NewRecorder()

	handler.HandleCharge(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
