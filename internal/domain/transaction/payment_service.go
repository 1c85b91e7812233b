package transaction

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"fatura/internal/domain/account"
	"fatura/internal/domain/card"
	"fatura/internal/domain/invoice"
	"fatura/internal/domain/money"
)

// paymentDescription is the ledger description of invoice payment rows.
const paymentDescription = "Credit card invoice payment"

// PaymentService applies payments to invoices: one outgoing movement on
// the paying account, the invoice's paid amount and status advanced, and
// the card's available limit restored by the paid value.
type PaymentService struct {
	invoices  invoice.Repository
	movements Repository
	cards     card.Repository
	accounts  account.Repository
}

// NewPaymentService creates a new invoice payment service
func NewPaymentService(invoices invoice.Repository, movements Repository, cards card.Repository, accounts account.Repository) *PaymentService {
	return &PaymentService{
		invoices:  invoices,
		movements: movements,
		cards:     cards,
		accounts:  accounts,
	}
}

// PayInvoiceParams identifies the invoice and the payment to apply.
// Either InvoiceID or (CreditCardID, ReferenceMonth) must be set; both
// paths resolve to the same row semantics.
type PayInvoiceParams struct {
	UserID         int64
	InvoiceID      string
	CreditCardID   string
	ReferenceMonth time.Time
	AccountID      string
	Amount         money.Cents
	PaymentDate    time.Time
}

// PaymentResult reports the settled state after a payment.
type PaymentResult struct {
	InvoiceID  string      `json:"invoiceId"`
	MovementID string      `json:"movementId"`
	PaidAmount money.Cents `json:"paidAmount"`
	Status     string      `json:"status"`
	// LimitStale is set when the card-limit restore failed after the
	// payment and invoice were already settled. The reconciliation job
	// repairs it; callers should report it, not retry the payment.
	LimitStale bool `json:"limitStale,omitempty"`
}

// PayInvoice records a payment against an invoice.
//
// Write order is movement, invoice, card limit. The three writes are not
// one transaction: a failed invoice update after the movement committed is
// returned as a *ReconciliationError, and a failed limit update is the
// least severe outcome, reported through PaymentResult.LimitStale plus an
// error wrapping ErrLimitReconciliationStale while the payment stands.
func (s *PaymentService) PayInvoice(ctx context.Context, params PayInvoiceParams) (*PaymentResult, error) {
	if params.UserID <= 0 {
		return nil, fmt.Errorf("%w: valid user ID is required", ErrInvalidInput)
	}
	if params.AccountID == "" {
		return nil, fmt.Errorf("%w: account ID is required", ErrInvalidInput)
	}
	if params.Amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrInvalidInput)
	}
	if params.PaymentDate.IsZero() {
		return nil, fmt.Errorf("%w: payment date is required", ErrInvalidInput)
	}

	inv, err := s.resolveInvoice(ctx, params)
	if err != nil {
		return nil, err
	}
	if inv.UserID != params.UserID {
		return nil, invoice.ErrForbidden
	}
	if inv.Status == invoice.StatusPaid {
		return nil, invoice.ErrAlreadyPaid
	}

	acc, err := s.accounts.GetByID(ctx, params.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if acc == nil {
		return nil, account.ErrAccountNotFound
	}
	if acc.UserID != params.UserID {
		return nil, account.ErrForbidden
	}

	newPaid := inv.PaidAmount + params.Amount
	newStatus := invoice.StatusPartial
	if newPaid >= inv.TotalAmount {
		newStatus = invoice.StatusPaid
	}

	invID := inv.ID
	movement, err := s.movements.Create(ctx, CreateParams{
		ID:              uuid.New().String(),
		UserID:          params.UserID,
		AccountID:       params.AccountID,
		InvoiceID:       &invID,
		Description:     paymentDescription,
		Amount:          -params.Amount.Abs(),
		TransactionDate: params.PaymentDate,
		Type:            TypeExpense,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record payment movement: %w", err)
	}

	if err := s.invoices.UpdatePayment(ctx, inv.ID, newPaid, newStatus); err != nil {
		// The payment row exists but the invoice still shows the old
		// paid amount. Never swallow this.
		return nil, &ReconciliationError{MovementID: movement.ID, InvoiceID: inv.ID, Err: err}
	}

	result := &PaymentResult{
		InvoiceID:  inv.ID,
		MovementID: movement.ID,
		PaidAmount: newPaid,
		Status:     newStatus,
	}

	if err := s.cards.AdjustAvailableLimit(ctx, inv.CreditCardID, params.UserID, params.Amount); err != nil {
		log.Printf("Payment settled but limit restore failed for card %s: %v", inv.CreditCardID, err)
		result.LimitStale = true
		return result, fmt.Errorf("%w: %v", ErrLimitReconciliationStale, err)
	}

	return result, nil
}

// resolveInvoice loads the target invoice by id when given, otherwise by
// (card, reference month).
func (s *PaymentService) resolveInvoice(ctx context.Context, params PayInvoiceParams) (*invoice.Invoice, error) {
	if params.InvoiceID != "" {
		inv, err := s.invoices.GetByID(ctx, params.InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up invoice: %w", err)
		}
		if inv == nil {
			return nil, invoice.ErrInvoiceNotFound
		}
		return inv, nil
	}

	if params.CreditCardID == "" || params.ReferenceMonth.IsZero() {
		return nil, fmt.Errorf("%w: invoice ID or card and reference month are required", ErrInvalidInput)
	}
	y, m, _ := params.ReferenceMonth.Date()
	month := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)

	inv, err := s.invoices.FindByReference(ctx, params.CreditCardID, month)
	if err != nil {
		return nil, fmt.Errorf("failed to look up invoice: %w", err)
	}
	if inv == nil {
		return nil, invoice.ErrInvoiceNotFound
	}
	return inv, nil
}
