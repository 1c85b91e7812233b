package transaction

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fatura/internal/domain/money"
)

// Movement types
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Domain errors
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientLimit = errors.New("insufficient credit limit")
	ErrGroupNotFound     = errors.New("installment group not found")

	// ErrLimitReconciliationStale marks an operation whose movement and
	// invoice writes committed but whose card-limit update did not. The
	// financial state is correct; only available_limit lags until the
	// reconciliation job catches up.
	ErrLimitReconciliationStale = errors.New("card limit update failed after payment was recorded")
)

// PartialChargeError reports a charge that committed some movements before
// a later write failed. There is no automatic compensation; callers must
// surface the committed ids so the charge can be reconciled, never treat
// this as a clean failure.
type PartialChargeError struct {
	CommittedIDs []string
	Err          error
}

func (e *PartialChargeError) Error() string {
	return fmt.Sprintf("charge partially committed (%d of the movements written): %v", len(e.CommittedIDs), e.Err)
}

func (e *PartialChargeError) Unwrap() error {
	return e.Err
}

// ReconciliationError reports a payment whose movement row committed but
// whose invoice update failed. The payment exists in the ledger while the
// invoice still shows the old paid amount.
type ReconciliationError struct {
	MovementID string
	InvoiceID  string
	Err        error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("payment movement %s recorded but invoice %s not updated: %v", e.MovementID, e.InvoiceID, e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}

// Movement is one ledger row: a purchase (or one installment of one), a
// payment, or an adjustment. Amounts are signed cents; purchases and
// payments are negative.
type Movement struct {
	ID                 string      `json:"id"`
	UserID             int64       `json:"userId"`
	AccountID          string      `json:"accountId"`
	CreditCardID       *string     `json:"creditCardId,omitempty"`
	InvoiceID          *string     `json:"invoiceId,omitempty"`
	Description        string      `json:"description"`
	Amount             money.Cents `json:"amount"`
	TransactionDate    time.Time   `json:"transactionDate"`
	Type               string      `json:"type"`
	InstallmentNumber  int         `json:"installmentNumber"`
	TotalInstallments  int         `json:"totalInstallments"`
	InstallmentGroupID *string     `json:"installmentGroupId,omitempty"`
	Notes              *string     `json:"notes,omitempty"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

// CreateParams contains parameters for creating a movement row
type CreateParams struct {
	ID                 string
	UserID             int64
	AccountID          string
	CreditCardID       *string
	InvoiceID          *string
	Description        string
	Amount             money.Cents
	TransactionDate    time.Time
	Type               string
	InstallmentNumber  int
	TotalInstallments  int
	InstallmentGroupID *string
	Notes              *string
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.ID == "" {
		return errors.New("movement ID is required")
	}
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.AccountID == "" {
		return errors.New("account ID is required")
	}
	if strings.TrimSpace(p.Description) == "" {
		return errors.New("description is required")
	}
	if p.TransactionDate.IsZero() {
		return errors.New("transaction date is required")
	}
	if p.Type != TypeIncome && p.Type != TypeExpense {
		return errors.New("invalid movement type")
	}
	return nil
}

// GroupRowUpdate rewrites one movement of an installment plan during a
// full-plan edit.
type GroupRowUpdate struct {
	MovementID        string
	InvoiceID         *string
	Amount            money.Cents
	TransactionDate   time.Time
	InstallmentNumber int
	TotalInstallments int
	Description       *string
}
