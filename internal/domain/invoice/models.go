package invoice

import (
	"errors"
	"time"

	"fatura/internal/domain/money"
)

// Invoice status values
const (
	StatusOpen    = "open"
	StatusPartial = "partial"
	StatusPaid    = "paid"
)

var invoiceStatuses = map[string]struct{}{
	StatusOpen:    {},
	StatusPartial: {},
	StatusPaid:    {},
}

// Domain errors
var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrAlreadyPaid     = errors.New("invoice already paid")
	ErrCreationFailed  = errors.New("invoice creation failed")
	ErrForbidden       = errors.New("access forbidden")

	// ErrDuplicateInvoice is returned by Create when another writer already
	// inserted an invoice for the same (card, reference month). The ledger
	// treats it as a benign race, not a failure.
	ErrDuplicateInvoice = errors.New("invoice already exists for reference month")
)

// Invoice is one monthly statement bucket for a credit card. At most one
// row exists per (credit_card_id, reference_month); reference_month is
// stored as the first day of the month.
type Invoice struct {
	ID             string      `json:"id"`
	UserID         int64       `json:"userId"`
	CreditCardID   string      `json:"creditCardId"`
	ReferenceMonth time.Time   `json:"referenceMonth"`
	ClosingDate    time.Time   `json:"closingDate"`
	DueDate        time.Time   `json:"dueDate"`
	TotalAmount    money.Cents `json:"totalAmount"`
	PaidAmount     money.Cents `json:"paidAmount"`
	Status         string      `json:"status"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// CreateParams contains parameters for creating a new invoice
type CreateParams struct {
	UserID         int64
	CreditCardID   string
	ReferenceMonth time.Time
	ClosingDate    time.Time
	DueDate        time.Time
	TotalAmount    money.Cents
	PaidAmount     money.Cents
	Status         string
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if p.CreditCardID == "" {
		return errors.New("credit card ID is required")
	}
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.ReferenceMonth.IsZero() {
		return errors.New("reference month is required")
	}
	if !IsValidStatus(p.Status) {
		return errors.New("invalid invoice status")
	}
	return nil
}

// IsValidStatus checks if the provided status is valid
func IsValidStatus(s string) bool {
	_, ok := invoiceStatuses[s]
	return ok
}
