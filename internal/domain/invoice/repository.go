package invoice

import (
	"context"
	"time"

	"fatura/internal/domain/money"
)

// Repository defines the interface for invoice data access.
//
// Create must enforce uniqueness on (credit_card_id, reference_month) and
// return ErrDuplicateInvoice when the constraint fires, so that concurrent
// get-or-create callers can recover by re-fetching the winner's row.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Invoice, error)
	GetByID(ctx context.Context, id string) (*Invoice, error)
	FindByReference(ctx context.Context, creditCardID string, referenceMonth time.Time) (*Invoice, error)
	ListByCardID(ctx context.Context, creditCardID string, limit, offset int) ([]*Invoice, error)

	// UpdatePayment advances the invoice's paid amount and status.
	UpdatePayment(ctx context.Context, id string, paidAmount money.Cents, status string) error

	// RecomputeTotal re-derives total_amount from the purchase movements
	// attached to the invoice. Stands in for the storage-side trigger the
	// original system relied on, so the aggregation step is explicit and
	// testable.
	RecomputeTotal(ctx context.Context, id string) error
}
