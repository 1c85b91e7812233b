package card

import (
	"context"

	"fatura/internal/domain/money"
)

// Repository defines the interface for credit card data access.
//
// AdjustAvailableLimit and RecomputeAvailableLimit replace the storage-side
// trigger the original system used to keep available_limit current: the
// engine calls them explicitly after committing charges and payments, and
// the reconciliation job repairs any drift they leave behind.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Card, error)
	ListIDsByUserID(ctx context.Context, userID int64) ([]string, error)

	// AdjustAvailableLimit applies a signed delta to available_limit.
	// The filter must include the owning user so a stale card id can
	// never touch another tenant's row.
	AdjustAvailableLimit(ctx context.Context, id string, userID int64, delta money.Cents) error

	// RecomputeAvailableLimit re-derives available_limit as
	// credit_limit minus the unpaid balance of the card's invoices.
	RecomputeAvailableLimit(ctx context.Context, id string, userID int64) error
}
