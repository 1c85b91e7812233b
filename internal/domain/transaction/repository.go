package transaction

import "context"

// Repository defines the interface for movement data access.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Movement, error)

	// CreateBatch writes all movements of one charge. Implementations
	// should make the batch atomic when the storage supports it; ones
	// that cannot must return a *PartialChargeError carrying the ids
	// that did commit.
	CreateBatch(ctx context.Context, params []CreateParams) ([]string, error)

	GetByID(ctx context.Context, id string) (*Movement, error)
	ListByInvoiceID(ctx context.Context, invoiceID string) ([]*Movement, error)
	ListByGroupID(ctx context.Context, groupID string) ([]*Movement, error)

	// UpdateGroupRow rewrites one movement during a full-plan edit.
	UpdateGroupRow(ctx context.Context, userID int64, update GroupRowUpdate) error
}
