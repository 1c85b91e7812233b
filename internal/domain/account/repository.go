package account

import "context"

// Repository defines the interface for account data access
type Repository interface {
	GetByID(ctx context.Context, id string) (*Account, error)
	Exists(ctx context.Context, id string) (bool, error)
}
