package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"fatura/internal/domain/card"
	"fatura/internal/domain/invoice"
	"fatura/internal/domain/money"
)

type CardRepository struct {
	db *DB
}

func NewCardRepository(db *DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) GetByID(ctx context.Context, id string) (*card.Card, error) {
	query := `
		SELECT id, user_id, name, closing_day, due_day, credit_limit, available_limit, is_active,
		       created_at, updated_at
		FROM credit_cards
		WHERE id = $1
	`

	var c card.Card
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.UserID, &c.Name, &c.ClosingDay, &c.DueDay,
		&c.CreditLimit, &c.AvailableLimit, &c.IsActive,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	return &c, nil
}

func (r *CardRepository) ListIDsByUserID(ctx context.Context, userID int64) ([]string, error) {
	query := `
		SELECT id FROM credit_cards
		WHERE user_id = $1 AND is_active = true
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan card id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cards: %w", err)
	}

	return ids, nil
}

// ListUserIDsWithCards returns every user owning at least one active
// card. The reconciliation scheduler fans out one job per user.
func (r *CardRepository) ListUserIDsWithCards(ctx context.Context) ([]int64, error) {
	query := `SELECT DISTINCT user_id FROM credit_cards WHERE is_active = true`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list card owners: %w", err)
	}
	defer rows.Close()

	var userIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating card owners: %w", err)
	}

	return userIDs, nil
}

// AdjustAvailableLimit applies a signed delta to the card's available
// limit. The user_id predicate keeps the write inside the owning tenant
// even if the card id is stale.
func (r *CardRepository) AdjustAvailableLimit(ctx context.Context, id string, userID int64, delta money.Cents) error {
	query := `
		UPDATE credit_cards
		SET available_limit = available_limit + $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND user_id = $3
	`

	result, err := r.db.ExecContext(ctx, query, int64(delta), id, userID)
	if err != nil {
		return fmt.Errorf("failed to adjust available limit: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check limit adjustment: %w", err)
	}
	if affected == 0 {
		return card.ErrCardNotFound
	}
	return nil
}

// RecomputeAvailableLimit re-derives available_limit as the credit limit
// minus the unpaid balance of the card's invoices. This repairs the drift
// a failed AdjustAvailableLimit leaves behind and any skew from concurrent
// charges racing the read-check-write window.
func (r *CardRepository) RecomputeAvailableLimit(ctx context.Context, id string, userID int64) error {
	query := `
		UPDATE credit_cards c
		SET available_limit = c.credit_limit - COALESCE((
			SELECT SUM(i.total_amount - i.paid_amount)
			FROM credit_card_invoices i
			WHERE i.credit_card_id = c.id AND i.status <> $1
		), 0),
		    updated_at = CURRENT_TIMESTAMP
		WHERE c.id = $2 AND c.user_id = $3
	`

	result, err := r.db.ExecContext(ctx, query, invoice.StatusPaid, id, userID)
	if err != nil {
		return fmt.Errorf("failed to recompute available limit: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check limit recompute: %w", err)
	}
	if affected == 0 {
		return card.ErrCardNotFound
	}
	return nil
}
