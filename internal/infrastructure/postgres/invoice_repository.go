package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"fatura/internal/domain/invoice"
	"fatura/internal/domain/money"
)

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

type InvoiceRepository struct {
	db *DB
}

func NewInvoiceRepository(db *DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, params invoice.CreateParams) (*invoice.Invoice, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO credit_card_invoices
			(id, user_id, credit_card_id, reference_month, closing_date, due_date, total_amount, paid_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, user_id, credit_card_id, reference_month, closing_date, due_date,
		          total_amount, paid_amount, status, created_at, updated_at
	`

	var inv invoice.Invoice
	err := r.db.QueryRowContext(
		ctx, query,
		uuid.New().String(), params.UserID, params.CreditCardID, params.ReferenceMonth,
		params.ClosingDate, params.DueDate, int64(params.TotalAmount), int64(params.PaidAmount), params.Status,
	).Scan(
		&inv.ID, &inv.UserID, &inv.CreditCardID, &inv.ReferenceMonth, &inv.ClosingDate, &inv.DueDate,
		&inv.TotalAmount, &inv.PaidAmount, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		// The UNIQUE(credit_card_id, reference_month) constraint decides
		// concurrent get-or-create races; losing is not a failure.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, invoice.ErrDuplicateInvoice
		}
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	return &inv, nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*invoice.Invoice, error) {
	query := `
		SELECT id, user_id, credit_card_id, reference_month, closing_date, due_date,
		       total_amount, paid_amount, status, created_at, updated_at
		FROM credit_card_invoices
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *InvoiceRepository) FindByReference(ctx context.Context, creditCardID string, referenceMonth time.Time) (*invoice.Invoice, error) {
	query := `
		SELECT id, user_id, credit_card_id, reference_month, closing_date, due_date,
		       total_amount, paid_amount, status, created_at, updated_at
		FROM credit_card_invoices
		WHERE credit_card_id = $1 AND reference_month = $2
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, creditCardID, referenceMonth))
}

func (r *InvoiceRepository) ListByCardID(ctx context.Context, creditCardID string, limit, offset int) ([]*invoice.Invoice, error) {
	query := `
		SELECT id, user_id, credit_card_id, reference_month, closing_date, due_date,
		       total_amount, paid_amount, status, created_at, updated_at
		FROM credit_card_invoices
		WHERE credit_card_id = $1
		ORDER BY reference_month DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, creditCardID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*invoice.Invoice
	for rows.Next() {
		var inv invoice.Invoice
		err := rows.Scan(
			&inv.ID, &inv.UserID, &inv.CreditCardID, &inv.ReferenceMonth, &inv.ClosingDate, &inv.DueDate,
			&inv.TotalAmount, &inv.PaidAmount, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, &inv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}

	return invoices, nil
}

func (r *InvoiceRepository) UpdatePayment(ctx context.Context, id string, paidAmount money.Cents, status string) error {
	query := `
		UPDATE credit_card_invoices
		SET paid_amount = $1, status = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, int64(paidAmount), status, id)
	if err != nil {
		return fmt.Errorf("failed to update invoice payment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check invoice update: %w", err)
	}
	if affected == 0 {
		return invoice.ErrInvoiceNotFound
	}
	return nil
}

// RecomputeTotal re-derives total_amount from the purchase movements
// attached to the invoice. Purchases are stored negative; the invoice
// total is their positive sum. Payment rows carry the invoice id but no
// credit_card_id and are excluded.
func (r *InvoiceRepository) RecomputeTotal(ctx context.Context, id string) error {
	query := `
		UPDATE credit_card_invoices i
		SET total_amount = COALESCE((
			SELECT SUM(-t.amount)
			FROM transactions t
			WHERE t.invoice_id = i.id AND t.credit_card_id IS NOT NULL
		), 0),
		    updated_at = CURRENT_TIMESTAMP
		WHERE i.id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to recompute invoice total: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) scanOne(row *tracedRow) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	err := row.Scan(
		&inv.ID, &inv.UserID, &inv.CreditCardID, &inv.ReferenceMonth, &inv.ClosingDate, &inv.DueDate,
		&inv.TotalAmount, &inv.PaidAmount, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return &inv, nil
}
