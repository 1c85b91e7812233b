package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"fatura/internal/domain/transaction"
)

type TransactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const movementColumns = `id, user_id, account_id, credit_card_id, invoice_id, description, amount,
	transaction_date, type, installment_number, total_installments, installment_group_id, notes,
	created_at, updated_at`

const insertMovementQuery = `
	INSERT INTO transactions (id, user_id, account_id, credit_card_id, invoice_id, description,
		amount, transaction_date, type, installment_number, total_installments,
		installment_group_id, notes)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	RETURNING created_at, updated_at
`

func (r *TransactionRepository) Create(ctx context.Context, params transaction.CreateParams) (*transaction.Movement, error) {
	m := movementFromParams(params)

	err := r.db.QueryRowContext(ctx, insertMovementQuery,
		params.ID, params.UserID, params.AccountID, params.CreditCardID, params.InvoiceID,
		params.Description, int64(params.Amount), params.TransactionDate, params.Type,
		params.InstallmentNumber, params.TotalInstallments, params.InstallmentGroupID, params.Notes,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create movement: %w", err)
	}

	return m, nil
}

// CreateBatch writes every movement of one charge inside a single
// transaction, so a charge is either fully recorded or not at all. It
// never returns a *PartialChargeError.
func (r *TransactionRepository) CreateBatch(ctx context.Context, params []transaction.CreateParams) ([]string, error) {
	if len(params) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin charge transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertMovementQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare movement insert: %w", err)
	}
	defer stmt.Close()

	ids := make([]string, 0, len(params))
	for _, p := range params {
		var createdAt, updatedAt sql.NullTime
		err := stmt.QueryRowContext(ctx,
			p.ID, p.UserID, p.AccountID, p.CreditCardID, p.InvoiceID,
			p.Description, int64(p.Amount), p.TransactionDate, p.Type,
			p.InstallmentNumber, p.TotalInstallments, p.InstallmentGroupID, p.Notes,
		).Scan(&createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to create movement %d of %d: %w", p.InstallmentNumber, len(params), err)
		}
		ids = append(ids, p.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit charge: %w", err)
	}

	return ids, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*transaction.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM transactions WHERE id = $1`

	var m transaction.Movement
	err := scanMovement(r.db.QueryRowContext(ctx, query, id), &m)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get movement: %w", err)
	}

	return &m, nil
}

func (r *TransactionRepository) ListByInvoiceID(ctx context.Context, invoiceID string) ([]*transaction.Movement, error) {
	query := `SELECT ` + movementColumns + `
		FROM transactions
		WHERE invoice_id = $1
		ORDER BY transaction_date, installment_number`

	return r.listMovements(ctx, query, invoiceID)
}

func (r *TransactionRepository) ListByGroupID(ctx context.Context, groupID string) ([]*transaction.Movement, error) {
	query := `SELECT ` + movementColumns + `
		FROM transactions
		WHERE installment_group_id = $1
		ORDER BY installment_number`

	return r.listMovements(ctx, query, groupID)
}

func (r *TransactionRepository) UpdateGroupRow(ctx context.Context, userID int64, update transaction.GroupRowUpdate) error {
	query := `
		UPDATE transactions
		SET invoice_id = $1,
		    amount = $2,
		    transaction_date = $3,
		    installment_number = $4,
		    total_installments = $5,
		    description = COALESCE($6, description),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $7 AND user_id = $8
	`

	result, err := r.db.ExecContext(ctx, query,
		update.InvoiceID, int64(update.Amount), update.TransactionDate,
		update.InstallmentNumber, update.TotalInstallments, update.Description,
		update.MovementID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update movement: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check movement update: %w", err)
	}
	if affected == 0 {
		return transaction.ErrGroupNotFound
	}
	return nil
}

func (r *TransactionRepository) listMovements(ctx context.Context, query string, args ...any) ([]*transaction.Movement, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	defer rows.Close()

	var movements []*transaction.Movement
	for rows.Next() {
		var m transaction.Movement
		if err := scanMovement(rows, &m); err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		movements = append(movements, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movements: %w", err)
	}

	return movements, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovement(row rowScanner, m *transaction.Movement) error {
	return row.Scan(
		&m.ID, &m.UserID, &m.AccountID, &m.CreditCardID, &m.InvoiceID, &m.Description,
		&m.Amount, &m.TransactionDate, &m.Type, &m.InstallmentNumber, &m.TotalInstallments,
		&m.InstallmentGroupID, &m.Notes, &m.CreatedAt, &m.UpdatedAt,
	)
}

func movementFromParams(p transaction.CreateParams) *transaction.Movement {
	return &transaction.Movement{
		ID:                 p.ID,
		UserID:             p.UserID,
		AccountID:          p.AccountID,
		CreditCardID:       p.CreditCardID,
		InvoiceID:          p.InvoiceID,
		Description:        p.Description,
		Amount:             p.Amount,
		TransactionDate:    p.TransactionDate,
		Type:               p.Type,
		InstallmentNumber:  p.InstallmentNumber,
		TotalInstallments:  p.TotalInstallments,
		InstallmentGroupID: p.InstallmentGroupID,
		Notes:              p.Notes,
	}
}
