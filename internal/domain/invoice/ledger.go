package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Ledger resolves the invoice bucket a card purchase belongs to, creating
// it lazily on first use. One invoice row exists per (card, reference
// month); all callers go through GetOrCreate so the row is never duplicated.
type Ledger struct {
	repo Repository
}

// NewLedger creates a new invoice ledger
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// GetOrCreateParams identifies the invoice bucket to resolve.
type GetOrCreateParams struct {
	CreditCardID   string
	ReferenceMonth time.Time
	UserID         int64
	ClosingDay     int
	DueDay         int
}

// GetOrCreate returns the id of the invoice for (card, reference month),
// creating it with zero totals and derived closing/due dates when absent.
//
// This is a check-then-act sequence: two concurrent purchases in a
// never-before-seen month can both miss the lookup and race on the insert.
// The storage layer's uniqueness constraint decides the winner; the loser
// sees ErrDuplicateInvoice, re-fetches, and uses the winner's id. Any other
// insert failure is wrapped in ErrCreationFailed so callers abort before
// writing an orphaned movement.
func (l *Ledger) GetOrCreate(ctx context.Context, params GetOrCreateParams) (string, error) {
	month := firstOfMonth(params.ReferenceMonth)

	existing, err := l.repo.FindByReference(ctx, params.CreditCardID, month)
	if err != nil {
		return "", fmt.Errorf("failed to look up invoice: %w", err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	closing, due := ClosingAndDueDates(month, params.ClosingDay, params.DueDay)
	created, err := l.repo.Create(ctx, CreateParams{
		UserID:         params.UserID,
		CreditCardID:   params.CreditCardID,
		ReferenceMonth: month,
		ClosingDate:    closing,
		DueDate:        due,
		TotalAmount:    0,
		PaidAmount:     0,
		Status:         StatusOpen,
	})
	if err == nil {
		return created.ID, nil
	}

	if errors.Is(err, ErrDuplicateInvoice) {
		// Lost the race: someone else just created it.
		winner, ferr := l.repo.FindByReference(ctx, params.CreditCardID, month)
		if ferr != nil {
			return "", fmt.Errorf("failed to re-fetch invoice after duplicate insert: %w", ferr)
		}
		if winner == nil {
			return "", fmt.Errorf("%w: duplicate reported but invoice missing on re-fetch", ErrCreationFailed)
		}
		return winner.ID, nil
	}

	return "", fmt.Errorf("%w: %v", ErrCreationFailed, err)
}

// firstOfMonth truncates a date to the first day of its month in UTC.
func firstOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}
