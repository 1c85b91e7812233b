package transaction

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"fatura/internal/domain/card"
	"fatura/internal/domain/invoice"
	"fatura/internal/domain/money"
)

// ChargeService records credit-card purchases: it checks the available
// limit, resolves the invoice bucket of every installment, writes the
// movement rows and then brings invoice totals and the card limit up to
// date.
type ChargeService struct {
	cards       card.Repository
	invoices    *invoice.Ledger
	invoiceRepo invoice.Repository
	movements   Repository
}

// NewChargeService creates a new charge service
func NewChargeService(cards card.Repository, invoiceRepo invoice.Repository, movements Repository) *ChargeService {
	return &ChargeService{
		cards:       cards,
		invoices:    invoice.NewLedger(invoiceRepo),
		invoiceRepo: invoiceRepo,
		movements:   movements,
	}
}

// ChargeParams describes one card purchase, single or installment plan.
type ChargeParams struct {
	UserID       int64
	CreditCardID string
	AccountID    string
	Description  string
	// Amount is the entered value: the whole purchase when AmountIsTotal,
	// otherwise the value of each installment. Always treated as positive.
	Amount          money.Cents
	TransactionDate time.Time
	Installments    int
	Frequency       Frequency
	AmountIsTotal   bool
	Notes           *string
}

// Validate validates the charge parameters
func (p ChargeParams) Validate() error {
	if p.UserID <= 0 {
		return fmt.Errorf("%w: valid user ID is required", ErrInvalidInput)
	}
	if p.CreditCardID == "" {
		return fmt.Errorf("%w: credit card ID is required", ErrInvalidInput)
	}
	if p.AccountID == "" {
		return fmt.Errorf("%w: account ID is required", ErrInvalidInput)
	}
	if p.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if p.Amount == 0 {
		return fmt.Errorf("%w: amount is required", ErrInvalidInput)
	}
	if p.TransactionDate.IsZero() {
		return fmt.Errorf("%w: transaction date is required", ErrInvalidInput)
	}
	if p.Installments < 1 {
		return fmt.Errorf("%w: installments must be at least 1", ErrInvalidInput)
	}
	if p.Installments > 1 && !IsValidFrequency(p.Frequency) {
		return fmt.Errorf("%w: invalid repetition frequency", ErrInvalidInput)
	}
	return nil
}

// ChargeCard records a purchase on the card and returns the ids of the
// committed movement rows, one per installment.
//
// The limit check happens before any write: an insufficient limit leaves
// the ledger untouched. After the check every step may block on storage
// I/O, and two concurrent charges do not see each other's in-flight
// consumption; that window is accepted and repaired by the limit
// reconciliation job.
func (s *ChargeService) ChargeCard(ctx context.Context, params ChargeParams) ([]string, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	c, err := s.cards.GetByID(ctx, params.CreditCardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load card: %w", err)
	}
	if c == nil {
		return nil, card.ErrCardNotFound
	}
	if c.UserID != params.UserID {
		return nil, card.ErrForbidden
	}

	plan := ExpandInstallments(params.Amount, params.Installments, params.TransactionDate, params.Frequency, params.AmountIsTotal)

	var totalToCheck money.Cents
	for _, inst := range plan {
		totalToCheck += inst.Amount
	}
	if c.AvailableLimit < totalToCheck {
		return nil, ErrInsufficientLimit
	}

	var groupID *string
	if len(plan) > 1 {
		g := uuid.New().String()
		groupID = &g
	}

	rows := make([]CreateParams, 0, len(plan))
	invoiceIDs := make(map[string]struct{})
	for i, inst := range plan {
		refMonth := invoice.ReferenceMonthFor(inst.Date, c.ClosingDay)
		invoiceID, err := s.invoices.GetOrCreate(ctx, invoice.GetOrCreateParams{
			CreditCardID:   c.ID,
			ReferenceMonth: refMonth,
			UserID:         params.UserID,
			ClosingDay:     c.ClosingDay,
			DueDay:         c.DueDay,
		})
		if err != nil {
			// No movement has been written yet; abort cleanly.
			return nil, fmt.Errorf("failed to resolve invoice for installment %d: %w", i+1, err)
		}
		invoiceIDs[invoiceID] = struct{}{}

		invID := invoiceID
		cardID := c.ID
		rows = append(rows, CreateParams{
			ID:                 uuid.New().String(),
			UserID:             params.UserID,
			AccountID:          params.AccountID,
			CreditCardID:       &cardID,
			InvoiceID:          &invID,
			Description:        params.Description,
			Amount:             -inst.Amount.Abs(),
			TransactionDate:    inst.Date,
			Type:               TypeExpense,
			InstallmentNumber:  i + 1,
			TotalInstallments:  len(plan),
			InstallmentGroupID: groupID,
			Notes:              params.Notes,
		})
	}

	committed, err := s.movements.CreateBatch(ctx, rows)
	if err != nil {
		var partial *PartialChargeError
		if errors.As(err, &partial) {
			// Some rows are in the ledger and will not be rolled back;
			// the caller needs the ids to reconcile or alert.
			return partial.CommittedIDs, err
		}
		return nil, fmt.Errorf("failed to write charge movements: %w", err)
	}

	s.refreshAggregates(ctx, c.ID, params.UserID, invoiceIDs, -totalToCheck)

	return committed, nil
}

// refreshAggregates recomputes the touched invoice totals and applies the
// limit delta. The movements are already committed; aggregate failures are
// logged and left for the reconciliation job rather than failing the call.
func (s *ChargeService) refreshAggregates(ctx context.Context, cardID string, userID int64, invoiceIDs map[string]struct{}, limitDelta money.Cents) {
	ids := make([]string, 0, len(invoiceIDs))
	for id := range invoiceIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := s.invoiceRepo.RecomputeTotal(ctx, id); err != nil {
			log.Printf("Failed to recompute total for invoice %s: %v", id, err)
		}
	}
	if limitDelta == 0 {
		return
	}
	if err := s.cards.AdjustAvailableLimit(ctx, cardID, userID, limitDelta); err != nil {
		log.Printf("Failed to adjust available limit for card %s: %v", cardID, err)
	}
}

// UpdatePlanParams rewrites a whole installment plan: new value, start
// date and frequency applied to every movement sharing the group id.
type UpdatePlanParams struct {
	UserID        int64
	GroupID       string
	Amount        money.Cents
	StartDate     time.Time
	Frequency     Frequency
	AmountIsTotal bool
	Description   *string
}

// UpdateInstallmentPlan re-expands the plan and rewrites amount, date and
// installment metadata on every row of the group. Card purchases are also
// re-bucketed: each rewritten row gets the invoice its new date belongs
// to, and totals are recomputed on every invoice the plan touched.
func (s *ChargeService) UpdateInstallmentPlan(ctx context.Context, params UpdatePlanParams) error {
	if params.GroupID == "" {
		return fmt.Errorf("%w: group ID is required", ErrInvalidInput)
	}
	if params.Amount == 0 {
		return fmt.Errorf("%w: amount is required", ErrInvalidInput)
	}
	if params.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidInput)
	}
	if !IsValidFrequency(params.Frequency) {
		return fmt.Errorf("%w: invalid repetition frequency", ErrInvalidInput)
	}

	rows, err := s.movements.ListByGroupID(ctx, params.GroupID)
	if err != nil {
		return fmt.Errorf("failed to load installment group: %w", err)
	}
	if len(rows) == 0 {
		return ErrGroupNotFound
	}
	for _, row := range rows {
		if row.UserID != params.UserID {
			return card.ErrForbidden
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].InstallmentNumber < rows[j].InstallmentNumber
	})

	var c *card.Card
	if rows[0].CreditCardID != nil {
		c, err = s.cards.GetByID(ctx, *rows[0].CreditCardID)
		if err != nil {
			return fmt.Errorf("failed to load card: %w", err)
		}
		if c == nil {
			return card.ErrCardNotFound
		}
	}

	plan := ExpandInstallments(params.Amount, len(rows), params.StartDate, params.Frequency, params.AmountIsTotal)

	touched := make(map[string]struct{})
	for _, row := range rows {
		if row.InvoiceID != nil {
			touched[*row.InvoiceID] = struct{}{}
		}
	}

	for i, row := range rows {
		update := GroupRowUpdate{
			MovementID:        row.ID,
			TransactionDate:   plan[i].Date,
			InstallmentNumber: i + 1,
			TotalInstallments: len(rows),
			Description:       params.Description,
			InvoiceID:         row.InvoiceID,
		}
		// Keep the sign of the original row: expense plans stay negative.
		if row.Amount < 0 {
			update.Amount = -plan[i].Amount
		} else {
			update.Amount = plan[i].Amount
		}

		if c != nil {
			refMonth := invoice.ReferenceMonthFor(plan[i].Date, c.ClosingDay)
			invoiceID, err := s.invoices.GetOrCreate(ctx, invoice.GetOrCreateParams{
				CreditCardID:   c.ID,
				ReferenceMonth: refMonth,
				UserID:         params.UserID,
				ClosingDay:     c.ClosingDay,
				DueDay:         c.DueDay,
			})
			if err != nil {
				return fmt.Errorf("failed to resolve invoice for installment %d: %w", i+1, err)
			}
			update.InvoiceID = &invoiceID
			touched[invoiceID] = struct{}{}
		}

		if err := s.movements.UpdateGroupRow(ctx, params.UserID, update); err != nil {
			return fmt.Errorf("failed to rewrite installment %d: %w", i+1, err)
		}
	}

	if c != nil {
		s.refreshAggregates(ctx, c.ID, params.UserID, touched, 0)
		if err := s.cards.RecomputeAvailableLimit(ctx, c.ID, params.UserID); err != nil {
			log.Printf("Failed to recompute available limit for card %s: %v", c.ID, err)
		}
	}
	return nil
}
