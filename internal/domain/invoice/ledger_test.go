package invoice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"fatura/internal/domain/money"
)

// MockRepository is a mock implementation of Repository interface
type MockRepository struct {
	CreateFunc          func(ctx context.Context, params CreateParams) (*Invoice, error)
	GetByIDFunc         func(ctx context.Context, id string) (*Invoice, error)
	FindByReferenceFunc func(ctx context.Context, creditCardID string, referenceMonth time.Time) (*Invoice, error)
	ListByCardIDFunc    func(ctx context.Context, creditCardID string, limit, offset int) ([]*Invoice, error)
	UpdatePaymentFunc   func(ctx context.Context, id string, paidAmount money.Cents, status string) error
	RecomputeTotalFunc  func(ctx context.Context, id string) error
}

func (m *MockRepository) Create(ctx context.Context, params CreateParams) (*Invoice, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*Invoice, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockRepository) FindByReference(ctx context.Context, creditCardID string, referenceMonth time.Time) (*Invoice, error) {
	if m.FindByReferenceFunc != nil {
		return m.FindByReferenceFunc(ctx, creditCardID, referenceMonth)
	}
	return nil, nil
}

func (m *MockRepository) ListByCardID(ctx context.Context, creditCardID string, limit, offset int) ([]*Invoice, error) {
	if m.ListByCardIDFunc != nil {
		return m.ListByCardIDFunc(ctx, creditCardID, limit, offset)
	}
	return nil, nil
}

func (m *MockRepository) UpdatePayment(ctx context.Context, id string, paidAmount money.Cents, status string) error {
	if m.UpdatePaymentFunc != nil {
		return m.UpdatePaymentFunc(ctx, id, paidAmount, status)
	}
	return nil
}

func (m *MockRepository) RecomputeTotal(ctx context.Context, id string) error {
	if m.RecomputeTotalFunc != nil {
		return m.RecomputeTotalFunc(ctx, id)
	}
	return nil
}

// memoryInvoiceRepo is a thread-safe in-memory repository that enforces the
// (card, reference month) uniqueness constraint like the real storage does.
type memoryInvoiceRepo struct {
	mu       sync.Mutex
	rows     map[string]*Invoice
	nextID   int
	creates  int
	failNext error
}

func newMemoryInvoiceRepo() *memoryInvoiceRepo {
	return &memoryInvoiceRepo{rows: make(map[string]*Invoice)}
}

func (r *memoryInvoiceRepo) key(cardID string, month time.Time) string {
	return cardID + "|" + month.Format("2006-01")
}

func (r *memoryInvoiceRepo) Create(ctx context.Context, params CreateParams) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return nil, err
	}
	k := r.key(params.CreditCardID, params.ReferenceMonth)
	if _, exists := r.rows[k]; exists {
		return nil, ErrDuplicateInvoice
	}
	r.nextID++
	r.creates++
	inv := &Invoice{
		ID:             fmt.Sprintf("inv-%d", r.nextID),
		UserID:         params.UserID,
		CreditCardID:   params.CreditCardID,
		ReferenceMonth: params.ReferenceMonth,
		ClosingDate:    params.ClosingDate,
		DueDate:        params.DueDate,
		TotalAmount:    params.TotalAmount,
		PaidAmount:     params.PaidAmount,
		Status:         params.Status,
	}
	r.rows[k] = inv
	return inv, nil
}

func (r *memoryInvoiceRepo) GetByID(ctx context.Context, id string) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.rows {
		if inv.ID == id {
			return inv, nil
		}
	}
	return nil, nil
}

func (r *memoryInvoiceRepo) FindByReference(ctx context.Context, cardID string, month time.Time) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv, ok := r.rows[r.key(cardID, month)]; ok {
		return inv, nil
	}
	return nil, nil
}

func (r *memoryInvoiceRepo) ListByCardID(ctx context.Context, cardID string, limit, offset int) ([]*Invoice, error) {
	return nil, nil
}

func (r *memoryInvoiceRepo) UpdatePayment(ctx context.Context, id string, paidAmount money.Cents, status string) error {
	return nil
}

func (r *memoryInvoiceRepo) RecomputeTotal(ctx context.Context, id string) error {
	return nil
}

func TestGetOrCreateIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryInvoiceRepo()
	ledger := NewLedger(repo)

	params := GetOrCreateParams{
		CreditCardID:   "card-1",
		ReferenceMonth: date(2025, time.April, 1),
		UserID:         1,
		ClosingDay:     28,
		DueDay:         8,
	}

	first, err := ledger.GetOrCreate(ctx, params)
	if err != nil {
		t.Fatalf("first GetOrCreate: %v", err)
	}
	second, err := ledger.GetOrCreate(ctx, params)
	if err != nil {
		t.Fatalf("second GetOrCreate: %v", err)
	}

	if first != second {
		t.Errorf("expected same invoice id, got %q and %q", first, second)
	}
	if repo.creates != 1 {
		t.Errorf("expected exactly 1 create, got %d", repo.creates)
	}
}

func TestGetOrCreateInitializesInvoice(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryInvoiceRepo()
	ledger := NewLedger(repo)

	// Mid-month input must be truncated to the first of the month.
	id, err := ledger.GetOrCreate(ctx, GetOrCreateParams{
		CreditCardID:   "card-1",
		ReferenceMonth: date(2025, time.February, 17),
		UserID:         1,
		ClosingDay:     31,
		DueDay:         10,
	})
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	inv, _ := repo.GetByID(ctx, id)
	if inv == nil {
		t.Fatal("invoice not persisted")
	}
	if !inv.ReferenceMonth.Equal(date(2025, time.February, 1)) {
		t.Errorf("reference month = %v, want 2025-02-01", inv.ReferenceMonth)
	}
	if !inv.ClosingDate.Equal(date(2025, time.February, 28)) {
		t.Errorf("closing date = %v, want clamped 2025-02-28", inv.ClosingDate)
	}
	if !inv.DueDate.Equal(date(2025, time.March, 10)) {
		t.Errorf("due date = %v, want 2025-03-10", inv.DueDate)
	}
	if inv.TotalAmount != 0 || inv.PaidAmount != 0 {
		t.Errorf("totals not zero-initialized: total=%d paid=%d", inv.TotalAmount, inv.PaidAmount)
	}
	if inv.Status != StatusOpen {
		t.Errorf("status = %q, want %q", inv.Status, StatusOpen)
	}
}

func TestGetOrCreateDuplicateRace(t *testing.T) {
	ctx := context.Background()

	winner := &Invoice{ID: "inv-winner", CreditCardID: "card-1"}
	lookups := 0
	repo := &MockRepository{
		FindByReferenceFunc: func(ctx context.Context, cardID string, month time.Time) (*Invoice, error) {
			lookups++
			if lookups == 1 {
				return nil, nil // first check misses
			}
			return winner, nil // re-fetch after losing the race
		},
		CreateFunc: func(ctx context.Context, params CreateParams) (*Invoice, error) {
			return nil, ErrDuplicateInvoice
		},
	}

	ledger := NewLedger(repo)
	id, err := ledger.GetOrCreate(ctx, GetOrCreateParams{
		CreditCardID:   "card-1",
		ReferenceMonth: date(2025, time.May, 1),
		UserID:         1,
		ClosingDay:     28,
		DueDay:         8,
	})
	if err != nil {
		t.Fatalf("expected race to be recovered, got %v", err)
	}
	if id != "inv-winner" {
		t.Errorf("expected winner's id, got %q", id)
	}
}

func TestGetOrCreateHardFailure(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryInvoiceRepo()
	repo.failNext = errors.New("storage unavailable")
	ledger := NewLedger(repo)

	_, err := ledger.GetOrCreate(ctx, GetOrCreateParams{
		CreditCardID:   "card-1",
		ReferenceMonth: date(2025, time.June, 1),
		UserID:         1,
		ClosingDay:     28,
		DueDay:         8,
	})
	if !errors.Is(err, ErrCreationFailed) {
		t.Fatalf("expected ErrCreationFailed, got %v", err)
	}
}

func TestGetOrCreateConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryInvoiceRepo()
	ledger := NewLedger(repo)

	params := GetOrCreateParams{
		CreditCardID:   "card-1",
		ReferenceMonth: date(2025, time.July, 1),
		UserID:         1,
		ClosingDay:     28,
		DueDay:         8,
	}

	const goroutines = 16
	ids := make([]string, goroutines)
	errs := make([]error, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = ledger.GetOrCreate(ctx, params)
		}(i)
	}
	wg.Wait()

	for i := 0; i < goroutines; i++ {
		if errs[i] != nil {
			t.Fatalf("goroutine %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("divergent invoice ids: %q vs %q", ids[i], ids[0])
		}
	}
	if repo.creates != 1 {
		t.Errorf("expected exactly 1 persisted invoice, got %d", repo.creates)
	}
}
