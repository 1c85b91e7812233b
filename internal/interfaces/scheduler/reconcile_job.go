package scheduler

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"fatura/internal/domain/card"
)

// limitReconcileConcurrency caps how many cards of one user are
// recomputed in parallel.
const limitReconcileConcurrency = 4

// LimitReconcileJob re-derives available_limit for every card of one
// user. Charges and payments update the limit incrementally and tolerate
// a failed update or a racing writer; this job walks the invoices and
// repairs whatever drift accumulated.
type LimitReconcileJob struct {
	userID int64
	cards  card.Repository
}

func NewLimitReconcileJob(userID int64, cards card.Repository) *LimitReconcileJob {
	return &LimitReconcileJob{
		userID: userID,
		cards:  cards,
	}
}

// Execute reconciles all of the user's active cards.
func (j *LimitReconcileJob) Execute(ctx context.Context) error {
	ids, err := j.cards.ListIDsByUserID(ctx, j.userID)
	if err != nil {
		return fmt.Errorf("failed to list cards for user %d: %w", j.userID, err)
	}
	if len(ids) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limitReconcileConcurrency)

	for _, id := range ids {
		cardID := id
		g.Go(func() error {
			if err := j.cards.RecomputeAvailableLimit(ctx, cardID, j.userID); err != nil {
				return fmt.Errorf("card %s: %w", cardID, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("limit reconciliation for user %d: %w", j.userID, err)
	}

	log.Printf("Reconciled available limit on %d cards for user %d", len(ids), j.userID)
	return nil
}

// UserID returns the user ID for logging.
func (j *LimitReconcileJob) UserID() string {
	return fmt.Sprintf("%d", j.userID)
}

// Description returns a human-readable description of the job.
func (j *LimitReconcileJob) Description() string {
	return "credit card limit reconciliation"
}
