package submission

import (
	"context"
	"time"

	pkgasynq "snapbounty-platform/pkg/asynq"
	"snapbounty-platform/pkg/repository"
	"snapbounty-platform/services/earning"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var TaskModule = fx.Module("task.submission",
	fx.Provide(NewTask),
	fx.Invoke(registerTaskHandlers),
)

// reconcileGrace is how old an earning must be before the sweep treats a
// dangling submission as a crashed review rather than one still in flight.
const reconcileGrace = 5 * time.Minute

type Task struct {
	db          *gorm.DB
	submissions repository.Repository[BountySubmission]
	earnings    repository.Repository[earning.Earning]
}

type TaskParams struct {
	fx.In

	DB *gorm.DB
}

func NewTask(p TaskParams) *Task {
	return &Task{
		db:          p.DB,
		submissions: repository.ProvideStore[BountySubmission](p.DB),
		earnings:    repository.ProvideStore[earning.Earning](p.DB),
	}
}

func registerTaskHandlers(mux *asynq.ServeMux, task *Task) {
	mux.HandleFunc(pkgasynq.ReconcileReviewsTask, task.HandleReconcileReviews)
}

// HandleReconcileReviews sweeps for reviews that crashed between the earning
// insert and the submission flip: the budget is debited but no submission
// points at the earning. The sweep only reports, repair is an operator call
// because either direction (void the earning, or finish the flip) changes
// what a contributor is owed.
func (t *Task) HandleReconcileReviews(ctx context.Context, _ *asynq.Task) error {
	zapLog := zap.L().With(zap.String("task_type", pkgasynq.ReconcileReviewsTask))

	dangling, err := t.findDangling(ctx, time.Now().Add(-reconcileGrace))
	if err != nil {
		zapLog.Error("failed to scan for dangling earnings", zap.Error(err))
		return err
	}

	for _, entry := range dangling {
		zapLog.Warn("earning has no accepted submission, manual reconciliation required",
			zap.String("earning_id", entry.ID),
			zap.String("submission_id", entry.SubmissionID),
			zap.String("request_id", entry.RequestID),
			zap.Int64("amount_cents", entry.AmountCents),
			zap.Time("created_at", entry.CreatedAt),
		)
	}

	zapLog.Info("review reconcile sweep complete", zap.Int("dangling", len(dangling)))
	return nil
}

// findDangling returns earnings created before cutoff that no submission
// references.
func (t *Task) findDangling(ctx context.Context, cutoff time.Time) ([]*earning.Earning, error) {
	var dangling []*earning.Earning
	err := t.db.WithContext(ctx).
		Table("earnings").
		Select("earnings.*").
		Joins("LEFT JOIN bounty_submissions ON bounty_submissions.earning_id = earnings.id").
		Where("earnings.created_at < ?", cutoff).
		Where("bounty_submissions.id IS NULL").
		Find(&dangling).Error
	if err != nil {
		return nil, err
	}
	return dangling, nil
}
