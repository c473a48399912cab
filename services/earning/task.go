package earning

import (
	"context"
	"time"

	pkgasynq "snapbounty-platform/pkg/asynq"
	"snapbounty-platform/pkg/db/option"
	"snapbounty-platform/pkg/repository"
	"snapbounty-platform/pkg/sequence"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var TaskModule = fx.Module("task.earning",
	fx.Provide(NewTask),
	fx.Invoke(registerTaskHandlers),
)

type Task struct {
	earnings repository.Repository[Earning]
	codes    sequence.Generator
}

type TaskParams struct {
	fx.In

	DB    *gorm.DB
	Codes sequence.Generator
}

func NewTask(p TaskParams) *Task {
	return &Task{
		earnings: repository.ProvideStore[Earning](p.DB),
		codes:    p.Codes,
	}
}

func registerTaskHandlers(mux *asynq.ServeMux, task *Task) {
	mux.HandleFunc(pkgasynq.ProcessPayoutBatchTask, task.HandleProcessPayoutBatch)
}

// HandleProcessPayoutBatch settles every processing earning under one batch
// code. Each row is advanced with a status-conditioned update, so an entry an
// operator held mid-batch is skipped rather than paid.
func (t *Task) HandleProcessPayoutBatch(ctx context.Context, _ *asynq.Task) error {
	zapLog := zap.L().With(zap.String("task_type", pkgasynq.ProcessPayoutBatchTask))

	entries, err := t.earnings.Find(ctx, &Earning{Status: StatusProcessing})
	if err != nil {
		zapLog.Error("failed to load processing earnings", zap.Error(err))
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	batchCode, err := t.codes.NextPayoutBatchCode(ctx)
	if err != nil {
		zapLog.Error("failed to generate payout batch code", zap.Error(err))
		return err
	}
	zapLog = zapLog.With(zap.String("batch_code", batchCode))

	paid := 0
	for _, entry := range entries {
		affected, err := t.earnings.CompareAndSwap(ctx, entry.ID, map[string]any{
			"status":     StatusPaid,
			"batch_code": batchCode,
			"paid_at":    time.Now(),
			"updated_at": time.Now(),
		}, option.Condition{
			Field:    "status",
			Operator: option.EQ,
			Value:    string(StatusProcessing),
		})
		if err != nil {
			zapLog.Error("failed to settle earning", zap.String("earning_id", entry.ID), zap.Error(err))
			return err
		}
		if affected == 1 {
			paid++
		}
	}

	zapLog.Info("payout batch settled", zap.Int("paid", paid), zap.Int("scanned", len(entries)))
	return nil
}
