package notify

import (
	"context"
	"encoding/json"
	"fmt"

	pkgasynq "snapbounty-platform/pkg/asynq"
	"snapbounty-platform/pkg/rediskey"
	"snapbounty-platform/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var TaskModule = fx.Module("task.notify",
	fx.Provide(NewTask),
	fx.Invoke(registerTaskHandlers),
)

type Task struct {
	node   *snowflake.Node
	events repository.Repository[ActivityEvent]
	cache  *redis.Client
}

type TaskParams struct {
	fx.In

	DB    *gorm.DB
	Node  *snowflake.Node
	Redis *redis.Client `optional:"true"`
}

func NewTask(p TaskParams) *Task {
	return &Task{
		node:   p.Node,
		events: repository.ProvideStore[ActivityEvent](p.DB),
		cache:  p.Redis,
	}
}

func registerTaskHandlers(mux *asynq.ServeMux, task *Task) {
	mux.HandleFunc(pkgasynq.NotifyActivityTask, task.HandleNotifyActivity)
}

func (t *Task) HandleNotifyActivity(ctx context.Context, task *asynq.Task) error {
	var payload pkgasynq.NotifyActivityPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	zapLog := zap.L().With(
		zap.String("task_type", task.Type()),
		zap.String("contributor_id", payload.ContributorID),
		zap.String("event_kind", payload.EventKind),
	)

	contextBytes, _ := json.Marshal(payload.Context)
	event := &ActivityEvent{
		ID:            t.node.Generate().String(),
		ContributorID: payload.ContributorID,
		EventKind:     payload.EventKind,
		Message:       payload.Message,
		Context:       datatypes.JSON(contextBytes),
	}

	if err := t.events.Create(ctx, event); err != nil {
		zapLog.Error("failed to persist activity event", zap.Error(err))
		return err
	}

	if t.cache != nil {
		// Drop the cached first page so the new event shows up immediately.
		if err := t.cache.Del(ctx, rediskey.BuildActivityFeedKey(payload.ContributorID)).Err(); err != nil {
			zapLog.Warn("failed to invalidate feed cache", zap.Error(err))
		}
	}

	zapLog.Info("activity event recorded")
	return nil
}
