package notify

import (
	"context"
	"encoding/json"

	pkgasynq "snapbounty-platform/pkg/asynq"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Notifier delivers contributor-visible activity events. Delivery is
// fire-and-forget: callers never see a delivery failure, review outcomes must
// not depend on the feed.
type Notifier interface {
	Notify(ctx context.Context, contributorID, eventKind, message string, eventContext map[string]any)
}

type asynqNotifier struct {
	client *asynq.Client
}

type NotifierParams struct {
	fx.In
	Client *asynq.Client
}

func NewNotifier(p NotifierParams) Notifier {
	return &asynqNotifier{client: p.Client}
}

func (n *asynqNotifier) Notify(ctx context.Context, contributorID, eventKind, message string, eventContext map[string]any) {
	payload, err := json.Marshal(pkgasynq.NotifyActivityPayload{
		ContributorID: contributorID,
		EventKind:     eventKind,
		Message:       message,
		Context:       eventContext,
	})
	if err != nil {
		zap.L().Error("failed to marshal activity payload", zap.Error(err))
		return
	}

	task := asynq.NewTask(pkgasynq.NotifyActivityTask, payload)
	if _, err := n.client.EnqueueContext(ctx, task, asynq.Queue("default")); err != nil {
		zap.L().Error("failed to enqueue activity event",
			zap.String("contributor_id", contributorID),
			zap.String("event_kind", eventKind),
			zap.Error(err),
		)
	}
}

// Noop drops every event. Used in tests and in deployments without a worker.
type Noop struct{}

func (Noop) Notify(context.Context, string, string, string, map[string]any) {}
