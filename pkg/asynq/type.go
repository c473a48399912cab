package asynq

const (
	// NotifyActivityTask delivers a contributor-visible activity event.
	NotifyActivityTask = "activity:notify"

	// ProcessPayoutBatchTask advances processing earnings to paid.
	ProcessPayoutBatchTask = "payout:process_batch"

	// ReconcileReviewsTask sweeps for reviews interrupted between the
	// request counter commit and the submission flip.
	ReconcileReviewsTask = "review:reconcile"
)

type NotifyActivityPayload struct {
	ContributorID string         `json:"contributor_id"`
	EventKind     string         `json:"event_kind"`
	Message       string         `json:"message"`
	Context       map[string]any `json:"context,omitempty"`
}
