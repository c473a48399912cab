package notify

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityEvent is one row of a contributor's activity feed. Written by the
// worker, read by the contributor dashboard.
type ActivityEvent struct {
	ID            string         `gorm:"column:id;primaryKey" json:"id"`
	ContributorID string         `gorm:"column:contributor_id;index" json:"contributor_id"`
	EventKind     string         `gorm:"column:event_kind" json:"event_kind"`
	Message       string         `gorm:"column:message" json:"message"`
	Context       datatypes.JSON `gorm:"column:context" json:"context,omitempty"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ActivityEvent) TableName() string {
	return "activity_events"
}

// Event kinds surfaced on the contributor feed.
const (
	EventSubmissionAccepted = "submission_accepted"
	EventSubmissionRejected = "submission_rejected"
	EventRevisionRequested  = "revision_requested"
	EventPayoutSettled      = "payout_settled"
)
