package earning

import "time"

// Status is the payout workflow state of a ledger entry. pending moves to
// processing then paid; held is a side branch an operator can divert to and
// release from.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusPaid       Status = "paid"
	StatusHeld       Status = "held"
)

// Earning is an immutable ledger entry representing money owed to a
// contributor. Amount and contributor never change after insert; only status
// and paid_at are mutated, and only by the payout workflow. The row is
// deleted in exactly one case: compensation for a review whose request
// counter update lost the race.
type Earning struct {
	ID            string `gorm:"column:id;primaryKey" json:"id"`
	ContributorID string `gorm:"column:contributor_id;index" json:"contributor_id"`
	SubmissionID  string `gorm:"column:submission_id;uniqueIndex" json:"submission_id"`
	RequestID     string `gorm:"column:request_id;index" json:"request_id"`
	AmountCents   int64  `gorm:"column:amount_cents" json:"amount_cents"`
	Status        Status `gorm:"column:status;index" json:"status"`
	BatchCode     string `gorm:"column:batch_code;index" json:"batch_code,omitempty"`

	PaidAt    *time.Time `gorm:"column:paid_at" json:"paid_at,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Earning) TableName() string {
	return "earnings"
}

// StatusTotal is an aggregate row for dashboard stats.
type StatusTotal struct {
	Status     Status `json:"status"`
	TotalCents int64  `json:"total_cents"`
	Count      int64  `json:"count"`
}

// ContributorSummary is the per-contributor earnings breakdown.
type ContributorSummary struct {
	ContributorID string `json:"contributor_id"`
	PendingCents  int64  `json:"pending_cents"`
	PaidCents     int64  `json:"paid_cents"`
	HeldCents     int64  `json:"held_cents"`
	LifetimeCents int64  `json:"lifetime_cents"`
}
