package submission

import (
	"time"

	"gorm.io/datatypes"
)

// Status of a submission. accepted and rejected are terminal;
// revision_requested hands the submission back to the contributor for edits.
type Status string

const (
	StatusSubmitted         Status = "submitted"
	StatusInReview          Status = "in_review"
	StatusAccepted          Status = "accepted"
	StatusRejected          Status = "rejected"
	StatusRevisionRequested Status = "revision_requested"
)

// Reviewable reports whether a review decision may still be made.
func (s Status) Reviewable() bool {
	return s == StatusSubmitted || s == StatusInReview
}

// BountySubmission is one contributor's delivery against a bounty request.
// The financial outcome fields are written exactly once, by the review
// engine, on acceptance.
type BountySubmission struct {
	ID            string `gorm:"column:id;primaryKey" json:"id"`
	RequestID     string `gorm:"column:request_id;index" json:"request_id"`
	ContributorID string `gorm:"column:contributor_id;index" json:"contributor_id"`
	Status        Status `gorm:"column:status;index" json:"status"`

	// ImageCount is stamped by the intake flow; AssetPrefix locates the
	// delivered objects in the assets bucket.
	ImageCount  int    `gorm:"column:image_count" json:"image_count"`
	AssetPrefix string `gorm:"column:asset_prefix" json:"asset_prefix,omitempty"`

	SubmittedAt time.Time `gorm:"column:submitted_at" json:"submitted_at"`

	EarnedAmountCents int64  `gorm:"column:earned_amount_cents" json:"earned_amount_cents"`
	BonusAmountCents  int64  `gorm:"column:bonus_amount_cents" json:"bonus_amount_cents"`
	EarningID         string `gorm:"column:earning_id" json:"earning_id,omitempty"`

	ReviewedBy     string     `gorm:"column:reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	ReviewFeedback string     `gorm:"column:review_feedback" json:"review_feedback,omitempty"`

	Metadata  datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (BountySubmission) TableName() string {
	return "bounty_submissions"
}
