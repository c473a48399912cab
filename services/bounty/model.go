package bounty

import (
	"time"
)

// RequestStatus is the lifecycle state of a bounty request. closed and
// cancelled are terminal; fulfilled accepts no new submissions but reviews
// already in flight may still complete.
type RequestStatus string

const (
	StatusDraft         RequestStatus = "draft"
	StatusPendingReview RequestStatus = "pending_review"
	StatusPublished     RequestStatus = "published"
	StatusPaused        RequestStatus = "paused"
	StatusFulfilled     RequestStatus = "fulfilled"
	StatusClosed        RequestStatus = "closed"
	StatusCancelled     RequestStatus = "cancelled"
)

func (s RequestStatus) Terminal() bool {
	return s == StatusClosed || s == StatusCancelled
}

// Reviewable reports whether submissions against a request in this status may
// still be reviewed.
func (s RequestStatus) Reviewable() bool {
	return s == StatusPublished || s == StatusPaused || s == StatusFulfilled
}

type PayType string

const (
	PayPerImage PayType = "per_image"
	PayFlat     PayType = "flat"
)

// BountyRequest is a unit of paid work demand with a budget cap and a target
// quantity of accepted submissions. budget_spent_cents and quantity_fulfilled
// are materialized aggregates over accepted submissions; lock_version guards
// them against concurrent reviewers.
type BountyRequest struct {
	ID          string        `gorm:"column:id;primaryKey" json:"id"`
	Code        string        `gorm:"column:code;uniqueIndex" json:"code"`
	Title       string        `gorm:"column:title" json:"title"`
	Slug        string        `gorm:"column:slug;index" json:"slug"`
	Description string        `gorm:"column:description" json:"description"`
	Status      RequestStatus `gorm:"column:status;index" json:"status"`

	PayType            PayType    `gorm:"column:pay_type" json:"pay_type"`
	PayAmountCents     int64      `gorm:"column:pay_amount_cents" json:"pay_amount_cents"`
	SpeedBonusCents    int64      `gorm:"column:speed_bonus_cents" json:"speed_bonus_cents"`
	SpeedBonusDeadline *time.Time `gorm:"column:speed_bonus_deadline" json:"speed_bonus_deadline,omitempty"`
	QualityBonusCents  int64      `gorm:"column:quality_bonus_cents" json:"quality_bonus_cents"`

	BudgetTotalCents int64 `gorm:"column:budget_total_cents" json:"budget_total_cents"`
	BudgetSpentCents int64 `gorm:"column:budget_spent_cents" json:"budget_spent_cents"`

	QuantityNeeded    int `gorm:"column:quantity_needed" json:"quantity_needed"`
	QuantityFulfilled int `gorm:"column:quantity_fulfilled" json:"quantity_fulfilled"`

	// LockVersion increments on every counter mutation. The review engine's
	// conditional update is keyed on it.
	LockVersion int64 `gorm:"column:lock_version" json:"-"`

	CreatedBy   string     `gorm:"column:created_by" json:"created_by"`
	ReviewedBy  string     `gorm:"column:reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	PublishedAt *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (BountyRequest) TableName() string {
	return "bounty_requests"
}

// RemainingBudgetCents is what can still be committed to new acceptances.
func (r *BountyRequest) RemainingBudgetCents() int64 {
	return r.BudgetTotalCents - r.BudgetSpentCents
}
