package submission

import (
	"time"

	"snapbounty-platform/services/bounty"
)

// Payout is the computed breakdown for one acceptance. All amounts are
// integer cents.
type Payout struct {
	EarnedAmountCents int64 `json:"earned_amount_cents"`
	SpeedBonusCents   int64 `json:"speed_bonus_cents"`
	QualityBonusCents int64 `json:"quality_bonus_cents"`
}

func (p Payout) BonusCents() int64 {
	return p.SpeedBonusCents + p.QualityBonusCents
}

func (p Payout) TotalCents() int64 {
	return p.EarnedAmountCents + p.SpeedBonusCents + p.QualityBonusCents
}

// ComputePayout derives the amounts owed for accepting a submission. Pure:
// everything it needs arrives as arguments.
//
// The speed bonus requires submitted_at strictly before the deadline; a
// submission at the exact deadline does not qualify. The quality bonus is
// only ever awarded by explicit reviewer choice.
func ComputePayout(request *bounty.BountyRequest, submittedAt time.Time, imageCount int, awardQualityBonus bool) Payout {
	var payout Payout

	switch request.PayType {
	case bounty.PayPerImage:
		payout.EarnedAmountCents = request.PayAmountCents * int64(imageCount)
	default:
		payout.EarnedAmountCents = request.PayAmountCents
	}

	if request.SpeedBonusCents > 0 &&
		request.SpeedBonusDeadline != nil &&
		submittedAt.Before(*request.SpeedBonusDeadline) {
		payout.SpeedBonusCents = request.SpeedBonusCents
	}

	if awardQualityBonus {
		payout.QualityBonusCents = request.QualityBonusCents
	}

	return payout
}
