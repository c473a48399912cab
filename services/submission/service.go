package submission

import (
	"context"
	"fmt"
	"time"

	"snapbounty-platform/pkg/assets"
	"snapbounty-platform/pkg/db/option"
	"snapbounty-platform/pkg/db/pagination"
	"snapbounty-platform/pkg/errutil"
	"snapbounty-platform/pkg/repository"
	"snapbounty-platform/services/bounty"
	"snapbounty-platform/services/earning"
	"snapbounty-platform/services/notify"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReviewAction is the admin decision on a submission.
type ReviewAction string

const (
	ActionAccept            ReviewAction = "accept"
	ActionReject            ReviewAction = "reject"
	ActionRevisionRequested ReviewAction = "revision_requested"
)

// compensateRetries bounds the delete attempts on a provisional earning. A
// compensation that still fails after these is logged for the reconcile
// sweep; it is never silently dropped.
const compensateRetries = 3

type Service struct {
	db   *gorm.DB
	node *snowflake.Node

	submissions repository.Repository[BountySubmission]
	requests    repository.Repository[bounty.BountyRequest]
	earnings    repository.Repository[earning.Earning]

	assets   assets.Store
	notifier notify.Notifier
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Assets   assets.Store    `optional:"true"`
	Notifier notify.Notifier `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	notifier := p.Notifier
	if notifier == nil {
		notifier = notify.Noop{}
	}

	return &Service{
		db:          p.DB,
		node:        p.Node,
		submissions: repository.ProvideStore[BountySubmission](p.DB),
		requests:    repository.ProvideStore[bounty.BountyRequest](p.DB),
		earnings:    repository.ProvideStore[earning.Earning](p.DB),
		assets:      p.Assets,
		notifier:    notifier,
	}
}

type ReviewInput struct {
	SubmissionID      string
	Action            ReviewAction
	Feedback          string
	AdminID           string
	AwardQualityBonus bool
}

type ReviewResult struct {
	Submission *BountySubmission `json:"submission"`
	Earning    *earning.Earning  `json:"earning,omitempty"`
	Payout     *Payout           `json:"payout,omitempty"`
}

// Review applies an admin decision to a submission.
//
// Acceptance runs the compare-and-swap-with-compensation protocol: the
// earning insert is provisional until the request counters are exclusively
// advanced; losing the counter race deletes the earning and surfaces a
// conflict the caller may retry against fresh data. The submission is never
// flipped to accepted before the counters commit.
func (s *Service) Review(ctx context.Context, input ReviewInput) (*ReviewResult, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	opts := []zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("submission_id", input.SubmissionID),
		zap.String("action", string(input.Action)),
		zap.String("admin_id", input.AdminID),
	}

	sub, err := s.submissions.FindOne(ctx, &BountySubmission{ID: input.SubmissionID})
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, errutil.NotFound("submission not found", nil)
	}
	if !sub.Status.Reviewable() {
		return nil, errutil.NotReviewable(
			fmt.Sprintf("submission in status %q cannot be reviewed", sub.Status),
		)
	}

	request, err := s.requests.FindOne(ctx, &bounty.BountyRequest{ID: sub.RequestID})
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, errutil.NotFound("bounty request not found", nil)
	}
	if !request.Status.Reviewable() {
		return nil, errutil.NotReviewable(
			fmt.Sprintf("request in status %q is not reviewable", request.Status),
		)
	}

	switch input.Action {
	case ActionAccept:
		return s.accept(ctx, opts, request, sub, input)
	case ActionReject:
		return s.decline(ctx, opts, sub, input, StatusRejected, notify.EventSubmissionRejected, "Your submission was not accepted")
	case ActionRevisionRequested:
		return s.decline(ctx, opts, sub, input, StatusRevisionRequested, notify.EventRevisionRequested, "Changes were requested on your submission")
	default:
		return nil, errutil.BadRequest(fmt.Sprintf("unknown review action %q", input.Action), nil)
	}
}

// decline covers reject and revision_requested: a single conditional update
// on the submission, no financial side effects.
func (s *Service) decline(ctx context.Context, opts []zap.Field, sub *BountySubmission, input ReviewInput, target Status, eventKind, message string) (*ReviewResult, error) {
	now := time.Now()
	affected, err := s.submissions.CompareAndSwap(ctx, sub.ID, map[string]any{
		"status":          target,
		"reviewed_by":     input.AdminID,
		"reviewed_at":     now,
		"review_feedback": input.Feedback,
		"updated_at":      now,
	}, reviewableCondition())
	if err != nil {
		zap.L().With(opts...).Error("failed to update submission", zap.Error(err))
		return nil, err
	}
	if affected == 0 {
		// Another reviewer decided first.
		return nil, errutil.NotReviewable("submission was already reviewed")
	}

	s.notifier.Notify(ctx, sub.ContributorID, eventKind, message, map[string]any{
		"submission_id": sub.ID,
		"request_id":    sub.RequestID,
		"feedback":      input.Feedback,
	})

	updated, err := s.submissions.FindOne(ctx, &BountySubmission{ID: sub.ID})
	if err != nil {
		return nil, err
	}

	zap.L().With(opts...).Info("submission declined", zap.String("to", string(target)))

	return &ReviewResult{Submission: updated}, nil
}

func (s *Service) accept(ctx context.Context, opts []zap.Field, request *bounty.BountyRequest, sub *BountySubmission, input ReviewInput) (*ReviewResult, error) {
	imageCount, err := s.imageCount(ctx, request, sub)
	if err != nil {
		return nil, err
	}

	payout := ComputePayout(request, sub.SubmittedAt, imageCount, input.AwardQualityBonus)
	total := payout.TotalCents()

	// Provisional write. Nothing else joins through this row until the
	// submission carries its id, so deleting it on failure is invisible to
	// other readers.
	entry := &earning.Earning{
		ID:            s.node.Generate().String(),
		ContributorID: sub.ContributorID,
		SubmissionID:  sub.ID,
		RequestID:     request.ID,
		AmountCents:   total,
		Status:        earning.StatusPending,
	}
	if err := s.earnings.Create(ctx, entry); err != nil {
		zap.L().With(opts...).Error("failed to insert earning", zap.Error(err))
		return nil, err
	}

	newSpent := request.BudgetSpentCents + total
	newFulfilled := request.QuantityFulfilled + 1

	if newSpent > request.BudgetTotalCents {
		s.compensate(ctx, opts, entry.ID)
		return nil, errutil.BudgetExceeded(fmt.Sprintf(
			"accepting would spend %d of %d cents", newSpent, request.BudgetTotalCents,
		))
	}

	updates := map[string]any{
		"budget_spent_cents": newSpent,
		"quantity_fulfilled": newFulfilled,
		"lock_version":       request.LockVersion + 1,
		"updated_at":         time.Now(),
	}
	if newFulfilled >= request.QuantityNeeded {
		updates["status"] = bounty.StatusFulfilled
	}

	// The single serialization point. Keyed on lock_version and on the
	// counter values read above: the update applies only if no concurrent
	// reviewer advanced them since this review began.
	affected, err := s.requests.CompareAndSwap(ctx, request.ID, updates,
		option.Condition{Field: "lock_version", Operator: option.EQ, Value: request.LockVersion},
		option.Condition{Field: "budget_spent_cents", Operator: option.EQ, Value: request.BudgetSpentCents},
		option.Condition{Field: "quantity_fulfilled", Operator: option.EQ, Value: request.QuantityFulfilled},
	)
	if err != nil {
		zap.L().With(opts...).Error("failed to advance request counters", zap.Error(err))
		s.compensate(ctx, opts, entry.ID)
		return nil, err
	}
	if affected == 0 {
		s.compensate(ctx, opts, entry.ID)
		return nil, errutil.ConcurrentModification(
			"another reviewer advanced this request, refetch and retry",
		)
	}

	// Counters are committed; from here the earning is owned by the payout
	// workflow. The submission flip is keyed by id and reviewable status so
	// a re-entrant call cannot double-apply it.
	now := time.Now()
	flipped, err := s.submissions.CompareAndSwap(ctx, sub.ID, map[string]any{
		"status":              StatusAccepted,
		"earned_amount_cents": payout.EarnedAmountCents,
		"bonus_amount_cents":  payout.BonusCents(),
		"earning_id":          entry.ID,
		"reviewed_by":         input.AdminID,
		"reviewed_at":         now,
		"review_feedback":     input.Feedback,
		"updated_at":          now,
	}, reviewableCondition())
	if err != nil || flipped == 0 {
		// The budget is already debited; the reconcile sweep surfaces this
		// row to operators. Do not compensate the earning here.
		zap.L().With(opts...).Error("submission flip failed after counter commit",
			zap.String("earning_id", entry.ID), zap.Error(err))
		return nil, errutil.Internal("acceptance partially applied, reconciliation required", err)
	}

	s.notifier.Notify(ctx, sub.ContributorID, notify.EventSubmissionAccepted,
		fmt.Sprintf("Your submission was accepted, you earned %d cents", total),
		map[string]any{
			"submission_id": sub.ID,
			"request_id":    request.ID,
			"earning_id":    entry.ID,
			"total_cents":   total,
		},
	)

	updated, err := s.submissions.FindOne(ctx, &BountySubmission{ID: sub.ID})
	if err != nil {
		return nil, err
	}

	zap.L().With(opts...).Info("submission accepted",
		zap.Int64("total_cents", total),
		zap.String("earning_id", entry.ID),
	)

	return &ReviewResult{Submission: updated, Earning: entry, Payout: &payout}, nil
}

// imageCount prefers the count stamped at intake and falls back to listing
// the delivered objects. Only per_image requests need it.
func (s *Service) imageCount(ctx context.Context, request *bounty.BountyRequest, sub *BountySubmission) (int, error) {
	if request.PayType != bounty.PayPerImage {
		return sub.ImageCount, nil
	}

	count := sub.ImageCount
	if count == 0 && s.assets != nil && sub.AssetPrefix != "" {
		counted, err := s.assets.CountObjects(ctx, sub.AssetPrefix)
		if err != nil {
			return 0, err
		}
		count = counted
	}

	if count <= 0 {
		return 0, errutil.UnprocessableEntity("per-image submission has no images", nil)
	}

	return count, nil
}

// compensate deletes a provisional earning. Retried because leaving the row
// behind would overstate the ledger.
func (s *Service) compensate(ctx context.Context, opts []zap.Field, earningID string) {
	var err error
	for i := 0; i < compensateRetries; i++ {
		if err = s.earnings.Delete(ctx, earningID); err == nil {
			return
		}
	}

	zap.L().With(opts...).Error("failed to delete provisional earning, reconciliation required",
		zap.String("earning_id", earningID), zap.Error(err))
}

func reviewableCondition() option.Condition {
	return option.Condition{
		Field:    "status",
		Operator: option.IN,
		Value:    []string{string(StatusSubmitted), string(StatusInReview)},
	}
}

func (s *Service) Get(ctx context.Context, submissionID string) (*BountySubmission, error) {
	sub, err := s.submissions.FindOne(ctx, &BountySubmission{ID: submissionID})
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, errutil.NotFound("submission not found", nil)
	}
	return sub, nil
}

func (s *Service) ListByRequest(ctx context.Context, requestID string, limit int) ([]*BountySubmission, error) {
	return s.submissions.Find(ctx, &BountySubmission{RequestID: requestID},
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "submitted_at",
			OrderBy: "asc",
			Allow:   map[string]bool{"submitted_at": true},
		}),
		option.WithLimit(limit),
	)
}

// PageByRequest lists a request's submissions in review order, oldest first,
// with an opaque cursor for the admin queue view.
func (s *Service) PageByRequest(ctx context.Context, requestID string, page pagination.Pagination) ([]*BountySubmission, *pagination.PageInfo, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 50
	}

	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "submitted_at",
			OrderBy: "asc",
			Allow:   map[string]bool{"submitted_at": true},
		}),
		option.WithLimit(limit + 1),
	}

	if page.Cursor != "" {
		cursor, err := pagination.DecodeCursor(page.Cursor)
		if err != nil {
			return nil, nil, errutil.BadRequest("invalid cursor", err)
		}
		after, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, nil, errutil.BadRequest("invalid cursor", err)
		}
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "submitted_at",
			Operator: option.GT,
			Value:    after,
		}))
	}

	subs, err := s.submissions.Find(ctx, &BountySubmission{RequestID: requestID}, opts...)
	if err != nil {
		return nil, nil, err
	}

	return pagination.Trim(subs, limit, func(sub *BountySubmission) pagination.Cursor {
		return pagination.Cursor{
			CreatedAt: sub.SubmittedAt.UTC().Format(time.RFC3339Nano),
			ID:        sub.ID,
		}
	})
}

// AssetURLs returns presigned download links for the submission's delivered
// images so reviewers can inspect them.
func (s *Service) AssetURLs(ctx context.Context, sub *BountySubmission, expiry time.Duration) ([]string, error) {
	if s.assets == nil || sub.AssetPrefix == "" {
		return nil, nil
	}

	urls := make([]string, 0, sub.ImageCount)
	for i := 0; i < sub.ImageCount; i++ {
		url, err := s.assets.PresignedURL(ctx, fmt.Sprintf("%s/%d.jpg", sub.AssetPrefix, i+1), expiry)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}
