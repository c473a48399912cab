package submission

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"snapbounty-platform/pkg/db/option"
	"snapbounty-platform/pkg/errutil"
	"snapbounty-platform/pkg/repository"
	"snapbounty-platform/services/bounty"
	"snapbounty-platform/services/earning"
	"snapbounty-platform/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type repoMock[T any] struct {
	withTrxFn        func(tx *gorm.DB) repository.Repository[T]
	findFn           func(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	findOneFn        func(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	createFn         func(ctx context.Context, resource *T) error
	updateFn         func(ctx context.Context, resourceID string, resource any) error
	compareAndSwapFn func(ctx context.Context, resourceID string, updates any, conds ...option.Condition) (int64, error)
	deleteFn         func(ctx context.Context, resourceID string) error
	batchCreateFn    func(ctx context.Context, resources []*T) error
	batchUpdateFn    func(ctx context.Context, resources []*T) error
	countFn          func(ctx context.Context, query *T) (int64, error)
}

func (m *repoMock[T]) WithTrx(tx *gorm.DB) repository.Repository[T] {
	if m.withTrxFn != nil {
		return m.withTrxFn(tx)
	}
	return m
}

func (m *repoMock[T]) Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error) {
	if m.findFn != nil {
		return m.findFn(ctx, query, opts...)
	}
	return nil, nil
}

func (m *repoMock[T]) FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error) {
	if m.findOneFn != nil {
		return m.findOneFn(ctx, query, opts...)
	}
	return nil, nil
}

func (m *repoMock[T]) Create(ctx context.Context, resource *T) error {
	if m.createFn != nil {
		return m.createFn(ctx, resource)
	}
	return nil
}

func (m *repoMock[T]) Update(ctx context.Context, resourceID string, resource any) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, resourceID, resource)
	}
	return nil
}

func (m *repoMock[T]) CompareAndSwap(ctx context.Context, resourceID string, updates any, conds ...option.Condition) (int64, error) {
	if m.compareAndSwapFn != nil {
		return m.compareAndSwapFn(ctx, resourceID, updates, conds...)
	}
	return 1, nil
}

func (m *repoMock[T]) Delete(ctx context.Context, resourceID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, resourceID)
	}
	return nil
}

func (m *repoMock[T]) BatchCreate(ctx context.Context, resources []*T) error {
	if m.batchCreateFn != nil {
		return m.batchCreateFn(ctx, resources)
	}
	return nil
}

func (m *repoMock[T]) BatchUpdate(ctx context.Context, resources []*T) error {
	if m.batchUpdateFn != nil {
		return m.batchUpdateFn(ctx, resources)
	}
	return nil
}

func (m *repoMock[T]) Count(ctx context.Context, query *T) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, query)
	}
	return 0, nil
}

type recordedEvent struct {
	ContributorID string
	EventKind     string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingNotifier) Notify(_ context.Context, contributorID, eventKind, _ string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{ContributorID: contributorID, EventKind: eventKind})
}

func newReviewService(t *testing.T) (*Service, *gorm.DB, *recordingNotifier) {
	t.Helper()

	db := testutil.NewTestDB(t, &bounty.BountyRequest{}, &BountySubmission{}, &earning.Earning{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	svc := NewService(ServiceParams{DB: db, Node: node, Notifier: notifier})
	return svc, db, notifier
}

func seedRequest(t *testing.T, db *gorm.DB, request *bounty.BountyRequest) *bounty.BountyRequest {
	t.Helper()
	if request.ID == "" {
		request.ID = "req-1"
	}
	if request.Status == "" {
		request.Status = bounty.StatusPublished
	}
	require.NoError(t, db.Create(request).Error)
	return request
}

func seedSubmission(t *testing.T, db *gorm.DB, sub *BountySubmission) *BountySubmission {
	t.Helper()
	if sub.ID == "" {
		sub.ID = "sub-1"
	}
	if sub.Status == "" {
		sub.Status = StatusSubmitted
	}
	if sub.ContributorID == "" {
		sub.ContributorID = "contrib-1"
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now()
	}
	require.NoError(t, db.Create(sub).Error)
	return sub
}

func TestReviewAcceptPerImage(t *testing.T) {
	svc, db, notifier := newReviewService(t)

	request := seedRequest(t, db, &bounty.BountyRequest{
		PayType:          bounty.PayPerImage,
		PayAmountCents:   200,
		BudgetTotalCents: 10000,
		QuantityNeeded:   10,
	})
	seedSubmission(t, db, &BountySubmission{RequestID: request.ID, ImageCount: 3})

	result, err := svc.Review(context.Background(), ReviewInput{
		SubmissionID: "sub-1",
		Action:       ActionAccept,
		AdminID:      "admin-1",
	})
	require.NoError(t, err)
	require.Equal(t, StatusAccepted, result.Submission.Status)
	require.Equal(t, int64(600), result.Submission.EarnedAmountCents)
	require.Equal(t, int64(0), result.Submission.BonusAmountCents)
	require.Equal(t, result.Earning.ID, result.Submission.EarningID)
	require.Equal(t, "admin-1", result.Submission.ReviewedBy)
	require.NotNil(t, result.Submission.ReviewedAt)

	require.Equal(t, earning.StatusPending, result.Earning.Status)
	require.Equal(t, int64(600), result.Earning.AmountCents)
	require.Equal(t, "contrib-1", result.Earning.ContributorID)

	var updated bounty.BountyRequest
	require.NoError(t, db.First(&updated, "id = ?", request.ID).Error)
	require.Equal(t, int64(600), updated.BudgetSpentCents)
	require.Equal(t, 1, updated.QuantityFulfilled)
	require.Equal(t, int64(1), updated.LockVersion)
	require.Equal(t, bounty.StatusPublished, updated.Status)

	require.Len(t, notifier.events, 1)
	require.Equal(t, "submission_accepted", notifier.events[0].EventKind)
	require.Equal(t, "contrib-1", notifier.events[0].ContributorID)
}

func TestReviewAcceptWithBonuses(t *testing.T) {
	svc, db, _ := newReviewService(t)

	deadline := time.Now().Add(time.Hour)
	request := seedRequest(t, db, &bounty.BountyRequest{
		PayType:            bounty.PayFlat,
		PayAmountCents:     1000,
		SpeedBonusCents:    300,
		SpeedBonusDeadline: &deadline,
		QualityBonusCents:  500,
		BudgetTotalCents:   10000,
		QuantityNeeded:     5,
	})
	seedSubmission(t, db, &BountySubmission{RequestID: request.ID, SubmittedAt: time.Now()})

	result, err := svc.Review(context.Background(), ReviewInput{
		SubmissionID:      "sub-1",
		Action:            ActionAccept,
		AdminID:           "admin-1",
		AwardQualityBonus: true,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1000), result.Submission.EarnedAmountCents)
	require.Equal(t, int64(800), result.Submission.BonusAmountCents)
	require.Equal(t, int64(1800), result.Earning.AmountCents)
}

func TestReviewAcceptFulfillsRequest(t *testing.T) {
	svc, db, _ := newReviewService(t)

	request := seedRequest(t, db, &bounty.BountyRequest{
		PayType:           bounty.PayFlat,
		PayAmountCents:    1000,
		BudgetTotalCents:  10000,
		QuantityNeeded:    2,
		QuantityFulfilled: 1,
		BudgetSpentCents:  1000,
		LockVersion:       1,
	})
	seedSubmission(t, db, &BountySubmission{RequestID: request.ID})

	_, err := svc.Review(context.Background(), ReviewInput{
		SubmissionID: "sub-1",
		Action:       ActionAccept,
		AdminID:      "admin-1",
	})
	require.NoError(t, err)

	var updated bounty.BountyRequest
	require.NoError(t, db.First(&updated, "id = ?", request.ID).Error)
	require.Equal(t, bounty.StatusFulfilled, updated.Status)
	require.Equal(t, 2, updated.QuantityFulfilled)
	require.Equal(t, int64(2), updated.LockVersion)
}

func TestReviewAcceptBudgetExceeded(t *testing.T) {
	svc, db, notifier := newReviewService(t)

	request := seedRequest(t, db, &bounty.BountyRequest{
		PayType:          bounty.PayFlat,
		PayAmountCents:   1000,
		BudgetTotalCents: 1500,
		BudgetSpentCents: 1000,
		QuantityNeeded:   5,
	})
	seedSubmission(t, db, &BountySubmission{RequestID: request.ID})

	_, err := svc.Review(context.Background(), ReviewInput{
		SubmissionID: "sub-1",
		Action:       ActionAccept,
		AdminID:      "admin-1",
	})
	require.Error(t, err)
	require.Equal(t, errutil.StatusBudgetExceeded, errutil.StatusOf(err))

	// The provisional earning must be compensated away.
	var earnings int64
	require.NoError(t, db.Model(&earning.Earning{}).Count(&earnings).Error)
	require.Zero(t, earnings)

	// The submission stays reviewable, the request untouched.
	var sub BountySubmission
	require.NoError(t, db.First(&sub, "id = ?", "sub-1").Error)
	require.Equal(t, StatusSubmitted, sub.Status)

	var updated bounty.BountyRequest
	require.NoError(t, db.First(&updated, "id = ?", request.ID).Error)
	require.Equal(t, int64(1000), updated.BudgetSpentCents)
	require.Empty(t, notifier.events)
}

func TestReviewAcceptConcurrentModification(t *testing.T) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	deleted := []string{}
	svc := &Service{
		node: node,
		submissions: &repoMock[BountySubmission]{
			findOneFn: func(ctx context.Context, _ *BountySubmission, _ ...option.QueryOption) (*BountySubmission, error) {
				return &BountySubmission{ID: "sub-1", RequestID: "req-1", ContributorID: "contrib-1", Status: StatusSubmitted}, nil
			},
		},
		requests: &repoMock[bounty.BountyRequest]{
			findOneFn: func(ctx context.Context, _ *bounty.BountyRequest, _ ...option.QueryOption) (*bounty.BountyRequest, error) {
				return &bounty.BountyRequest{
					ID:               "req-1",
					Status:           bounty.StatusPublished,
					PayType:          bounty.PayFlat,
					PayAmountCents:   1000,
					BudgetTotalCents: 10000,
					QuantityNeeded:   5,
				}, nil
			},
			compareAndSwapFn: func(ctx context.Context, _ string, _ any, _ ...option.Condition) (int64, error) {
				// Another reviewer advanced the counters first.
				return 0, nil
			},
		},
		earnings: &repoMock[earning.Earning]{
			deleteFn: func(ctx context.Context, resourceID string) error {
				deleted = append(deleted, resourceID)
				return nil
			},
		},
	}

	_, err = svc.Review(context.Background(), ReviewInput{
		SubmissionID: "sub-1",
		Action:       ActionAccept,
		AdminID:      "admin-1",
	})
	require.Error(t, err)
	require.Equal(t, errutil.StatusConcurrentModification, errutil.StatusOf(err))
	require.Len(t, deleted, 1)
}

func TestReviewReject(t *testing.T) {
	svc, db, notifier := newReviewService(t)

	request := seedRequest(t, db, &bounty.BountyRequest{
		PayType:          bounty.PayFlat,
		PayAmountCents:   1000,
		BudgetTotalCents: 10000,
		QuantityNeeded:   5,
	})
	seedSubmission(t, db, &BountySubmission{RequestID: request.ID, Status: StatusInReview})

	result, err := svc.Review(context.Background(), ReviewInput{
		SubmissionID: "sub-1",
		Action:       ActionReject,
		Feedback:     "out of focus",
		AdminID:      "admin-1",
	})
	require.NoError(t, err)
	require.Equal(t, StatusRejected, result.Submission.Status)
	require.Equal(t, "out of focus", result.Submission.ReviewFeedback)
	require.Nil(t, result.Earning)

	// No financial side effects.
	var earnings int64
	require.NoError(t, db.Model(&earning.Earning{}).Count(&earnings).Error)
	require.Zero(t, earnings)

	var updated bounty.BountyRequest
	require.NoError(t, db.First(&updated, "id = ?", request.ID).Error)
	require.Zero(t, updated.BudgetSpentCents)
	require.Zero(t, updated.QuantityFulfilled)

	require.Len(t, notifier.events, 1)
	require.Equal(t, "submission_rejected", notifier.events[0].EventKind)
}

func TestReviewRevisionRequested(t *testing.T) {
	svc, db, notifier := newReviewService(t)

	request := seedRequest(t, db, &bounty.BountyRequest{
		PayType:          bounty.PayFlat,
		PayAmountCents:   1000,
		BudgetTotalCents: 10000,
		QuantityNeeded:   5,
	})
	seedSubmission(t, db, &BountySubmission{RequestID: request.ID})

	result, err := svc.Review(context.Background(), ReviewInput{
		SubmissionID: "sub-1",
		Action:       ActionRevisionRequested,
		Feedback:     "please reshoot item 3",
		AdminID:      "admin-1",
	})
	require.NoError(t, err)
	require.Equal(t, StatusRevisionRequested, result.Submission.Status)
	require.Len(t, notifier.events, 1)
	require.Equal(t, "revision_requested", notifier.events[0].EventKind)
}

func TestReviewUnknownSubmission(t *testing.T) {
	svc, _, _ := newReviewService(t)

	_, err := svc.Review(context.Background(), ReviewInput{
		SubmissionID: "missing",
		Action:       ActionAccept,
		AdminID:      "admin-1",
	})
	require.Error(t, err)
	require.Equal(t, errutil.StatusNotFound, errutil.StatusOf(err))
}

func TestReviewAlreadyDecided(t *testing.T) {
	svc, db, _ := newReviewService(t)

	request := seedRequest(t, db, &bounty.BountyRequest{
		PayType:          bounty.PayFlat,
		PayAmountCents:   1000,
		BudgetTotalCents: 10000,
		QuantityNeeded:   5,
	})
	seedSubmission(t, db, &BountySubmission{RequestID: request.ID, Status: StatusAccepted})

	_, err := svc.Review(context.Background(), ReviewInput{
		SubmissionID: "sub-1",
		Action:       ActionReject,
		AdminID:      "admin-1",
	})
	require.Error(t, err)
	require.Equal(t, errutil.StatusNotReviewable, errutil.StatusOf(err))
}

func TestReviewRequestNotReviewable(t *testing.T) {
	svc, db, _ := newReviewService(t)

	request := seedRequest(t, db, &bounty.BountyRequest{
		Status:           bounty.StatusCancelled,
		PayType:          bounty.PayFlat,
		PayAmountCents:   1000,
		BudgetTotalCents: 10000,
		QuantityNeeded:   5,
	})
	seedSubmission(t, db, &BountySubmission{RequestID: request.ID})

	_, err := svc.Review(context.Background(), ReviewInput{
		SubmissionID: "sub-1",
		Action:       ActionAccept,
		AdminID:      "admin-1",
	})
	require.Error(t, err)
	require.Equal(t, errutil.StatusNotReviewable, errutil.StatusOf(err))
}

func TestReviewAcceptPerImageWithoutImages(t *testing.T) {
	svc, db, _ := newReviewService(t)

	request := seedRequest(t, db, &bounty.BountyRequest{
		PayType:          bounty.PayPerImage,
		PayAmountCents:   200,
		BudgetTotalCents: 10000,
		QuantityNeeded:   5,
	})
	seedSubmission(t, db, &BountySubmission{RequestID: request.ID, ImageCount: 0})

	_, err := svc.Review(context.Background(), ReviewInput{
		SubmissionID: "sub-1",
		Action:       ActionAccept,
		AdminID:      "admin-1",
	})
	require.Error(t, err)
	require.Equal(t, errutil.StatusUnprocessableEntity, errutil.StatusOf(err))
}

func TestReviewSecondAcceptLosesRace(t *testing.T) {
	svc, db, _ := newReviewService(t)

	request := seedRequest(t, db, &bounty.BountyRequest{
		PayType:          bounty.PayFlat,
		PayAmountCents:   1000,
		BudgetTotalCents: 10000,
		QuantityNeeded:   5,
	})
	seedSubmission(t, db, &BountySubmission{RequestID: request.ID})

	_, err := svc.Review(context.Background(), ReviewInput{
		SubmissionID: "sub-1",
		Action:       ActionAccept,
		AdminID:      "admin-1",
	})
	require.NoError(t, err)

	_, err = svc.Review(context.Background(), ReviewInput{
		SubmissionID: "sub-1",
		Action:       ActionAccept,
		AdminID:      "admin-2",
	})
	require.Error(t, err)
	require.Equal(t, errutil.StatusNotReviewable, errutil.StatusOf(err))

	// Exactly one earning exists after both attempts.
	var earnings int64
	require.NoError(t, db.Model(&earning.Earning{}).Count(&earnings).Error)
	require.Equal(t, int64(1), earnings)
}
