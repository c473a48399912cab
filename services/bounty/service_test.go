package bounty

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"snapbounty-platform/pkg/errutil"
	"snapbounty-platform/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type seqStub struct {
	requestCode string
	err         error
}

func (s *seqStub) NextRequestCode(context.Context) (string, error) {
	return s.requestCode, s.err
}

func (s *seqStub) NextPayoutBatchCode(context.Context) (string, error) {
	return "", nil
}

func newBountyService(t *testing.T, codes *seqStub) (*Service, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t, &BountyRequest{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	params := ServiceParams{DB: db, Node: node}
	if codes != nil {
		params.Codes = codes
	}
	return NewService(params), db
}

func TestCreateRequest(t *testing.T) {
	svc, db := newBountyService(t, &seqStub{requestCode: "BR-20260301-0001"})

	deadline := time.Now().Add(24 * time.Hour)
	request, err := svc.Create(context.Background(), CreateInput{
		Title:              "Storefront photos, Lisbon",
		Description:        "Exterior and interior shots of partner stores",
		PayType:            PayPerImage,
		PayAmountCents:     250,
		SpeedBonusCents:    100,
		SpeedBonusDeadline: &deadline,
		BudgetTotalCents:   50000,
		QuantityNeeded:     40,
	}, "admin-1")
	require.NoError(t, err)
	require.Equal(t, StatusDraft, request.Status)
	require.Equal(t, "BR-20260301-0001", request.Code)
	require.Equal(t, "storefront-photos-lisbon", request.Slug)
	require.Equal(t, "admin-1", request.CreatedBy)
	require.NotEmpty(t, request.ID)

	var stored BountyRequest
	require.NoError(t, db.First(&stored, "id = ?", request.ID).Error)
	require.Equal(t, int64(50000), stored.BudgetTotalCents)
	require.Zero(t, stored.BudgetSpentCents)
	require.Zero(t, stored.LockVersion)
}

func TestCreateRequestInvalidPayType(t *testing.T) {
	svc, _ := newBountyService(t, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		Title:            "Anything",
		PayType:          PayType("hourly"),
		PayAmountCents:   100,
		BudgetTotalCents: 1000,
		QuantityNeeded:   1,
	}, "admin-1")
	require.Error(t, err)
	require.Equal(t, errutil.StatusValidationFailed, errutil.StatusOf(err))
}

func TestCreateRequestCodeFallsBackToID(t *testing.T) {
	svc, _ := newBountyService(t, nil)

	request, err := svc.Create(context.Background(), CreateInput{
		Title:            "No sequence wired",
		PayType:          PayFlat,
		PayAmountCents:   100,
		BudgetTotalCents: 1000,
		QuantityNeeded:   1,
	}, "admin-1")
	require.NoError(t, err)
	require.Equal(t, request.ID, request.Code)
}

func TestApplyPublish(t *testing.T) {
	svc, db := newBountyService(t, nil)

	require.NoError(t, db.Create(&BountyRequest{
		ID:               "req-1",
		Status:           StatusDraft,
		PayType:          PayFlat,
		PayAmountCents:   100,
		BudgetTotalCents: 1000,
		QuantityNeeded:   1,
	}).Error)

	request, err := svc.Apply(context.Background(), "req-1", ActionPublish, "admin-1")
	require.NoError(t, err)
	require.Equal(t, StatusPublished, request.Status)
	require.Equal(t, "admin-1", request.ReviewedBy)
	require.NotNil(t, request.PublishedAt)
	require.NotNil(t, request.ReviewedAt)
}

func TestApplyPublishTwice(t *testing.T) {
	svc, db := newBountyService(t, nil)

	require.NoError(t, db.Create(&BountyRequest{
		ID:      "req-1",
		Status:  StatusDraft,
		PayType: PayFlat,
	}).Error)

	_, err := svc.Apply(context.Background(), "req-1", ActionPublish, "admin-1")
	require.NoError(t, err)

	_, err = svc.Apply(context.Background(), "req-1", ActionPublish, "admin-2")
	require.Error(t, err)
	require.Equal(t, errutil.StatusInvalidTransition, errutil.StatusOf(err))
}

func TestApplyPauseAndUnpause(t *testing.T) {
	svc, db := newBountyService(t, nil)

	require.NoError(t, db.Create(&BountyRequest{
		ID:      "req-1",
		Status:  StatusPublished,
		PayType: PayFlat,
	}).Error)

	request, err := svc.Apply(context.Background(), "req-1", ActionPause, "admin-1")
	require.NoError(t, err)
	require.Equal(t, StatusPaused, request.Status)

	request, err = svc.Apply(context.Background(), "req-1", ActionUnpause, "admin-1")
	require.NoError(t, err)
	require.Equal(t, StatusPublished, request.Status)
}

func TestApplyCancelDraft(t *testing.T) {
	svc, db := newBountyService(t, nil)

	require.NoError(t, db.Create(&BountyRequest{
		ID:      "req-1",
		Status:  StatusDraft,
		PayType: PayFlat,
	}).Error)

	request, err := svc.Apply(context.Background(), "req-1", ActionCancel, "admin-1")
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, request.Status)
}

func TestApplyUnknownRequest(t *testing.T) {
	svc, _ := newBountyService(t, nil)

	_, err := svc.Apply(context.Background(), "missing", ActionPublish, "admin-1")
	require.Error(t, err)
	require.Equal(t, errutil.StatusNotFound, errutil.StatusOf(err))
}

func TestListFiltersByStatus(t *testing.T) {
	svc, db := newBountyService(t, nil)

	require.NoError(t, db.Create(&BountyRequest{ID: "req-1", Status: StatusDraft, PayType: PayFlat}).Error)
	require.NoError(t, db.Create(&BountyRequest{ID: "req-2", Status: StatusPublished, PayType: PayFlat}).Error)
	require.NoError(t, db.Create(&BountyRequest{ID: "req-3", Status: StatusPublished, PayType: PayFlat}).Error)

	published, err := svc.List(context.Background(), StatusPublished, 10)
	require.NoError(t, err)
	require.Len(t, published, 2)

	all, err := svc.List(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
}
