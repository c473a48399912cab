package earning

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"snapbounty-platform/pkg/db/pagination"
	"snapbounty-platform/pkg/errutil"
	"snapbounty-platform/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newEarningService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t, &Earning{})
	return NewService(ServiceParams{DB: db}), db
}

func seedEarning(t *testing.T, db *gorm.DB, entry *Earning) *Earning {
	t.Helper()
	if entry.ID == "" {
		entry.ID = "earn-1"
	}
	if entry.Status == "" {
		entry.Status = StatusPending
	}
	if entry.ContributorID == "" {
		entry.ContributorID = "contrib-1"
	}
	require.NoError(t, db.Create(entry).Error)
	return entry
}

func TestAdvancePendingToProcessing(t *testing.T) {
	svc, db := newEarningService(t)
	seedEarning(t, db, &Earning{SubmissionID: "sub-1", AmountCents: 500})

	entry, err := svc.Advance(context.Background(), "earn-1", StatusProcessing)
	require.NoError(t, err)
	require.Equal(t, StatusProcessing, entry.Status)
	require.Nil(t, entry.PaidAt)
}

func TestAdvanceProcessingToPaidStampsPaidAt(t *testing.T) {
	svc, db := newEarningService(t)
	seedEarning(t, db, &Earning{SubmissionID: "sub-1", Status: StatusProcessing})

	entry, err := svc.Advance(context.Background(), "earn-1", StatusPaid)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, entry.Status)
	require.NotNil(t, entry.PaidAt)
}

func TestAdvancePendingDirectlyToPaid(t *testing.T) {
	svc, db := newEarningService(t)
	seedEarning(t, db, &Earning{SubmissionID: "sub-1"})

	_, err := svc.Advance(context.Background(), "earn-1", StatusPaid)
	require.Error(t, err)
	require.Equal(t, errutil.StatusInvalidTransition, errutil.StatusOf(err))

	// Unchanged on a rejected transition.
	var stored Earning
	require.NoError(t, db.First(&stored, "id = ?", "earn-1").Error)
	require.Equal(t, StatusPending, stored.Status)
}

func TestAdvanceHoldAndRelease(t *testing.T) {
	svc, db := newEarningService(t)
	seedEarning(t, db, &Earning{SubmissionID: "sub-1"})

	entry, err := svc.Advance(context.Background(), "earn-1", StatusHeld)
	require.NoError(t, err)
	require.Equal(t, StatusHeld, entry.Status)

	entry, err = svc.Advance(context.Background(), "earn-1", StatusPending)
	require.NoError(t, err)
	require.Equal(t, StatusPending, entry.Status)
}

func TestAdvancePaidIsFinal(t *testing.T) {
	svc, db := newEarningService(t)
	seedEarning(t, db, &Earning{SubmissionID: "sub-1", Status: StatusPaid})

	_, err := svc.Advance(context.Background(), "earn-1", StatusHeld)
	require.Error(t, err)
	require.Equal(t, errutil.StatusInvalidTransition, errutil.StatusOf(err))
}

func TestAdvanceUnknownEarning(t *testing.T) {
	svc, _ := newEarningService(t)

	_, err := svc.Advance(context.Background(), "missing", StatusProcessing)
	require.Error(t, err)
	require.Equal(t, errutil.StatusNotFound, errutil.StatusOf(err))
}

func TestStatsGroupsByStatus(t *testing.T) {
	svc, db := newEarningService(t)
	seedEarning(t, db, &Earning{ID: "earn-1", SubmissionID: "sub-1", AmountCents: 100})
	seedEarning(t, db, &Earning{ID: "earn-2", SubmissionID: "sub-2", AmountCents: 200})
	seedEarning(t, db, &Earning{ID: "earn-3", SubmissionID: "sub-3", AmountCents: 700, Status: StatusPaid})

	rows, err := svc.Stats(context.Background())
	require.NoError(t, err)

	totals := map[Status]StatusTotal{}
	for _, row := range rows {
		totals[row.Status] = row
	}
	require.Equal(t, int64(300), totals[StatusPending].TotalCents)
	require.Equal(t, int64(2), totals[StatusPending].Count)
	require.Equal(t, int64(700), totals[StatusPaid].TotalCents)
	require.Equal(t, int64(1), totals[StatusPaid].Count)
}

func TestPageByContributor(t *testing.T) {
	svc, db := newEarningService(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		seedEarning(t, db, &Earning{
			ID:           fmt.Sprintf("earn-%d", i),
			SubmissionID: fmt.Sprintf("sub-%d", i),
			AmountCents:  int64(100 * (i + 1)),
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		})
	}

	first, info, err := svc.PageByContributor(context.Background(), "contrib-1", pagination.Pagination{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.True(t, info.HasMore)
	require.NotEmpty(t, info.NextCursor)
	require.Equal(t, "earn-4", first[0].ID)
	require.Equal(t, "earn-3", first[1].ID)

	second, info, err := svc.PageByContributor(context.Background(), "contrib-1", pagination.Pagination{Limit: 2, Cursor: info.NextCursor})
	require.NoError(t, err)
	require.Len(t, second, 2)
	require.True(t, info.HasMore)
	require.Equal(t, "earn-2", second[0].ID)
	require.Equal(t, "earn-1", second[1].ID)

	last, info, err := svc.PageByContributor(context.Background(), "contrib-1", pagination.Pagination{Limit: 2, Cursor: info.NextCursor})
	require.NoError(t, err)
	require.Len(t, last, 1)
	require.False(t, info.HasMore)
	require.Empty(t, info.NextCursor)
}

func TestPageByContributorBadCursor(t *testing.T) {
	svc, _ := newEarningService(t)

	_, _, err := svc.PageByContributor(context.Background(), "contrib-1", pagination.Pagination{Cursor: "not-base64!"})
	require.Error(t, err)
	require.Equal(t, errutil.StatusBadRequest, errutil.StatusOf(err))
}

func TestContributorSummary(t *testing.T) {
	svc, db := newEarningService(t)
	seedEarning(t, db, &Earning{ID: "earn-1", SubmissionID: "sub-1", AmountCents: 100})
	seedEarning(t, db, &Earning{ID: "earn-2", SubmissionID: "sub-2", AmountCents: 200, Status: StatusProcessing})
	seedEarning(t, db, &Earning{ID: "earn-3", SubmissionID: "sub-3", AmountCents: 700, Status: StatusPaid})
	seedEarning(t, db, &Earning{ID: "earn-4", SubmissionID: "sub-4", AmountCents: 50, Status: StatusHeld})
	seedEarning(t, db, &Earning{ID: "earn-5", SubmissionID: "sub-5", AmountCents: 999, ContributorID: "someone-else"})

	summary, err := svc.Contributor(context.Background(), "contrib-1")
	require.NoError(t, err)
	require.Equal(t, int64(300), summary.PendingCents)
	require.Equal(t, int64(700), summary.PaidCents)
	require.Equal(t, int64(50), summary.HeldCents)
	require.Equal(t, int64(1050), summary.LifetimeCents)
}
