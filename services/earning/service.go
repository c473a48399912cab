package earning

import (
	"context"
	"fmt"
	"time"

	"snapbounty-platform/pkg/db/option"
	"snapbounty-platform/pkg/db/pagination"
	"snapbounty-platform/pkg/errutil"
	"snapbounty-platform/pkg/repository"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// workflow transitions: each action names the statuses it may start from.
var workflow = map[Status][]Status{
	StatusProcessing: {StatusPending},
	StatusPaid:       {StatusProcessing},
	StatusHeld:       {StatusPending, StatusProcessing},
	StatusPending:    {StatusHeld}, // release
}

type Service struct {
	db       *gorm.DB
	earnings repository.Repository[Earning]
}

type ServiceParams struct {
	fx.In
	DB *gorm.DB
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		earnings: repository.ProvideStore[Earning](p.DB),
	}
}

func (s *Service) Get(ctx context.Context, earningID string) (*Earning, error) {
	entry, err := s.earnings.FindOne(ctx, &Earning{ID: earningID})
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, errutil.NotFound("earning not found", nil)
	}
	return entry, nil
}

// Advance moves an earning to the target workflow status. The update is
// conditioned on the current status so two operators cannot both pay the
// same entry.
func (s *Service) Advance(ctx context.Context, earningID string, target Status) (*Earning, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	opts := []zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("earning_id", earningID),
		zap.String("target", string(target)),
	}

	sources, ok := workflow[target]
	if !ok {
		return nil, errutil.BadRequest(fmt.Sprintf("unknown payout status %q", target), nil)
	}

	updates := map[string]any{
		"status":     target,
		"updated_at": time.Now(),
	}
	if target == StatusPaid {
		updates["paid_at"] = time.Now()
	}

	affected, err := s.earnings.CompareAndSwap(ctx, earningID, updates, option.Condition{
		Field:    "status",
		Operator: option.IN,
		Value:    statusStrings(sources),
	})
	if err != nil {
		zap.L().With(opts...).Error("failed to advance earning", zap.Error(err))
		return nil, err
	}
	if affected == 0 {
		current, err := s.earnings.FindOne(ctx, &Earning{ID: earningID})
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, errutil.NotFound("earning not found", nil)
		}
		return nil, errutil.InvalidTransition(
			fmt.Sprintf("earning in status %q cannot move to %q", current.Status, target),
		)
	}

	zap.L().With(opts...).Info("earning advanced")

	return s.Get(ctx, earningID)
}

func (s *Service) ListByContributor(ctx context.Context, contributorID string, limit int) ([]*Earning, error) {
	return s.earnings.Find(ctx, &Earning{ContributorID: contributorID},
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "created_at",
			OrderBy: "desc",
			Allow:   map[string]bool{"created_at": true},
		}),
		option.WithLimit(limit),
	)
}

// PageByContributor is the cursor-paged variant backing the contributor
// dashboard. It over-fetches one row to detect whether another page exists.
func (s *Service) PageByContributor(ctx context.Context, contributorID string, page pagination.Pagination) ([]*Earning, *pagination.PageInfo, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 50
	}

	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "created_at",
			OrderBy: "desc",
			Allow:   map[string]bool{"created_at": true},
		}),
		option.WithLimit(limit + 1),
	}

	if page.Cursor != "" {
		cursor, err := pagination.DecodeCursor(page.Cursor)
		if err != nil {
			return nil, nil, errutil.BadRequest("invalid cursor", err)
		}
		before, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, nil, errutil.BadRequest("invalid cursor", err)
		}
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "created_at",
			Operator: option.LT,
			Value:    before,
		}))
	}

	entries, err := s.earnings.Find(ctx, &Earning{ContributorID: contributorID}, opts...)
	if err != nil {
		return nil, nil, err
	}

	return pagination.Trim(entries, limit, func(e *Earning) pagination.Cursor {
		return pagination.Cursor{
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339Nano),
			ID:        e.ID,
		}
	})
}

// Stats sums the ledger grouped by payout status. The totals equal the sum of
// every historically accepted submission because acceptance is the only path
// that creates an earning.
func (s *Service) Stats(ctx context.Context) ([]StatusTotal, error) {
	var rows []StatusTotal
	err := s.db.WithContext(ctx).
		Model(&Earning{}).
		Select("status, COALESCE(SUM(amount_cents), 0) AS total_cents, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Contributor builds the per-contributor breakdown. The per-status sums are
// independent queries, so they run concurrently.
func (s *Service) Contributor(ctx context.Context, contributorID string) (*ContributorSummary, error) {
	summary := &ContributorSummary{ContributorID: contributorID}

	sum := func(ctx context.Context, statuses []Status, dest *int64) error {
		return s.db.WithContext(ctx).
			Model(&Earning{}).
			Where("contributor_id = ? AND status IN ?", contributorID, statusStrings(statuses)).
			Select("COALESCE(SUM(amount_cents), 0)").
			Scan(dest).Error
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sum(gctx, []Status{StatusPending, StatusProcessing}, &summary.PendingCents) })
	g.Go(func() error { return sum(gctx, []Status{StatusPaid}, &summary.PaidCents) })
	g.Go(func() error { return sum(gctx, []Status{StatusHeld}, &summary.HeldCents) })

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary.LifetimeCents = summary.PendingCents + summary.PaidCents + summary.HeldCents
	return summary, nil
}

func statusStrings(statuses []Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
