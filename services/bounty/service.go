package bounty

import (
	"context"
	"time"

	"snapbounty-platform/pkg/db/option"
	"snapbounty-platform/pkg/db/pagination"
	"snapbounty-platform/pkg/errutil"
	"snapbounty-platform/pkg/repository"
	"snapbounty-platform/pkg/sequence"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	codes    sequence.Generator
	requests repository.Repository[BountyRequest]
}

type ServiceParams struct {
	fx.In
	DB    *gorm.DB
	Node  *snowflake.Node
	Codes sequence.Generator `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		codes:    p.Codes,
		requests: repository.ProvideStore[BountyRequest](p.DB),
	}
}

type CreateInput struct {
	Title              string     `json:"title" binding:"required"`
	Description        string     `json:"description"`
	PayType            PayType    `json:"pay_type" binding:"required"`
	PayAmountCents     int64      `json:"pay_amount_cents" binding:"required,gt=0"`
	SpeedBonusCents    int64      `json:"speed_bonus_cents"`
	SpeedBonusDeadline *time.Time `json:"speed_bonus_deadline"`
	QualityBonusCents  int64      `json:"quality_bonus_cents"`
	BudgetTotalCents   int64      `json:"budget_total_cents" binding:"required,gt=0"`
	QuantityNeeded     int        `json:"quantity_needed" binding:"required,gt=0"`
}

// Create stores a new request in draft. The request only becomes visible to
// contributors after a publish action.
func (s *Service) Create(ctx context.Context, input CreateInput, adminID string) (*BountyRequest, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	opts := []zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("admin_id", adminID),
	}

	if input.PayType != PayPerImage && input.PayType != PayFlat {
		return nil, errutil.ValidationFailed("pay_type must be per_image or flat", nil)
	}

	code := ""
	if s.codes != nil {
		generated, err := s.codes.NextRequestCode(ctx)
		if err != nil {
			zap.L().With(opts...).Warn("failed to generate request code, falling back to id", zap.Error(err))
		} else {
			code = generated
		}
	}

	request := &BountyRequest{
		ID:                 s.node.Generate().String(),
		Code:               code,
		Title:              input.Title,
		Slug:               slug.Make(input.Title),
		Description:        input.Description,
		Status:             StatusDraft,
		PayType:            input.PayType,
		PayAmountCents:     input.PayAmountCents,
		SpeedBonusCents:    input.SpeedBonusCents,
		SpeedBonusDeadline: input.SpeedBonusDeadline,
		QualityBonusCents:  input.QualityBonusCents,
		BudgetTotalCents:   input.BudgetTotalCents,
		QuantityNeeded:     input.QuantityNeeded,
		CreatedBy:          adminID,
	}
	if request.Code == "" {
		request.Code = request.ID
	}

	if err := s.requests.Create(ctx, request); err != nil {
		zap.L().With(opts...).Error("failed to create bounty request", zap.Error(err))
		return nil, err
	}

	return request, nil
}

func (s *Service) Get(ctx context.Context, requestID string) (*BountyRequest, error) {
	request, err := s.requests.FindOne(ctx, &BountyRequest{ID: requestID})
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, errutil.NotFound("bounty request not found", nil)
	}
	return request, nil
}

func (s *Service) List(ctx context.Context, status RequestStatus, limit int) ([]*BountyRequest, error) {
	query := &BountyRequest{}
	if status != "" {
		query.Status = status
	}

	return s.requests.Find(ctx, query,
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "created_at",
			OrderBy: "desc",
			Allow:   map[string]bool{"created_at": true},
		}),
		option.WithLimit(limit),
	)
}

// Page is the cursor-paged listing, newest first. One extra row is fetched to
// detect whether another page exists.
func (s *Service) Page(ctx context.Context, status RequestStatus, page pagination.Pagination) ([]*BountyRequest, *pagination.PageInfo, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 50
	}

	query := &BountyRequest{}
	if status != "" {
		query.Status = status
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

	requests, err := s.requests.Find(ctx, query, opts...)
	if err != nil {
		return nil, nil, err
	}

	return pagination.Trim(requests, limit, func(r *BountyRequest) pagination.Cursor {
		return pagination.Cursor{
			CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339Nano),
			ID:        r.ID,
		}
	})
}

// Apply performs a lifecycle action. The update's WHERE clause carries the
// action's allowed source statuses, so a transition that lost a race to
// another admin matches zero rows and fails instead of silently overwriting.
func (s *Service) Apply(ctx context.Context, requestID string, action Action, adminID string) (*BountyRequest, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	opts := []zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("request_id", requestID),
		zap.String("action", string(action)),
		zap.String("admin_id", adminID),
	}

	current, err := s.requests.FindOne(ctx, &BountyRequest{ID: requestID})
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, errutil.NotFound("bounty request not found", nil)
	}

	target, err := Validate(current.Status, action)
	if err != nil {
		return nil, err
	}

	sources, err := AllowedSources(action)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]any{
		"status":     target,
		"updated_at": now,
	}
	if action == ActionPublish {
		updates["published_at"] = now
		updates["reviewed_by"] = adminID
		updates["reviewed_at"] = now
	}

	affected, err := s.requests.CompareAndSwap(ctx, requestID, updates, option.Condition{
		Field:    "status",
		Operator: option.IN,
		Value:    statusStrings(sources),
	})
	if err != nil {
		zap.L().With(opts...).Error("failed to apply lifecycle action", zap.Error(err))
		return nil, err
	}
	if affected == 0 {
		// Someone else moved the request between our read and the update.
		return nil, errutil.InvalidTransition("request status changed, action no longer permitted")
	}

	zap.L().With(opts...).Info("lifecycle action applied", zap.String("to", string(target)))

	return s.Get(ctx, requestID)
}

func statusStrings(statuses []RequestStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
