package notify

import (
	"context"
	"encoding/json"
	"time"

	"snapbounty-platform/pkg/db/option"
	"snapbounty-platform/pkg/rediskey"
	"snapbounty-platform/pkg/repository"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// The cache holds one page per contributor: the default-sized first page,
// which is what the dashboard renders. Other limits bypass it.
const (
	feedCacheLimit = 50
	feedCacheTTL   = time.Minute
)

// Service reads the activity feed for the contributor dashboard.
type Service struct {
	events repository.Repository[ActivityEvent]
	cache  *redis.Client
}

type ServiceParams struct {
	fx.In
	DB    *gorm.DB
	Redis *redis.Client `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		events: repository.ProvideStore[ActivityEvent](p.DB),
		cache:  p.Redis,
	}
}

func (s *Service) Feed(ctx context.Context, contributorID string, limit int) ([]*ActivityEvent, error) {
	cacheable := s.cache != nil && limit == feedCacheLimit
	key := rediskey.BuildActivityFeedKey(contributorID)

	if cacheable {
		if cached, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var events []*ActivityEvent
			if err := json.Unmarshal(cached, &events); err == nil {
				return events, nil
			}
		}
	}

	events, err := s.events.Find(ctx, &ActivityEvent{ContributorID: contributorID},
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "created_at",
			OrderBy: "desc",
			Allow:   map[string]bool{"created_at": true},
		}),
		option.WithLimit(limit),
	)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if payload, err := json.Marshal(events); err == nil {
			if err := s.cache.Set(ctx, key, payload, feedCacheTTL).Err(); err != nil {
				zap.L().Warn("failed to cache activity feed", zap.String("contributor_id", contributorID), zap.Error(err))
			}
		}
	}

	return events, nil
}
