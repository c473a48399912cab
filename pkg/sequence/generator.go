package sequence

import (
	"context"
	"fmt"
	"time"

	"snapbounty-platform/pkg/rediskey"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var Module = fx.Module("sequence",
	fx.Provide(NewRedisGenerator),
)

// Generator issues human-readable codes for operator-facing records. Codes
// are unique per calendar day; the counter key expires after 48h.
type Generator interface {
	NextRequestCode(ctx context.Context) (string, error)
	NextPayoutBatchCode(ctx context.Context) (string, error)
}

type RedisGenerator struct {
	rdb *redis.Client
}

type Params struct {
	fx.In

	Redis *redis.Client
}

func NewRedisGenerator(p Params) Generator {
	return &RedisGenerator{rdb: p.Redis}
}

func (g *RedisGenerator) next(ctx context.Context, key string) (int64, error) {
	seq, err := g.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if seq == 1 {
		g.rdb.Expire(ctx, key, 48*time.Hour)
	}
	return seq, nil
}

// NextRequestCode returns "BR-{yyyymmdd}-{NNNN}".
func (g *RedisGenerator) NextRequestCode(ctx context.Context) (string, error) {
	datePart := time.Now().UTC().Format("20060102")
	seq, err := g.next(ctx, rediskey.BuildBountyCodeSeqKey(datePart))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("BR-%s-%04d", datePart, seq), nil
}

// NextPayoutBatchCode returns "PB-{yyyymmdd}-{NNNN}".
func (g *RedisGenerator) NextPayoutBatchCode(ctx context.Context) (string, error) {
	datePart := time.Now().UTC().Format("20060102")
	seq, err := g.next(ctx, rediskey.BuildPayoutBatchSeqKey(datePart))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("PB-%s-%04d", datePart, seq), nil
}
