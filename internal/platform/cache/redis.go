package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

const statsKeyPrefix = "stats:reports:"

// StatsCache keeps grouped report counts between writes. Every field has a
// generation that Invalidate advances; counts are stored under the generation
// observed before they were computed, so a fill racing an invalidation is
// never read back.
type StatsCache interface {
	// GetCounts returns the cached counts and the current generation. The
	// generation is meaningful on a miss too and must be handed to SetCounts.
	GetCounts(ctx context.Context, field string) (counts map[string]int64, gen int64, hit bool, err error)
	SetCounts(ctx context.Context, field string, gen int64, counts map[string]int64) error
	Invalidate(ctx context.Context, fields ...string) error
}

// ErrNotObtained is returned when another holder owns the lock.
var ErrNotObtained = errors.New("lock not obtained")

type Lock interface {
	Release(ctx context.Context) error
}

type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// NewRedisClient connects to redis and checks the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

func statsKey(field string, gen int64) string {
	return statsKeyPrefix + field + ":" + strconv.FormatInt(gen, 10)
}

func generationKey(field string) string {
	return statsKeyPrefix + field + ":gen"
}

type redisStatsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStatsCache(rdb *redis.Client, ttl time.Duration) StatsCache {
	return &redisStatsCache{rdb: rdb, ttl: ttl}
}

func (c *redisStatsCache) GetCounts(ctx context.Context, field string) (map[string]int64, int64, bool, error) {
	gen, err := c.rdb.Get(ctx, generationKey(field)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, err
	}

	val, err := c.rdb.Get(ctx, statsKey(field, gen)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, err
	}
	counts := map[string]int64{}
	if err := json.Unmarshal([]byte(val), &counts); err != nil {
		return nil, gen, false, err
	}
	return counts, gen, true, nil
}

func (c *redisStatsCache) SetCounts(ctx context.Context, field string, gen int64, counts map[string]int64) error {
	body, err := json.Marshal(counts)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, statsKey(field, gen), body, c.ttl).Err()
}

func (c *redisStatsCache) Invalidate(ctx context.Context, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, f := range fields {
			pipe.Incr(ctx, generationKey(f))
		}
		return nil
	})
	return err
}

type redisLocker struct {
	client *redislock.Client
}

func NewRedisLocker(rdb *redis.Client) Locker {
	return &redisLocker{client: redislock.New(rdb)}
}

func (l *redisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}
	return lock, nil
}
