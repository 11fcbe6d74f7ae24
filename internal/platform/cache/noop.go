package cache

import (
	"context"
	"time"
)

// NoopStatsCache always misses. It stands in when redis is not configured.
type NoopStatsCache struct{}

func (NoopStatsCache) GetCounts(context.Context, string) (map[string]int64, int64, bool, error) {
	return nil, 0, false, nil
}

func (NoopStatsCache) SetCounts(context.Context, string, int64, map[string]int64) error { return nil }

func (NoopStatsCache) Invalidate(context.Context, ...string) error { return nil }

// LocalLocker hands out locks that only exclude holders within this process.
type LocalLocker struct {
	held syncSet
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: newSyncSet()}
}

func (l *LocalLocker) Obtain(_ context.Context, key string, _ time.Duration) (Lock, error) {
	if !l.held.add(key) {
		return nil, ErrNotObtained
	}
	return localLock{set: l.held, key: key}, nil
}

type localLock struct {
	set syncSet
	key string
}

func (l localLock) Release(context.Context) error {
	l.set.remove(l.key)
	return nil
}
