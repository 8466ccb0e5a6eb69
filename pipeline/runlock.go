package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oljwatch/job-harvester/common"
	"github.com/oljwatch/job-harvester/common/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	runLockKey = "harvest:run:lock"
	lastRunKey = "harvest:run:last"

	// Lock TTL bounds how long a crashed run can block the next one.
	runLockTTL = 2 * time.Hour
)

// RunLock serializes harvest runs through Redis and keeps the stats of
// the most recent completed run.
type RunLock struct {
	redis *redis.RedisClient
}

// NewRunLock creates a RunLock backed by the given Redis client.
func NewRunLock(r *redis.RedisClient) *RunLock {
	return &RunLock{redis: r}
}

// Acquire takes the run lock, or returns ErrRunInProgress when another
// run holds it.
func (l *RunLock) Acquire(ctx context.Context, runID string) error {
	ok, err := l.redis.SetNX(ctx, runLockKey, runID, runLockTTL)
	if err != nil {
		return fmt.Errorf("acquiring run lock: %w", err)
	}
	if !ok {
		return common.ErrRunInProgress
	}
	return nil
}

// Release drops the run lock. Failures only shorten the window by the
// lock TTL, so they are logged and swallowed.
func (l *RunLock) Release(ctx context.Context) {
	if err := l.redis.Delete(ctx, runLockKey); err != nil {
		log.Warn().Err(err).Msg("Failed to release run lock")
	}
}

// StoreLastRun persists the stats of a completed run.
func (l *RunLock) StoreLastRun(ctx context.Context, stats *RunStats) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encoding run stats: %w", err)
	}
	return l.redis.Set(ctx, lastRunKey, payload, 0)
}

// LastRun returns the stats of the most recent completed run, or nil
// when no run has finished yet.
func (l *RunLock) LastRun(ctx context.Context) (*RunStats, error) {
	raw, err := l.redis.Get(ctx, lastRunKey)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading run stats: %w", err)
	}

	var stats RunStats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return nil, fmt.Errorf("decoding run stats: %w", err)
	}
	return &stats, nil
}
