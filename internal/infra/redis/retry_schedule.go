package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RetrySchedule mirrors the durable next_retry_at column into a Redis
// sorted set so due-retry polling does not hit the database on every tick.
// The database stays the source of truth; entries here are a fast index.
type RetrySchedule struct {
	rdb    *redis.Client
	userID string
	source string
}

// NewRetrySchedule creates a schedule scoped to one user and source.
func NewRetrySchedule(client *Client, userID, source string) *RetrySchedule {
	return &RetrySchedule{rdb: client.rdb, userID: userID, source: source}
}

func (s *RetrySchedule) key() string {
	return fmt.Sprintf("retry_schedule:%s:%s", s.source, s.userID)
}

// Schedule records that path becomes retryable at the given time.
func (s *RetrySchedule) Schedule(ctx context.Context, path string, at time.Time) error {
	err := s.rdb.ZAdd(ctx, s.key(), redis.Z{
		Score:  float64(at.Unix()),
		Member: path,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to schedule retry: %w", err)
	}
	return nil
}

// Remove drops a path from the schedule (resolved or excluded).
func (s *RetrySchedule) Remove(ctx context.Context, path string) error {
	if err := s.rdb.ZRem(ctx, s.key(), path).Err(); err != nil {
		return fmt.Errorf("failed to remove from schedule: %w", err)
	}
	return nil
}

// Due returns paths whose scheduled retry time is at or before now.
func (s *RetrySchedule) Due(ctx context.Context, now time.Time) ([]string, error) {
	paths, err := s.rdb.ZRangeByScore(ctx, s.key(), &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.Unix()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query due retries: %w", err)
	}
	return paths, nil
}

// Size returns the number of scheduled paths.
func (s *RetrySchedule) Size(ctx context.Context) (int64, error) {
	n, err := s.rdb.ZCard(ctx, s.key()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count schedule: %w", err)
	}
	return n, nil
}
