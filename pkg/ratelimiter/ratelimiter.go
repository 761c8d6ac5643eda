package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimitError carries how long the caller must wait before retrying.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func (e *RateLimitError) Unwrap() error {
	return apperror.ErrRateLimitExceeded
}

// Limiter is a per-user cool-down lock backed by redis SETNX. A nil client or
// a zero window disables it.
type Limiter struct {
	rdb    *redis.Client
	window time.Duration
}

func New(rdb *redis.Client, window time.Duration) *Limiter {
	return &Limiter{rdb: rdb, window: window}
}

func key(userID uuid.UUID, action string) string {
	return fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), action)
}

// Acquire takes the lock for (userID, action). It returns a *RateLimitError
// while a previous lock is still alive.
func (l *Limiter) Acquire(ctx context.Context, userID uuid.UUID, action string) error {
	if l == nil || l.rdb == nil || l.window <= 0 {
		return nil
	}

	wasSet, err := l.rdb.SetNX(ctx, key(userID, action), "locked", l.window).Result()
	if err != nil {
		return fmt.Errorf("failed to check rate limit in redis: %w", err)
	}
	if wasSet {
		return nil
	}

	ttl, err := l.rdb.TTL(ctx, key(userID, action)).Result()
	if err != nil || ttl < 0 {
		ttl = l.window
	}
	return &RateLimitError{
		Message:    fmt.Sprintf("too many requests, retry in %.0fs", ttl.Seconds()),
		RetryAfter: ttl,
	}
}

// Release drops the lock, used when the guarded action failed.
func (l *Limiter) Release(ctx context.Context, userID uuid.UUID, action string) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Del(ctx, key(userID, action)).Err()
}
