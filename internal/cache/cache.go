package cache

import (
	"context"
	"time"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// Claim sets key only if it is absent and reports whether this call set it.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Claimed reports whether a claim on key is still held.
	Claimed(ctx context.Context, key string) (bool, error)
}

// ResultKey holds the cached InterviewResult of a session.
func ResultKey(sessionID string) string { return "interview:result:" + sessionID }

// EvaluationKey is held while a session's evaluation is queued or running.
func EvaluationKey(sessionID string) string { return "interview:evaluation:" + sessionID }
