// Package ratelimit provides the per-key token bucket guarding the redirect
// path. Buckets refill lazily on access, so an idle deployment carries no
// timers.
package ratelimit

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-shortlink/core"
)

type ThrottledError struct {
	Key        string
	RetryAfter time.Duration
}

func (e ThrottledError) Error() string {
	return fmt.Sprintf("ratelimit: key %q throttled for %s", strings.TrimSpace(e.Key), e.RetryAfter)
}

func (e ThrottledError) ToServiceError() *goerrors.Error {
	metadata := map[string]any{
		"key": strings.TrimSpace(e.Key),
	}
	if e.RetryAfter > 0 {
		metadata["retry_after_ms"] = e.RetryAfter.Milliseconds()
	}
	return goerrors.New(e.Error(), goerrors.CategoryRateLimit).
		WithCode(http.StatusTooManyRequests).
		WithTextCode(core.ServiceErrorRateLimited).
		WithMetadata(metadata)
}

type bucket struct {
	tokens   float64
	lastFill time.Time
}

// KeyedLimiter admits up to Burst requests instantly per key and sustains
// Rate requests per second after that. Keys are typically "tenant|client-ip".
type KeyedLimiter struct {
	Rate  float64
	Burst float64
	Now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

func NewKeyedLimiter(rate, burst float64) *KeyedLimiter {
	if rate <= 0 {
		rate = 1
	}
	if burst <= 0 {
		burst = rate
	}
	return &KeyedLimiter{
		Rate:    rate,
		Burst:   burst,
		Now:     func() time.Time { return time.Now().UTC() },
		buckets: map[string]*bucket{},
	}
}

// Allow consumes one token for key. It returns nil when the request may
// proceed and a ThrottledError carrying a retry hint otherwise.
func (l *KeyedLimiter) Allow(key string) error {
	if l == nil {
		return nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.Burst, lastFill: now}
		l.buckets[key] = b
	}

	elapsed := now.Sub(b.lastFill).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * l.Rate
		if b.tokens > l.Burst {
			b.tokens = l.Burst
		}
		b.lastFill = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return nil
	}

	deficit := 1 - b.tokens
	retryAfter := time.Duration(deficit / l.Rate * float64(time.Second))
	return ThrottledError{Key: key, RetryAfter: retryAfter}
}

// Prune drops buckets idle longer than maxIdle. Callers run it periodically
// to keep memory bounded under rotating client populations.
func (l *KeyedLimiter) Prune(maxIdle time.Duration) int {
	if l == nil || maxIdle <= 0 {
		return 0
	}
	cutoff := l.now().Add(-maxIdle)

	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, b := range l.buckets {
		if b.lastFill.Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

func (l *KeyedLimiter) now() time.Time {
	if l != nil && l.Now != nil {
		return l.Now().UTC()
	}
	return time.Now().UTC()
}
