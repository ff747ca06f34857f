// Package retry wraps a Fetcher with bounded, jittered retry behavior.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/leadscout/leadscout/internal/scout"
)

// Policy computes per-attempt delays. Delays are returned as values and slept
// in one place so tests can substitute the sleeper.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	JitterMax   time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPolicy builds a Policy with the given bounds, seeded from the wall
// clock.
func NewPolicy(maxAttempts int, baseDelay, jitterMax time.Duration) *Policy {
	return NewPolicyWithRand(maxAttempts, baseDelay, jitterMax,
		rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewPolicyWithRand is NewPolicy with an injectable random source.
func NewPolicyWithRand(maxAttempts int, baseDelay, jitterMax time.Duration, rng *rand.Rand) *Policy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	if jitterMax <= 0 {
		jitterMax = 2 * time.Second
	}
	return &Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		JitterMax:   jitterMax,
		rng:         rng,
	}
}

// Delay returns the wait before the given zero-based attempt. Attempt 0 gets
// a flat human-like pause (base..base+jitter) so bursts of candidate URLs do
// not hit a site back to back; later attempts back off exponentially with
// fresh jitter.
func (p *Policy) Delay(attempt int) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	jitter := time.Duration(p.rng.Int63n(int64(p.JitterMax) + 1))
	if attempt <= 0 {
		return p.BaseDelay + jitter
	}
	backoff := time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt)))
	return backoff + jitter
}

// Retryable reports whether the outcome warrants another attempt at the same
// URL. Anti-bot blocks (403/429) and transient transport failures are
// retried; any other HTTP error abandons the URL immediately.
func Retryable(o scout.FetchOutcome) bool {
	switch o.Kind {
	case scout.FetchTimeout, scout.FetchNetworkError:
		return true
	case scout.FetchHTTPError:
		return o.StatusCode == http.StatusForbidden || o.StatusCode == http.StatusTooManyRequests
	default:
		return false
	}
}

// Sleeper waits for d or until the context finishes.
type Sleeper func(ctx context.Context, d time.Duration) error

func ctxSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("sleep interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// Retrier drives a Fetcher through the policy.
type Retrier struct {
	policy  *Policy
	fetcher scout.Fetcher
	sleep   Sleeper
}

// NewRetrier builds a Retrier with the real sleeper.
func NewRetrier(policy *Policy, fetcher scout.Fetcher) *Retrier {
	return &Retrier{policy: policy, fetcher: fetcher, sleep: ctxSleep}
}

// WithSleeper replaces the sleeper, for tests.
func (r *Retrier) WithSleeper(s Sleeper) *Retrier {
	r.sleep = s
	return r
}

// Fetch attempts the request up to MaxAttempts times, sleeping the policy's
// delay before every attempt. It returns the first successful outcome, the
// first non-retryable failure, or the final failed outcome once attempts are
// exhausted. Context expiry during a sleep surfaces as a timeout outcome.
func (r *Retrier) Fetch(ctx context.Context, request scout.FetchRequest) scout.FetchOutcome {
	var last scout.FetchOutcome
	for attempt := 0; attempt < r.policy.MaxAttempts; attempt++ {
		if err := r.sleep(ctx, r.policy.Delay(attempt)); err != nil {
			return scout.FetchOutcome{Kind: scout.FetchTimeout, Err: err}
		}
		last = r.fetcher.Fetch(ctx, request)
		if last.OK() || !Retryable(last) {
			return last
		}
	}
	return last
}
