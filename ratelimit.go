package polyglot

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket shared by everything that submits jobs.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	burst      float64
	perSecond  float64
	lastRefill time.Time
	now        func() time.Time
}

// RateLimitConfig configures a RateLimiter.
type RateLimitConfig struct {
	RequestsPerMinute int // submissions allowed per minute
	BurstSize         int // default: RequestsPerMinute
}

// NewRateLimiter creates a limiter with a full bucket.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rpm := float64(cfg.RequestsPerMinute)
	if rpm <= 0 {
		rpm = 60
	}
	burst := float64(cfg.BurstSize)
	if burst <= 0 {
		burst = rpm
	}

	return &RateLimiter{
		tokens:     burst,
		burst:      burst,
		perSecond:  rpm / 60,
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// Allow takes a token if one is available.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()
	if r.tokens < 1 {
		return false
	}
	r.tokens--
	return true
}

// Wait blocks until a token is taken or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for !r.Allow() {
		r.mu.Lock()
		delay := time.Duration((1 - r.tokens) / r.perSecond * float64(time.Second))
		r.mu.Unlock()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// Available reports the tokens currently in the bucket.
func (r *RateLimiter) Available() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refill()
	return r.tokens
}

// must be called with mu held
func (r *RateLimiter) refill() {
	now := r.now()
	r.tokens += now.Sub(r.lastRefill).Seconds() * r.perSecond
	r.lastRefill = now
	if r.tokens > r.burst {
		r.tokens = r.burst
	}
}

// RateLimitedBackend throttles session starts and job submissions. Result
// polling is not throttled; it already runs at a fixed cadence.
type RateLimitedBackend struct {
	Backend
	limiter *RateLimiter
}

// NewRateLimitedBackend wraps backend with a fresh limiter.
func NewRateLimitedBackend(backend Backend, cfg RateLimitConfig) *RateLimitedBackend {
	return &RateLimitedBackend{
		Backend: backend,
		limiter: NewRateLimiter(cfg),
	}
}

// StartSession implements Backend.
func (b *RateLimitedBackend) StartSession(ctx context.Context) (*SessionResponse, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return b.Backend.StartSession(ctx)
}

// Submit implements Backend.
func (b *RateLimitedBackend) Submit(ctx context.Context, req JobRequest) (*SubmitResponse, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return b.Backend.Submit(ctx, req)
}

// Limiter returns the underlying limiter.
func (b *RateLimitedBackend) Limiter() *RateLimiter {
	return b.limiter
}

// Verify RateLimitedBackend implements Backend
var _ Backend = (*RateLimitedBackend)(nil)
