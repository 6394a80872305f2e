// Package retrypolicy wraps operations against external collaborators with
// bounded, jittered exponential backoff.
//
// Whether a failure is worth retrying is decided by an explicit classifier
// supplied at construction, never by inspecting error text: validation
// errors and guardrail blocks are terminal and must surface immediately,
// while network and 5xx-class failures are retried up to MaxAttempts.
package retrypolicy

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/avast/retry-go/v5"

	"roomop/pkg/logging"
)

// Config bounds the retry behavior.
type Config struct {
	// MaxAttempts is the total number of tries, including the first.
	// Must be at least 1.
	MaxAttempts int `yaml:"maxAttempts"`

	// InitialDelay is the base delay before the second attempt.
	InitialDelay time.Duration `yaml:"initialDelay"`

	// MaxDelay caps every computed delay. The effective delay is always
	// within [0, MaxDelay].
	MaxDelay time.Duration `yaml:"maxDelay"`

	// JitterFactor perturbs each delay by a uniformly random multiplier in
	// [1-JitterFactor, 1+JitterFactor]. Must be in [0, 1).
	JitterFactor float64 `yaml:"jitterFactor"`
}

// DefaultConfig returns the stock retry settings.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		JitterFactor: 0.2,
	}
}

func (c Config) sanitized() Config {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.JitterFactor < 0 || c.JitterFactor >= 1 {
		c.JitterFactor = 0
	}
	if c.InitialDelay < 0 {
		c.InitialDelay = 0
	}
	if c.MaxDelay < c.InitialDelay {
		c.MaxDelay = c.InitialDelay
	}
	return c
}

// Policy executes operations under the configured retry behavior.
type Policy struct {
	cfg       Config
	retryable func(error) bool
}

// New creates a retry policy. retryable classifies errors as transient
// (retry) or terminal (surface immediately); a nil classifier retries every
// failure.
func New(cfg Config, retryable func(error) bool) *Policy {
	return &Policy{cfg: cfg.sanitized(), retryable: retryable}
}

// Execute runs op, retrying transient failures up to MaxAttempts with the
// configured backoff. Terminal failures are returned unchanged after the
// first occurrence; exhaustion returns the last failure annotated with the
// attempt count.
func (p *Policy) Execute(ctx context.Context, name string, op func() error) error {
	attempts := 0
	var lastErr error

	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(uint(p.cfg.MaxAttempts)),
		retry.RetryIf(func(err error) bool {
			return p.retryable == nil || p.retryable(err)
		}),
		retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
			// n counts completed failed attempts, so the delay computed
			// here precedes attempt n+2.
			d := p.BackoffDelay(int(n) + 2)
			logging.Debug("RetryPolicy", "%s: attempt %d failed, retrying in %v: %v", name, n+1, d, err)
			return d
		}),
	)

	err := r.Do(func() error {
		attempts++
		lastErr = op()
		return lastErr
	})
	if err == nil {
		return nil
	}

	if p.retryable != nil && !p.retryable(lastErr) {
		return lastErr
	}
	if attempts >= p.cfg.MaxAttempts {
		return fmt.Errorf("%s: giving up after %d attempts: %w", name, attempts, lastErr)
	}
	// Context cancellation aborted the retry loop early.
	return lastErr
}

// BackoffDelay computes the jittered delay before the given attempt
// (attempt >= 2): min(MaxDelay, InitialDelay * 2^(attempt-2)), perturbed by
// the jitter multiplier and clamped to [0, MaxDelay].
func (p *Policy) BackoffDelay(attempt int) time.Duration {
	base := p.BaseDelay(attempt)
	if p.cfg.JitterFactor == 0 {
		return base
	}

	multiplier := 1 - p.cfg.JitterFactor + 2*p.cfg.JitterFactor*rand.Float64()
	d := time.Duration(float64(base) * multiplier)
	if d < 0 {
		d = 0
	}
	if d > p.cfg.MaxDelay {
		d = p.cfg.MaxDelay
	}
	return d
}

// BaseDelay computes the unjittered exponential delay before the given
// attempt (attempt >= 2).
func (p *Policy) BaseDelay(attempt int) time.Duration {
	if attempt < 2 {
		return 0
	}
	shift := attempt - 2
	// Past this point the doubling has certainly exceeded any sane cap.
	if shift > 32 {
		return p.cfg.MaxDelay
	}
	base := p.cfg.InitialDelay << uint(shift)
	if base > p.cfg.MaxDelay || base < 0 {
		base = p.cfg.MaxDelay
	}
	return base
}
