// ABOUTME: Backoff policy value: retry count, growth factor and delay bounds
// ABOUTME: Computes the capped exponential delay for each retry attempt

package retry

import (
	"errors"
	"math"
	"time"

	"github.com/2389/popcode-gateway/internal/config"
)

// Policy configures retries. It is a value; callers copy it freely.
type Policy struct {
	Retries  int
	Factor   float64
	MinDelay time.Duration
	MaxDelay time.Duration
}

// DefaultPolicy is 5 retries, factor 2, 1s..10s.
func DefaultPolicy() Policy {
	return Policy{
		Retries:  5,
		Factor:   2,
		MinDelay: time.Second,
		MaxDelay: 10 * time.Second,
	}
}

// PolicyFromConfig builds a policy from the retry config section.
func PolicyFromConfig(cfg config.RetryConfig) Policy {
	return Policy{
		Retries:  cfg.Retries,
		Factor:   cfg.Factor,
		MinDelay: cfg.MinDelay,
		MaxDelay: cfg.MaxDelay,
	}
}

// WithRetries returns a copy of p with a different retry count.
func (p Policy) WithRetries(n int) Policy {
	p.Retries = n
	return p
}

// Validate reports an invalid policy.
func (p Policy) Validate() error {
	switch {
	case p.Retries < 0:
		return errors.New("retry: retries must not be negative")
	case p.Factor <= 1:
		return errors.New("retry: factor must be greater than 1")
	case p.MinDelay < 0:
		return errors.New("retry: min delay must not be negative")
	case p.MaxDelay < p.MinDelay:
		return errors.New("retry: max delay must not be less than min delay")
	}
	return nil
}

// Delay returns the wait before retry attempt (0 for the first retry).
func (p Policy) Delay(attempt int) time.Duration {
	d := float64(p.MinDelay) * math.Pow(p.Factor, float64(attempt))
	if d > float64(p.MaxDelay) || math.IsInf(d, 1) {
		return p.MaxDelay
	}
	return time.Duration(d)
}
