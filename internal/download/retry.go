// Package download retrieves located media through layered external
// tools, with a uniform retry policy around every call that leaves the
// process.
package download

import (
	"context"
	"time"
)

// Policy retries an operation with exponential backoff. The delay
// starts at InitialDelay and doubles after each failed attempt.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration

	// Sleep is swappable for tests. Nil means time.Sleep.
	Sleep func(time.Duration)

	// OnRetry, when set, is called before each retry wait.
	OnRetry func()
}

// DefaultPolicy mirrors the configured download retry settings.
func DefaultPolicy(maxAttempts int, initialDelay time.Duration) Policy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return Policy{MaxAttempts: maxAttempts, InitialDelay: initialDelay}
}

// Do invokes op until it succeeds or MaxAttempts is exhausted. The
// final attempt's error is returned unchanged so callers can inspect
// it. Cancellation is honored between attempts.
func (p Policy) Do(ctx context.Context, op func() error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	delay := p.InitialDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if p.OnRetry != nil {
			p.OnRetry()
		}
		sleep(delay)
		delay *= 2
	}
	return err
}
