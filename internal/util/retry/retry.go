package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-logr/logr"
)

// ErrExhausted is returned when every attempt failed with a retryable error.
var ErrExhausted = errors.New("retries exhausted")

// Config holds retry configuration.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// Log receives one V(1) line per failed attempt that will be retried.
	Log logr.Logger
}

// Option is a functional option for retry configuration.
type Option func(*Config)

func newConfig(opts []Option) Config {
	cfg := Config{
		MaxRetries:   5,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Log:          logr.Discard(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Delay returns the wait before retry n (zero based): InitialDelay grown by
// Multiplier per retry and capped at MaxDelay.
func (c Config) Delay(n int) time.Duration {
	d := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(n))
	if d > float64(c.MaxDelay) {
		return c.MaxDelay
	}
	return time.Duration(d)
}

// Do calls op until it succeeds. It stops early on a Fatal error or when ctx
// is done, and gives up with ErrExhausted after MaxRetries retries.
func Do(ctx context.Context, op func(ctx context.Context) error, opts ...Option) error {
	cfg := newConfig(opts)

	for n := 0; ; n++ {
		err := op(ctx)
		switch {
		case err == nil:
			return nil
		case IsFatal(err):
			return fmt.Errorf("not retried: %w", err)
		case n == cfg.MaxRetries:
			return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, n+1, err)
		}

		wait := cfg.Delay(n)
		cfg.Log.V(1).Info("retrying", "attempt", n+1, "delay", wait, "error", err.Error())
		if err := sleep(ctx, wait); err != nil {
			return fmt.Errorf("gave up after %d attempts: %w", n+1, err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WithMaxRetries sets the maximum number of retries after the first attempt.
func WithMaxRetries(n int) Option {
	return func(c *Config) { c.MaxRetries = max(n, 0) }
}

// WithInitialDelay sets the wait before the first retry.
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) { c.InitialDelay = d }
}

// WithMaxDelay caps the wait between retries.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) { c.MaxDelay = d }
}

// WithMultiplier sets the backoff growth factor.
func WithMultiplier(m float64) Option {
	return func(c *Config) { c.Multiplier = m }
}

// WithLogger logs retried attempts.
func WithLogger(log logr.Logger) Option {
	return func(c *Config) { c.Log = log }
}

// FatalError marks an error as non-retryable.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return e.Err.Error() }

func (e *FatalError) Unwrap() error { return e.Err }

// Fatal marks err as non-retryable. Fatal(nil) is nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal reports whether err carries a FatalError.
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}
