package retry

import (
	"context"
	"errors"
	"fmt"
)

// Config holds in-line retry configuration.
type Config struct {
	MaxRetries int
	OnRetry    func(attempt int, err error)
}

// Option is a functional option for retry configuration.
type Option func(*Config)

// Do runs operation and repeats it right away while it fails, up to MaxRetries
// extra times. Errors wrapped with Fatal() end the loop at once. Context
// cancellation is checked before every retry.
func Do(ctx context.Context, operation func() error, opts ...Option) error {
	cfg := &Config{MaxRetries: 1}
	for _, opt := range opts {
		opt(cfg)
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		var fatal *FatalError
		if errors.As(err, &fatal) {
			return fatal.Err
		}
		if attempt == cfg.MaxRetries {
			break
		}

		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled after %d attempts: %w", attempt+1, err)
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err)
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxRetries+1, lastErr)
}

// WithMaxRetries sets the maximum number of retries.
func WithMaxRetries(n int) Option {
	return func(c *Config) {
		c.MaxRetries = n
	}
}

// WithOnRetry registers a hook called before every retry with the 1-based
// retry number and the error that triggered it.
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(c *Config) {
		c.OnRetry = fn
	}
}

// FatalError wraps an error to mark it as fatal (non-retryable).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal marks an error as fatal (non-retryable).
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}
