package queue

import (
	"fmt"
	"time"
)

// Config holds the queue settings.
type Config struct {
	// Disabled selects the degraded no-op queue.
	Disabled bool

	// RateLimitMax is the number of submissions admitted per RateLimitWindow.
	// Zero disables admission limiting. Submissions over the limit are
	// delayed, never rejected.
	RateLimitMax    int
	RateLimitWindow time.Duration

	// RetryAttempts is the total number of deliveries a job gets.
	RetryAttempts int

	// BackoffBase is the delay before the first retry; it doubles per retry.
	BackoffBase time.Duration

	// PollInterval bounds how long Dequeue sleeps before rechecking for due jobs.
	PollInterval time.Duration
}

// DefaultConfig returns the default queue settings.
func DefaultConfig() Config {
	return Config{
		RateLimitMax:    100,
		RateLimitWindow: time.Minute,
		RetryAttempts:   3,
		BackoffBase:     time.Second,
		PollInterval:    500 * time.Millisecond,
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.RateLimitMax < 0 {
		return fmt.Errorf("%w: rate limit max must not be negative", ErrInvalidConfig)
	}
	if c.RateLimitMax > 0 && c.RateLimitWindow <= 0 {
		return fmt.Errorf("%w: rate limit window must be positive", ErrInvalidConfig)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("%w: retry attempts must be at least 1", ErrInvalidConfig)
	}
	if c.BackoffBase < 0 {
		return fmt.Errorf("%w: backoff base must not be negative", ErrInvalidConfig)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalidConfig)
	}
	return nil
}
