package resilience

import (
	"math"
	"slices"
	"time"
)

// Option adjusts an ExecutorConfig.
type Option func(*ExecutorConfig)

// NewConfig returns the default executor settings with opts applied.
func NewConfig(opts ...Option) ExecutorConfig {
	cfg := DefaultExecutorConfig()
	cfg.Apply(opts...)
	return cfg
}

// Apply applies opts in order.
func (c *ExecutorConfig) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// WithTimeout bounds each service call, retries included.
func WithTimeout(d time.Duration) Option {
	return func(c *ExecutorConfig) {
		c.Timeout = d
	}
}

// WithRetry sets the attempts, initial delay and backoff multiplier.
func WithRetry(attempts int, delay time.Duration, multiplier float64) Option {
	return func(c *ExecutorConfig) {
		c.RetryMaxAttempts = attempts
		c.RetryInitialDelay = delay
		c.RetryBackoffMultiplier = multiplier
	}
}

// WithoutRetry makes every call a single attempt.
func WithoutRetry() Option {
	return func(c *ExecutorConfig) {
		c.RetryMaxAttempts = 1
	}
}

// WithCircuitBreaker opens the breaker after threshold consecutive
// failures, for timeout.
func WithCircuitBreaker(threshold int, timeout time.Duration) Option {
	return func(c *ExecutorConfig) {
		c.CircuitBreakerThreshold = threshold
		c.CircuitBreakerTimeout = timeout
	}
}

// WithoutCircuitBreaker keeps the breaker closed whatever the failures.
func WithoutCircuitBreaker() Option {
	return func(c *ExecutorConfig) {
		c.CircuitBreakerThreshold = math.MaxInt32
	}
}

// WithMaxConcurrent caps calls in flight per executor.
func WithMaxConcurrent(n int) Option {
	return func(c *ExecutorConfig) {
		c.MaxConcurrent = n
	}
}

// WithoutBulkhead lifts the concurrency cap to a level no session reaches.
func WithoutBulkhead() Option {
	return func(c *ExecutorConfig) {
		c.MaxConcurrent = unboundedConcurrency
	}
}

// WithNonRetryable adds errors that end retrying at once.
func WithNonRetryable(errs ...error) Option {
	return func(c *ExecutorConfig) {
		c.NonRetryable = append(slices.Clip(c.NonRetryable), errs...)
	}
}

const unboundedConcurrency = 1024
