package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

var errPermanent = errors.New("permanent")

func fastConfig() ExecutorConfig {
	cfg := DefaultExecutorConfig()
	cfg.RetryInitialDelay = time.Millisecond
	cfg.Timeout = 5 * time.Second
	cfg.NonRetryable = append(cfg.NonRetryable, errPermanent)
	return cfg
}

func TestDefaultExecutorConfig(t *testing.T) {
	t.Parallel()

	config := DefaultExecutorConfig()
	if config.MaxConcurrent != 8 {
		t.Errorf("MaxConcurrent = %d, want 8", config.MaxConcurrent)
	}
	if config.CircuitBreakerThreshold != 5 {
		t.Errorf("CircuitBreakerThreshold = %d, want 5", config.CircuitBreakerThreshold)
	}
	if config.RetryMaxAttempts != 3 {
		t.Errorf("RetryMaxAttempts = %d, want 3", config.RetryMaxAttempts)
	}
	if config.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", config.Timeout)
	}
}

func TestExecutor_Success(t *testing.T) {
	t.Parallel()

	executor := NewExecutor[string](fastConfig())
	got, err := executor.Execute(context.Background(), true, func(context.Context) (string, error) {
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Errorf("Execute() = %q, %v; want ok", got, err)
	}
}

func TestExecutor_RetriesIdempotentCalls(t *testing.T) {
	t.Parallel()

	executor := NewExecutor[int](fastConfig())
	var calls atomic.Int32

	got, err := executor.Execute(context.Background(), true, func(context.Context) (int, error) {
		n := calls.Add(1)
		if n < 3 {
			return 0, errors.New("transient")
		}
		return int(n), nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got != 3 || calls.Load() != 3 {
		t.Errorf("Execute() = %d after %d calls, want 3", got, calls.Load())
	}
}

func TestExecutor_DoesNotRetryNonIdempotentCalls(t *testing.T) {
	t.Parallel()

	executor := NewExecutor[int](fastConfig())
	var calls atomic.Int32

	_, err := executor.Execute(context.Background(), false, func(context.Context) (int, error) {
		calls.Add(1)
		return 0, errors.New("transient")
	})
	if err == nil {
		t.Fatal("Execute() should return error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestExecutor_StopsOnNonRetryable(t *testing.T) {
	t.Parallel()

	executor := NewExecutor[int](fastConfig())
	var calls atomic.Int32

	_, err := executor.Execute(context.Background(), true, func(context.Context) (int, error) {
		calls.Add(1)
		return 0, errPermanent
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("Execute() error = %v, want errPermanent", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestExecutor_Timeout(t *testing.T) {
	t.Parallel()

	executor := NewExecutorWithOptions[int](WithTimeout(50*time.Millisecond), WithoutRetry())

	_, err := executor.Execute(context.Background(), true, func(ctx context.Context) (int, error) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(5 * time.Second):
			return 1, nil
		}
	})
	if err == nil {
		t.Error("Execute() should return error when the timeout elapses")
	}
}

func TestExecutor_CircuitOpensAfterThreshold(t *testing.T) {
	t.Parallel()

	executor := NewExecutorWithOptions[int](
		WithoutRetry(),
		WithCircuitBreaker(2, time.Minute),
	)
	if executor.CircuitBreakerState().String() != "closed" {
		t.Errorf("initial state = %v, want closed", executor.CircuitBreakerState())
	}

	var calls atomic.Int32
	failing := func(context.Context) (int, error) {
		calls.Add(1)
		return 0, errors.New("down")
	}

	for range 2 {
		_, _ = executor.Execute(context.Background(), false, failing)
	}
	before := calls.Load()

	if _, err := executor.Execute(context.Background(), false, failing); err == nil {
		t.Error("Execute() should fail while the circuit is open")
	}
	if calls.Load() != before {
		t.Errorf("open circuit still invoked the call (%d -> %d)", before, calls.Load())
	}
}

func TestExecutor_NegativeConfig(t *testing.T) {
	t.Parallel()

	executor := NewExecutor[int](ExecutorConfig{
		MaxConcurrent:           -1,
		CircuitBreakerThreshold: -1,
		CircuitBreakerTimeout:   30 * time.Second,
		RetryMaxAttempts:        0,
		Timeout:                 time.Second,
	})

	if _, err := executor.Execute(context.Background(), true, func(context.Context) (int, error) {
		return 1, nil
	}); err != nil {
		t.Errorf("Execute() with negative config error = %v", err)
	}
}
