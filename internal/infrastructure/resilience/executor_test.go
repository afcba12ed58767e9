package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func TestExecuteRetriesTemporaryFailure(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemp
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{
			Retryable:     errors.Is(err, errTemp),
			RecordFailure: true,
		}
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})

	attempts := 0
	errPermanent := errors.New("permanent")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errPermanent
	}, func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     1 * time.Millisecond,
		RetryMaxBackoff:         1 * time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	})

	errTemp := errors.New("temporary")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: true,
		}
	}

	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return errTemp
		}, classifier)
		if !errors.Is(err, errTemp) {
			t.Fatalf("expected temporary error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, classifier)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open state error, got %v", err)
	}
}

func TestExecuteHonorsRetryAfterHint(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryAfterMax:       40 * time.Millisecond,
		BreakerEnabled:      false,
	})

	attempts := 0
	start := time.Now()
	err := exec.Execute(context.Background(), "hf score", func(context.Context) error {
		attempts++
		if attempts == 1 {
			return &HTTPStatusError{StatusCode: 429, Status: "429 Too Many Requests", RetryAfter: 30 * time.Millisecond}
		}
		return nil
	}, ClassifyHTTPError)
	if err != nil {
		t.Fatalf("expected success after hinted retry, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("expected to wait for Retry-After, waited %v", elapsed)
	}
}

func TestNextWaitCapsServerHint(t *testing.T) {
	exec := NewExecutor(Config{
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     time.Second,
		RetryAfterMax:       5 * time.Second,
	})
	cases := []struct {
		backoff, hint, want time.Duration
	}{
		{backoff: 100 * time.Millisecond, hint: 0, want: 100 * time.Millisecond},
		{backoff: 4 * time.Second, hint: 0, want: time.Second},
		{backoff: 100 * time.Millisecond, hint: 2 * time.Second, want: 2 * time.Second},
		{backoff: 100 * time.Millisecond, hint: time.Minute, want: 5 * time.Second},
	}
	for _, tc := range cases {
		if got := exec.nextWait(tc.backoff, tc.hint); got != tc.want {
			t.Fatalf("nextWait(%v, %v) = %v, want %v", tc.backoff, tc.hint, got, tc.want)
		}
	}
}

func TestExecuteReturnsContextErrorBeforeFirstAttempt(t *testing.T) {
	exec := NewExecutor(Config{BreakerEnabled: false})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := exec.Execute(ctx, "ai21 segmentation", func(context.Context) error {
		called = true
		return nil
	}, ClassifyHTTPError)
	if !errors.Is(err, context.Canceled) || called {
		t.Fatalf("expected canceled without calling, got %v called=%v", err, called)
	}
}

func TestBreakerStatesListsOperations(t *testing.T) {
	exec := NewExecutor(Config{BreakerEnabled: true})
	for _, op := range []string{"openai completion", "ai21 segmentation"} {
		_ = exec.Execute(context.Background(), op, func(context.Context) error { return nil }, nil)
	}

	states := exec.BreakerStates()
	if len(states) != 2 || states[0].Operation != "ai21 segmentation" || states[1].Operation != "openai completion" {
		t.Fatalf("unexpected states %+v", states)
	}
	if states[0].State != gobreaker.StateClosed.String() {
		t.Fatalf("expected closed breaker, got %s", states[0].State)
	}
}
