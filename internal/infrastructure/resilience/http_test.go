package resilience

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyHTTPError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{name: "bad request", err: &HTTPStatusError{StatusCode: http.StatusBadRequest}, retryable: false, record: false},
		{name: "unauthorized", err: &HTTPStatusError{StatusCode: http.StatusUnauthorized}, retryable: false, record: false},
		{name: "too many requests", err: &HTTPStatusError{StatusCode: http.StatusTooManyRequests}, retryable: true, record: true},
		{name: "unavailable", err: &HTTPStatusError{StatusCode: http.StatusServiceUnavailable}, retryable: true, record: true},
		{name: "network", err: timeoutError{}, retryable: true, record: true},
		{name: "canceled", err: context.Canceled, retryable: false, record: false},
		{name: "other", err: errors.New("decode"), retryable: false, record: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			class := ClassifyHTTPError(tc.err)
			if class.Retryable != tc.retryable || class.RecordFailure != tc.record {
				t.Fatalf("unexpected classification %+v", class)
			}
		})
	}
}

func TestErrorKindsWrap(t *testing.T) {
	statusErr := SegmentationKinds.Wrap("ai21 segmentation", &HTTPStatusError{StatusCode: http.StatusBadRequest, Body: "bad"})
	if !domain.IsKind(statusErr, domain.ErrSegmentationService) || domain.StatusCode(statusErr) != http.StatusBadRequest {
		t.Fatalf("expected segmentation service error with status, got %v", statusErr)
	}

	netErr := ScoringKinds.Wrap("hf score", timeoutError{})
	if !domain.IsKind(netErr, domain.ErrScoringUnavailable) || domain.StatusCode(netErr) != 0 {
		t.Fatalf("expected scoring unavailable, got %v", netErr)
	}

	if GenerationKinds.Wrap("noop", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
	already := domain.WrapError(domain.ErrGenerationService, "x", errors.New("y"))
	if GenerationKinds.Wrap("z", already) != already {
		t.Fatalf("expected already-kinded error unchanged")
	}
}

func TestClassifyHTTPErrorCarriesRetryAfter(t *testing.T) {
	class := ClassifyHTTPError(&HTTPStatusError{StatusCode: http.StatusTooManyRequests, RetryAfter: 3 * time.Second})
	if class.RetryAfter != 3*time.Second {
		t.Fatalf("expected retry-after hint, got %v", class.RetryAfter)
	}
}

func TestDecodeErrorIsServiceFault(t *testing.T) {
	decodeErr := &DecodeError{Operation: "hf score", StatusCode: http.StatusOK, Err: errors.New("unexpected EOF")}

	class := ClassifyHTTPError(decodeErr)
	if class.Retryable || !class.RecordFailure {
		t.Fatalf("unexpected classification %+v", class)
	}
	wrapped := ScoringKinds.Wrap("hf score", decodeErr)
	if !domain.IsKind(wrapped, domain.ErrScoringService) || domain.StatusCode(wrapped) != http.StatusOK {
		t.Fatalf("expected scoring service error with status, got %v", wrapped)
	}
}
