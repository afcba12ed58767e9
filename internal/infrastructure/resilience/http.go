package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
)

// HTTPStatusError is a non-2xx response of a remote model service.
type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
	// RetryAfter is the parsed Retry-After header, zero when absent.
	RetryAfter time.Duration
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "http status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("%s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("%s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

// DecodeError is a success response whose body could not be decoded.
type DecodeError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response (status %d): %v", e.Operation, e.StatusCode, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ClassifyHTTPError retries network failures and 408/429/5xx responses.
// Other statuses fail fast and do not count against the breaker.
func ClassifyHTTPError(err error) ErrorClassification {
	if err == nil {
		return ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}
	if IsCircuitOpen(err) {
		return ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if IsRetryableHTTPStatus(statusErr.StatusCode) {
			return ErrorClassification{
				Retryable:     true,
				RecordFailure: true,
				RetryAfter:    statusErr.RetryAfter,
			}
		}
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: true,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	return ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}

func IsRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// ErrorKinds names the domain kinds one remote service reports with.
type ErrorKinds struct {
	Service     error
	Unavailable error
}

var (
	SegmentationKinds = ErrorKinds{Service: domain.ErrSegmentationService, Unavailable: domain.ErrSegmentationUnavailable}
	ScoringKinds      = ErrorKinds{Service: domain.ErrScoringService, Unavailable: domain.ErrScoringUnavailable}
	GenerationKinds   = ErrorKinds{Service: domain.ErrGenerationService, Unavailable: domain.ErrGenerationUnavailable}
)

// Wrap converts the final error of a remote call into a domain error. A
// status response or an undecodable success body becomes a
// *domain.ServiceError; network failures, timeouts and an open circuit
// become the Unavailable kind.
func (k ErrorKinds) Wrap(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, k.Service) || domain.IsKind(err, k.Unavailable) {
		return err
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return &domain.ServiceError{
			Kind:       k.Service,
			Operation:  operation,
			StatusCode: statusErr.StatusCode,
			Body:       statusErr.Body,
		}
	}
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return &domain.ServiceError{
			Kind:       k.Service,
			Operation:  operation,
			StatusCode: decodeErr.StatusCode,
			Body:       decodeErr.Err.Error(),
		}
	}
	return domain.WrapError(k.Unavailable, operation, err)
}
