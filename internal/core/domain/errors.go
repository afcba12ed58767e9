package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrHandoutNotFound = errors.New("handout not found")
	ErrInvalidInput    = errors.New("invalid input")

	ErrDocumentRead  = errors.New("document read failed")
	ErrDocumentWrite = errors.New("document write failed")

	ErrSegmentationService     = errors.New("segmentation service error")
	ErrSegmentationUnavailable = errors.New("segmentation service unavailable")
	ErrScoringService          = errors.New("scoring service error")
	ErrScoringUnavailable      = errors.New("scoring service unavailable")
	ErrGenerationService       = errors.New("generation service error")
	ErrGenerationUnavailable   = errors.New("generation service unavailable")

	ErrQueueUnavailable = errors.New("job queue unavailable")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// ServiceError is a non-success response from a remote service.
// It unwraps to its Kind so callers can match with IsKind.
type ServiceError struct {
	Kind       error
	Operation  string
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	if e == nil {
		return "service error"
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s: %v: status %d", e.Operation, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v: status %d: %s", e.Operation, e.Kind, e.StatusCode, body)
}

func (e *ServiceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Kind
}

// StatusCode returns the upstream status carried by err, or 0.
func StatusCode(err error) int {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.StatusCode
	}
	return 0
}

// IsInfrastructureFailure reports whether err comes from a local I/O or remote
// service failure rather than from caller input.
func IsInfrastructureFailure(err error) bool {
	for _, kind := range []error{
		ErrDocumentRead,
		ErrDocumentWrite,
		ErrSegmentationService,
		ErrSegmentationUnavailable,
		ErrScoringService,
		ErrScoringUnavailable,
		ErrGenerationService,
		ErrGenerationUnavailable,
		ErrQueueUnavailable,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
