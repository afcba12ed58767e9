package httpadapter

import (
	"net/http"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrHandoutNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrDocumentRead):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrSegmentationService),
		domain.IsKind(err, domain.ErrScoringService),
		domain.IsKind(err, domain.ErrGenerationService):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrSegmentationUnavailable),
		domain.IsKind(err, domain.ErrScoringUnavailable),
		domain.IsKind(err, domain.ErrGenerationUnavailable),
		domain.IsKind(err, domain.ErrQueueUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
