package usecase

import "github.com/kirillkom/handout-assistant/internal/core/domain"

// IndexSegments assigns ids 1..N in input order.
func IndexSegments(texts []string) []domain.Segment {
	out := make([]domain.Segment, 0, len(texts))
	for idx, text := range texts {
		out = append(out, domain.Segment{ID: idx + 1, Text: text})
	}
	return out
}

func cloneSegments(in []domain.Segment) []domain.Segment {
	if in == nil {
		return nil
	}
	out := make([]domain.Segment, len(in))
	copy(out, in)
	return out
}
