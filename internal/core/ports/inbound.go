package ports

import (
	"context"
	"io"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
)

// QuestionAnswerer is the inbound contract for one question against one PDF on disk.
type QuestionAnswerer interface {
	AnswerQuestion(ctx context.Context, documentPath, question string) (*domain.AnswerResult, error)
}

// Highlighter is the inbound contract for highlighting phrases in a PDF on disk.
type Highlighter interface {
	Highlight(ctx context.Context, inPath, outPath, text string) (int, error)
}

// HandoutService is the inbound contract for the stored-handout API surface.
type HandoutService interface {
	Upload(ctx context.Context, filename string, body io.Reader) (*domain.Handout, error)
	Get(ctx context.Context, id string) (*domain.Handout, error)
	Ask(ctx context.Context, handoutID, question string) (*domain.AnswerResult, error)
	History(ctx context.Context, handoutID string, limit int) ([]domain.QuestionRecord, error)
	RequestHighlight(ctx context.Context, handoutID, text string) (*domain.HighlightJob, error)
	OpenHighlighted(ctx context.Context, handoutID string) (io.ReadCloser, error)
}

// HighlightProcessor is the inbound contract for the highlight worker.
type HighlightProcessor interface {
	ProcessHighlightJob(ctx context.Context, job domain.HighlightJob) error
}
