package ports

import (
	"context"
	"io"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
)

// TextExtractor converts a PDF on disk into plain text, pages in file order.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Segmenter splits extracted text into ordered segment texts via a remote service.
type Segmenter interface {
	Segment(ctx context.Context, text string) ([]string, error)
}

// RelevanceScorer returns the confidence in [0,1] that context answers question.
type RelevanceScorer interface {
	Score(ctx context.Context, question, context string) (float64, error)
}

// AnswerGenerator sends a rendered prompt to a completion service and parses
// the answer and optional citation.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt string) (domain.GeneratedAnswer, error)
}

// SegmentCache holds indexed segment sets keyed by document path.
type SegmentCache interface {
	Get(key string) ([]domain.Segment, bool)
	Put(key string, segments []domain.Segment)
}

// PhraseLocator finds exact-text bounding boxes of every phrase on every page
// of a PDF. Phrases without matches contribute nothing.
type PhraseLocator interface {
	Locate(ctx context.Context, path string, phrases []string) ([]domain.PageHighlight, error)
}

// HighlightWriter writes highlight annotations into a copy of a PDF.
type HighlightWriter interface {
	WriteHighlights(ctx context.Context, inPath, outPath string, highlights []domain.PageHighlight) error
}

// HandoutRepository persists uploaded handout metadata.
type HandoutRepository interface {
	Create(ctx context.Context, handout *domain.Handout) error
	GetByID(ctx context.Context, id string) (*domain.Handout, error)
}

// QuestionJournal records asked questions and their outcome.
type QuestionJournal interface {
	Append(ctx context.Context, record *domain.QuestionRecord) error
	ListByHandout(ctx context.Context, handoutID string, limit int) ([]domain.QuestionRecord, error)
}

// ObjectStorage stores handout PDFs and highlighted outputs.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Path(key string) string
	Exists(ctx context.Context, key string) (bool, error)
}

// HighlightQueue publishes/consumes highlight jobs.
type HighlightQueue interface {
	PublishHighlightJob(ctx context.Context, job domain.HighlightJob) error
	SubscribeHighlightJobs(ctx context.Context, handler func(context.Context, domain.HighlightJob) error) error
}
