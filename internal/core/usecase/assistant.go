package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
	"github.com/kirillkom/handout-assistant/internal/core/ports"
	"github.com/kirillkom/handout-assistant/internal/core/prompt"
)

// StageTimeouts bounds each blocking stage of one question. Zero disables the bound.
type StageTimeouts struct {
	Extract  time.Duration
	Segment  time.Duration
	Rank     time.Duration
	Generate time.Duration
}

type HandoutAssistant struct {
	extractor ports.TextExtractor
	segmenter ports.Segmenter
	ranker    *Ranker
	generator ports.AnswerGenerator
	timeouts  StageTimeouts

	cache ports.SegmentCache
	loads singleflight.Group
}

func NewHandoutAssistant(
	extractor ports.TextExtractor,
	segmenter ports.Segmenter,
	ranker *Ranker,
	generator ports.AnswerGenerator,
	timeouts StageTimeouts,
) *HandoutAssistant {
	return &HandoutAssistant{
		extractor: extractor,
		segmenter: segmenter,
		ranker:    ranker,
		generator: generator,
		timeouts:  timeouts,
	}
}

// WithSegmentCache enables a read-through cache of indexed segments keyed by
// document path. Ranking is never cached.
func (a *HandoutAssistant) WithSegmentCache(cache ports.SegmentCache) *HandoutAssistant {
	a.cache = cache
	return a
}

func (a *HandoutAssistant) AnswerQuestion(ctx context.Context, documentPath, question string) (*domain.AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer question", errors.New("question is empty"))
	}

	segments, err := a.loadSegments(ctx, documentPath)
	if err != nil {
		return nil, err
	}

	ranked, err := a.rank(ctx, question, segments)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		slog.Debug("answer_question_no_relevant_segments", "document", documentPath, "segments", len(segments))
		return &domain.AnswerResult{Found: false}, nil
	}

	generated, err := a.generate(ctx, prompt.Build(question, ranked))
	if err != nil {
		return nil, err
	}

	result := &domain.AnswerResult{
		Found:          true,
		Answer:         generated.Text,
		CitedSegmentID: generated.CitedSegmentID,
		Sources:        ranked,
	}
	if generated.CitedSegmentID != nil {
		if text, ok := lookupRanked(ranked, *generated.CitedSegmentID); ok {
			result.CitedSegmentText = &text
		}
	}
	return result, nil
}

// loadSegments shares one extraction and segmentation per document path
// between concurrent callers. The shared load does not inherit caller
// cancellation, so a caller that gives up only stops waiting for it.
func (a *HandoutAssistant) loadSegments(ctx context.Context, documentPath string) ([]domain.Segment, error) {
	if a.cache == nil {
		return a.segmentDocument(ctx, documentPath)
	}
	if segments, ok := a.cache.Get(documentPath); ok {
		return segments, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	done := a.loads.DoChan(documentPath, func() (any, error) {
		segments, err := a.segmentDocument(loadCtx, documentPath)
		if err != nil {
			return nil, err
		}
		a.cache.Put(documentPath, segments)
		return segments, nil
	})

	select {
	case <-ctx.Done():
		return nil, domain.WrapError(domain.ErrSegmentationUnavailable, "load segments", ctx.Err())
	case res := <-done:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneSegments(res.Val.([]domain.Segment)), nil
	}
}

func (a *HandoutAssistant) segmentDocument(ctx context.Context, documentPath string) ([]domain.Segment, error) {
	text, err := a.extractText(ctx, documentPath)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return []domain.Segment{}, nil
	}

	texts, err := a.segment(ctx, text)
	if err != nil {
		return nil, err
	}
	return IndexSegments(texts), nil
}

func (a *HandoutAssistant) extractText(ctx context.Context, documentPath string) (string, error) {
	stageCtx, cancel := withStageTimeout(ctx, a.timeouts.Extract)
	defer cancel()

	text, err := a.extractor.Extract(stageCtx, documentPath)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	return text, nil
}

func (a *HandoutAssistant) segment(ctx context.Context, text string) ([]string, error) {
	stageCtx, cancel := withStageTimeout(ctx, a.timeouts.Segment)
	defer cancel()

	texts, err := a.segmenter.Segment(stageCtx, text)
	if err != nil {
		return nil, fmt.Errorf("segment text: %w", err)
	}
	return texts, nil
}

func (a *HandoutAssistant) rank(ctx context.Context, question string, segments []domain.Segment) ([]domain.ScoredSegment, error) {
	stageCtx, cancel := withStageTimeout(ctx, a.timeouts.Rank)
	defer cancel()

	ranked, err := a.ranker.Rank(stageCtx, question, segments)
	if err != nil {
		return nil, fmt.Errorf("rank segments: %w", err)
	}
	return ranked, nil
}

func (a *HandoutAssistant) generate(ctx context.Context, rendered string) (domain.GeneratedAnswer, error) {
	stageCtx, cancel := withStageTimeout(ctx, a.timeouts.Generate)
	defer cancel()

	generated, err := a.generator.Generate(stageCtx, rendered)
	if err != nil {
		return domain.GeneratedAnswer{}, fmt.Errorf("generate answer: %w", err)
	}
	return generated, nil
}

// lookupRanked resolves a citation against the ranked list only; ids outside
// the top segments stay unresolved.
func lookupRanked(ranked []domain.ScoredSegment, id int) (string, bool) {
	for _, segment := range ranked {
		if segment.ID == id {
			return segment.Text, true
		}
	}
	return "", false
}

func withStageTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
