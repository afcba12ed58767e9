package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
	"github.com/kirillkom/handout-assistant/internal/core/ports"
)

type HighlightUseCase struct {
	locator ports.PhraseLocator
	writer  ports.HighlightWriter
}

func NewHighlightUseCase(locator ports.PhraseLocator, writer ports.HighlightWriter) *HighlightUseCase {
	return &HighlightUseCase{
		locator: locator,
		writer:  writer,
	}
}

// Highlight marks every exact occurrence of each line of text in inPath and
// writes the result to outPath, replacing it if present. Lines without a
// match are skipped. It returns the number of annotations written.
func (uc *HighlightUseCase) Highlight(ctx context.Context, inPath, outPath, text string) (int, error) {
	phrases := splitPhrases(text)

	var highlights []domain.PageHighlight
	if len(phrases) > 0 {
		found, err := uc.locator.Locate(ctx, inPath, phrases)
		if err != nil {
			return 0, fmt.Errorf("locate phrases: %w", err)
		}
		highlights = found
	}

	if err := uc.writer.WriteHighlights(ctx, inPath, outPath, highlights); err != nil {
		return 0, fmt.Errorf("write highlights: %w", err)
	}
	return len(highlights), nil
}

func splitPhrases(text string) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// HighlightJobProcessor runs queued highlight jobs against stored handouts.
type HighlightJobProcessor struct {
	repo        ports.HandoutRepository
	storage     ports.ObjectStorage
	highlighter ports.Highlighter
}

func NewHighlightJobProcessor(
	repo ports.HandoutRepository,
	storage ports.ObjectStorage,
	highlighter ports.Highlighter,
) *HighlightJobProcessor {
	return &HighlightJobProcessor{
		repo:        repo,
		storage:     storage,
		highlighter: highlighter,
	}
}

func (p *HighlightJobProcessor) ProcessHighlightJob(ctx context.Context, job domain.HighlightJob) error {
	handout, err := p.repo.GetByID(ctx, job.HandoutID)
	if err != nil {
		return fmt.Errorf("fetch handout by id: %w", err)
	}
	outputKey := job.OutputKey
	if outputKey == "" {
		outputKey = highlightedKey(handout.ID)
	}

	start := time.Now()
	count, err := p.highlighter.Highlight(ctx, p.storage.Path(handout.StoragePath), p.storage.Path(outputKey), job.Text)
	if err != nil {
		return fmt.Errorf("highlight handout %s: %w", handout.ID, err)
	}

	slog.Info("highlight_job_done",
		"handout_id", handout.ID,
		"output_key", outputKey,
		"annotations", count,
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	return nil
}

func highlightedKey(handoutID string) string {
	return handoutID + "_highlighted.pdf"
}
