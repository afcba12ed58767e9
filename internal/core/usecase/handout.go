package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
	"github.com/kirillkom/handout-assistant/internal/core/ports"
)

const defaultHistoryLimit = 50

type HandoutUseCase struct {
	repo      ports.HandoutRepository
	storage   ports.ObjectStorage
	journal   ports.QuestionJournal
	queue     ports.HighlightQueue
	assistant ports.QuestionAnswerer

	now func() time.Time
}

func NewHandoutUseCase(
	repo ports.HandoutRepository,
	storage ports.ObjectStorage,
	journal ports.QuestionJournal,
	queue ports.HighlightQueue,
	assistant ports.QuestionAnswerer,
) *HandoutUseCase {
	return &HandoutUseCase{
		repo:      repo,
		storage:   storage,
		journal:   journal,
		queue:     queue,
		assistant: assistant,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (uc *HandoutUseCase) Upload(ctx context.Context, filename string, body io.Reader) (*domain.Handout, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload handout", fmt.Errorf("expected a .pdf file, got %q", filename))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))

	size, err := uc.storage.Save(ctx, storageKey, body)
	if err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}
	if size == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload handout", errors.New("empty file"))
	}

	handout := &domain.Handout{
		ID:          id,
		Filename:    filename,
		StoragePath: storageKey,
		SizeBytes:   size,
		CreatedAt:   uc.now(),
	}
	if err := uc.repo.Create(ctx, handout); err != nil {
		return nil, fmt.Errorf("create handout metadata: %w", err)
	}
	return handout, nil
}

func (uc *HandoutUseCase) Get(ctx context.Context, id string) (*domain.Handout, error) {
	handout, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch handout by id: %w", err)
	}
	return handout, nil
}

// Ask answers a question against a stored handout and journals the outcome.
// A journal failure is logged and does not fail the question.
func (uc *HandoutUseCase) Ask(ctx context.Context, handoutID, question string) (*domain.AnswerResult, error) {
	handout, err := uc.Get(ctx, handoutID)
	if err != nil {
		return nil, err
	}

	start := uc.now()
	result, answerErr := uc.assistant.AnswerQuestion(ctx, uc.storage.Path(handout.StoragePath), question)
	if domain.IsKind(answerErr, domain.ErrInvalidInput) {
		return nil, answerErr
	}

	record := &domain.QuestionRecord{
		ID:         uuid.NewString(),
		HandoutID:  handout.ID,
		Question:   strings.TrimSpace(question),
		DurationMS: uc.now().Sub(start).Milliseconds(),
		CreatedAt:  start,
	}
	switch {
	case answerErr != nil:
		record.Status = domain.QuestionFailed
		record.Error = answerErr.Error()
	case !result.Found:
		record.Status = domain.QuestionNoAnswer
	default:
		record.Status = domain.QuestionAnswered
		record.Answer = result.Answer
		record.CitedSegmentID = result.CitedSegmentID
	}

	if err := uc.journal.Append(ctx, record); err != nil {
		slog.Warn("question_journal_append_failed", "handout_id", handout.ID, "error", err)
	}

	if answerErr != nil {
		return nil, answerErr
	}
	return result, nil
}

func (uc *HandoutUseCase) History(ctx context.Context, handoutID string, limit int) ([]domain.QuestionRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if _, err := uc.Get(ctx, handoutID); err != nil {
		return nil, err
	}
	records, err := uc.journal.ListByHandout(ctx, handoutID, limit)
	if err != nil {
		return nil, fmt.Errorf("list question journal: %w", err)
	}
	return records, nil
}

func (uc *HandoutUseCase) RequestHighlight(ctx context.Context, handoutID, text string) (*domain.HighlightJob, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "request highlight", errors.New("text is empty"))
	}
	handout, err := uc.Get(ctx, handoutID)
	if err != nil {
		return nil, err
	}

	job := domain.HighlightJob{
		HandoutID: handout.ID,
		Text:      text,
		OutputKey: highlightedKey(handout.ID),
		QueuedAt:  uc.now(),
	}
	if err := uc.queue.PublishHighlightJob(ctx, job); err != nil {
		return nil, fmt.Errorf("publish highlight job: %w", err)
	}
	return &job, nil
}

func (uc *HandoutUseCase) OpenHighlighted(ctx context.Context, handoutID string) (io.ReadCloser, error) {
	handout, err := uc.Get(ctx, handoutID)
	if err != nil {
		return nil, err
	}

	key := highlightedKey(handout.ID)
	exists, err := uc.storage.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("stat highlighted handout: %w", err)
	}
	if !exists {
		return nil, domain.WrapError(domain.ErrHandoutNotFound, "open highlighted handout", fmt.Errorf("no highlighted output for %s", handout.ID))
	}

	reader, err := uc.storage.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open highlighted handout: %w", err)
	}
	return reader, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "handout.pdf"
	}
	return base
}
