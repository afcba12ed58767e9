package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
)

type phraseLocatorFake struct {
	matches map[string][]domain.PageHighlight
	err     error
	phrases []string
	calls   int
}

func (f *phraseLocatorFake) Locate(_ context.Context, _ string, phrases []string) ([]domain.PageHighlight, error) {
	f.calls++
	f.phrases = append(f.phrases, phrases...)
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.PageHighlight
	for _, phrase := range phrases {
		out = append(out, f.matches[phrase]...)
	}
	return out, nil
}

type highlightWriterFake struct {
	inPath, outPath string
	written         []domain.PageHighlight
	calls           int
	err             error
}

func (f *highlightWriterFake) WriteHighlights(_ context.Context, inPath, outPath string, highlights []domain.PageHighlight) error {
	f.calls++
	f.inPath = inPath
	f.outPath = outPath
	f.written = highlights
	return f.err
}

func TestHighlightMarksOnlyMatchingPhrases(t *testing.T) {
	catRect := domain.PageHighlight{Page: 1, Rect: domain.Rect{LLX: 72, LLY: 700, URX: 90, URY: 712}}
	locator := &phraseLocatorFake{matches: map[string][]domain.PageHighlight{"cat": {catRect}}}
	writer := &highlightWriterFake{}

	count, err := NewHighlightUseCase(locator, writer).Highlight(context.Background(), "in.pdf", "out.pdf", "cat\nzebra")
	if err != nil {
		t.Fatalf("Highlight() error = %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 annotation, got %d", count)
	}
	if !reflect.DeepEqual(locator.phrases, []string{"cat", "zebra"}) {
		t.Fatalf("unexpected phrases: %v", locator.phrases)
	}
	if writer.inPath != "in.pdf" || writer.outPath != "out.pdf" || len(writer.written) != 1 || writer.written[0] != catRect {
		t.Fatalf("unexpected write: %+v", writer)
	}
}

func TestHighlightSkipsBlankLines(t *testing.T) {
	locator := &phraseLocatorFake{}
	writer := &highlightWriterFake{}

	count, err := NewHighlightUseCase(locator, writer).Highlight(context.Background(), "in.pdf", "out.pdf", "\n  \n")
	if err != nil {
		t.Fatalf("Highlight() error = %v", err)
	}
	if count != 0 || locator.calls != 0 {
		t.Fatalf("expected no lookups for blank text, got count=%d calls=%d", count, locator.calls)
	}
	if writer.calls != 1 {
		t.Fatalf("expected output copy to be written once, got %d", writer.calls)
	}
}

func TestHighlightPropagatesLocatorFailure(t *testing.T) {
	locator := &phraseLocatorFake{err: domain.WrapError(domain.ErrDocumentRead, "open pdf", errors.New("bad header"))}
	writer := &highlightWriterFake{}

	_, err := NewHighlightUseCase(locator, writer).Highlight(context.Background(), "in.pdf", "out.pdf", "cat")
	if !domain.IsKind(err, domain.ErrDocumentRead) {
		t.Fatalf("expected document read error, got %v", err)
	}
	if writer.calls != 0 {
		t.Fatalf("writer must not run after locator failure")
	}
}

type highlighterFake struct {
	inPath, outPath, text string
	count                 int
	err                   error
}

func (f *highlighterFake) Highlight(_ context.Context, inPath, outPath, text string) (int, error) {
	f.inPath, f.outPath, f.text = inPath, outPath, text
	return f.count, f.err
}

func TestProcessHighlightJobResolvesStoragePaths(t *testing.T) {
	repo := &handoutRepoFake{items: map[string]*domain.Handout{
		"h1": {ID: "h1", StoragePath: "h1_notes.pdf"},
	}}
	storage := newStorageFake()
	highlighter := &highlighterFake{count: 2}

	err := NewHighlightJobProcessor(repo, storage, highlighter).ProcessHighlightJob(context.Background(), domain.HighlightJob{
		HandoutID: "h1",
		Text:      "cat",
	})
	if err != nil {
		t.Fatalf("ProcessHighlightJob() error = %v", err)
	}
	if highlighter.inPath != "/data/h1_notes.pdf" || highlighter.outPath != "/data/h1_highlighted.pdf" || highlighter.text != "cat" {
		t.Fatalf("unexpected highlighter call: %+v", highlighter)
	}
}

func TestProcessHighlightJobUnknownHandout(t *testing.T) {
	repo := &handoutRepoFake{items: map[string]*domain.Handout{}}
	highlighter := &highlighterFake{}

	err := NewHighlightJobProcessor(repo, newStorageFake(), highlighter).ProcessHighlightJob(context.Background(), domain.HighlightJob{HandoutID: "missing"})
	if !errors.Is(err, domain.ErrHandoutNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if highlighter.inPath != "" {
		t.Fatalf("highlighter must not run for unknown handout")
	}
}
