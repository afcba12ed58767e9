package localfs

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveOpenExists(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	size, err := storage.Save(ctx, "h1_notes.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if size != 8 {
		t.Fatalf("expected 8 bytes, got %d", size)
	}

	exists, err := storage.Exists(ctx, "h1_notes.pdf")
	if err != nil || !exists {
		t.Fatalf("expected stored key to exist, got %v / %v", exists, err)
	}
	missing, err := storage.Exists(ctx, "h1_highlighted.pdf")
	if err != nil || missing {
		t.Fatalf("expected missing key, got %v / %v", missing, err)
	}

	reader, err := storage.Open(ctx, "h1_notes.pdf")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reader.Close()
	body, _ := io.ReadAll(reader)
	if string(body) != "%PDF-1.4" {
		t.Fatalf("unexpected body %q", body)
	}

	if !filepath.IsAbs(storage.Path("h1_notes.pdf")) {
		t.Fatalf("expected absolute path, got %s", storage.Path("h1_notes.pdf"))
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, key := range []string{"", "..", "../etc/passwd", `a\b`} {
		if _, err := storage.Save(context.Background(), key, strings.NewReader("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}
