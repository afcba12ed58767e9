package usecase

import "testing"

func TestIndexSegmentsAssignsSequentialIDs(t *testing.T) {
	texts := []string{"alpha", "beta", "gamma", "beta"}

	segments := IndexSegments(texts)
	if len(segments) != len(texts) {
		t.Fatalf("expected %d segments, got %d", len(texts), len(segments))
	}
	for idx, segment := range segments {
		if segment.ID != idx+1 {
			t.Fatalf("expected id %d at position %d, got %d", idx+1, idx, segment.ID)
		}
		if segment.Text != texts[idx] {
			t.Fatalf("expected text %q at position %d, got %q", texts[idx], idx, segment.Text)
		}
	}
}

func TestIndexSegmentsEmptyInput(t *testing.T) {
	segments := IndexSegments(nil)
	if segments == nil || len(segments) != 0 {
		t.Fatalf("expected empty non-nil output, got %#v", segments)
	}
}
