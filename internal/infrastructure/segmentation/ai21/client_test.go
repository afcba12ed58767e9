package ai21

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/resilience"
)

func testExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})
}

func TestSegmentReturnsSegmentTextsInOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/studio/v1/segmentation" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Fatalf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload["sourceType"] != "TEXT" || payload["source"] != "A cat sat. A dog ran." {
			t.Fatalf("unexpected payload %v", payload)
		}
		_, _ = w.Write([]byte(`{"id":"x","segments":[{"segmentText":"A cat sat.","segmentType":"normal_text"},{"segmentText":"A dog ran.","segmentType":"normal_text"}]}`))
	}))
	defer server.Close()

	segments, err := New(server.URL, "key", time.Second, testExecutor()).Segment(context.Background(), "A cat sat. A dog ran.")
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if !reflect.DeepEqual(segments, []string{"A cat sat.", "A dog ran."}) {
		t.Fatalf("unexpected segments %v", segments)
	}
}

func TestSegmentClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "source too long", http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := New(server.URL, "key", time.Second, testExecutor()).Segment(context.Background(), "text")
	if !domain.IsKind(err, domain.ErrSegmentationService) {
		t.Fatalf("expected segmentation service error, got %v", err)
	}
	if domain.StatusCode(err) != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", domain.StatusCode(err))
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestSegmentRetriesServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"segments":[{"segmentText":"ok"}]}`))
	}))
	defer server.Close()

	segments, err := New(server.URL, "key", time.Second, testExecutor()).Segment(context.Background(), "text")
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if len(segments) != 1 || calls.Load() != 3 {
		t.Fatalf("expected success on third attempt, got %v after %d calls", segments, calls.Load())
	}
}

func TestSegmentNetworkFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := New(url, "key", time.Second, testExecutor()).Segment(context.Background(), "text")
	if !domain.IsKind(err, domain.ErrSegmentationUnavailable) {
		t.Fatalf("expected segmentation unavailable, got %v", err)
	}
}

func TestSegmentMalformedBodyIsServiceError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("<html>gateway</html>"))
	}))
	defer server.Close()

	_, err := New(server.URL, "key", time.Second, testExecutor()).Segment(context.Background(), "text")
	if !domain.IsKind(err, domain.ErrSegmentationService) || domain.IsKind(err, domain.ErrSegmentationUnavailable) {
		t.Fatalf("expected segmentation service error, got %v", err)
	}
	if domain.StatusCode(err) != http.StatusOK {
		t.Fatalf("expected response status in error, got %d", domain.StatusCode(err))
	}
	if calls.Load() != 1 {
		t.Fatalf("malformed body must not be retried, got %d calls", calls.Load())
	}
}
