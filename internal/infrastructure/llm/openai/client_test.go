package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
)

func TestGenerateSendsFixedPolicyAndParsesCitation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/completions" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Fatalf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		var payload completionRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload.Model != DefaultModel || payload.Prompt != "prompt" {
			t.Fatalf("unexpected payload %+v", payload)
		}
		if payload.Temperature != 0.5 || payload.MaxTokens != 2000 || payload.TopP != 1 || payload.FrequencyPenalty != 0 || payload.PresencePenalty != 0 {
			t.Fatalf("unexpected sampling policy %+v", payload)
		}
		_, _ = w.Write([]byte(`{"choices":[{"text":"\n\nThe dog ran. <ID: 2>","finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	answer, err := New(server.URL, "sk-test", "", time.Second, nil).Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if answer.Text != "The dog ran." || answer.CitedSegmentID == nil || *answer.CitedSegmentID != 2 {
		t.Fatalf("unexpected answer %+v", answer)
	}
}

func TestGenerateMapsStatusAndEmptyChoices(t *testing.T) {
	unauthorized := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid key"}}`, http.StatusUnauthorized)
	}))
	defer unauthorized.Close()

	_, err := New(unauthorized.URL, "bad", "", time.Second, nil).Generate(context.Background(), "p")
	if !domain.IsKind(err, domain.ErrGenerationService) || domain.StatusCode(err) != http.StatusUnauthorized {
		t.Fatalf("expected generation service error with 401, got %v", err)
	}

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer empty.Close()

	_, err = New(empty.URL, "k", "", time.Second, nil).Generate(context.Background(), "p")
	if !domain.IsKind(err, domain.ErrGenerationService) {
		t.Fatalf("expected generation service error for empty choices, got %v", err)
	}
}
