package domain

import "time"

// Handout is an uploaded PDF. Only upload metadata is kept; segments are
// recomputed for every question.
type Handout struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	StoragePath string    `json:"storage_path"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

type QuestionStatus string

const (
	QuestionAnswered QuestionStatus = "answered"
	QuestionNoAnswer QuestionStatus = "no_answer"
	QuestionFailed   QuestionStatus = "failed"
)

// QuestionRecord is one entry of the per-handout question journal.
type QuestionRecord struct {
	ID             string         `json:"id"`
	HandoutID      string         `json:"handout_id"`
	Question       string         `json:"question"`
	Status         QuestionStatus `json:"status"`
	Answer         string         `json:"answer,omitempty"`
	CitedSegmentID *int           `json:"cited_segment_id,omitempty"`
	Error          string         `json:"error,omitempty"`
	DurationMS     int64          `json:"duration_ms"`
	CreatedAt      time.Time      `json:"created_at"`
}

// HighlightJob asks the worker to highlight Text (newline separated phrases)
// in a stored handout and write the result under OutputKey.
type HighlightJob struct {
	HandoutID string    `json:"handout_id"`
	Text      string    `json:"text"`
	OutputKey string    `json:"output_key"`
	QueuedAt  time.Time `json:"queued_at"`
}

// Rect is a PDF user-space rectangle, lower-left origin.
type Rect struct {
	LLX float64 `json:"llx"`
	LLY float64 `json:"lly"`
	URX float64 `json:"urx"`
	URY float64 `json:"ury"`
}

// PageHighlight places one highlight annotation on a 1-based page.
type PageHighlight struct {
	Page int  `json:"page"`
	Rect Rect `json:"rect"`
}
