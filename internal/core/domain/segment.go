package domain

// Segment is one addressable unit of a segmented handout. IDs start at 1 and
// are stable for the lifetime of one processing session.
type Segment struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

type ScoredSegment struct {
	ID    int     `json:"id"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// GeneratedAnswer is the parsed output of the generative completion service.
type GeneratedAnswer struct {
	Text           string `json:"text"`
	CitedSegmentID *int   `json:"cited_segment_id,omitempty"`
}

// AnswerResult is the terminal output of one question against one handout.
// Found=false is the "no answer in the document" state and is not an error.
type AnswerResult struct {
	Found            bool            `json:"found"`
	Answer           string          `json:"answer,omitempty"`
	CitedSegmentID   *int            `json:"cited_segment_id,omitempty"`
	CitedSegmentText *string         `json:"cited_segment_text,omitempty"`
	Sources          []ScoredSegment `json:"sources,omitempty"`
}

func (r *AnswerResult) HasCitation() bool {
	return r != nil && r.CitedSegmentID != nil
}

// CitationResolved reports whether the cited id was found among the ranked segments.
func (r *AnswerResult) CitationResolved() bool {
	return r != nil && r.CitedSegmentText != nil
}
