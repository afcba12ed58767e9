// Package completion holds the sampling policy and response parsing shared by
// every answer generation backend.
package completion

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
)

// Params is the sampling policy sent with every completion request.
type Params struct {
	Temperature      float32
	MaxTokens        int
	TopP             float32
	FrequencyPenalty float32
	PresencePenalty  float32
}

func DefaultParams() Params {
	return Params{
		Temperature:      0.5,
		MaxTokens:        2000,
		TopP:             1,
		FrequencyPenalty: 0,
		PresencePenalty:  0,
	}
}

var citationMarker = regexp.MustCompile(`<ID:\s*(\d+)>`)

// Parse keeps the first line of the trimmed completion as the answer and
// pulls out an optional <ID: n> citation marker.
func Parse(raw string) domain.GeneratedAnswer {
	line := strings.TrimSpace(raw)
	if idx := strings.IndexAny(line, "\r\n"); idx >= 0 {
		line = line[:idx]
	}

	answer := domain.GeneratedAnswer{Text: strings.TrimSpace(line)}
	match := citationMarker.FindStringSubmatchIndex(line)
	if match == nil {
		return answer
	}

	id, err := strconv.Atoi(line[match[2]:match[3]])
	if err != nil {
		return answer
	}
	answer.CitedSegmentID = &id
	answer.Text = strings.TrimSpace(line[:match[0]] + line[match[1]:])
	return answer
}
