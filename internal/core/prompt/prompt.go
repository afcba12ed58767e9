package prompt

import (
	"fmt"
	"strings"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
)

const instruction = `You are an AI Q&A bot. You will be given a question and a list of relevant text segments with their IDs. Please provide an accurate and concise answer based on the information provided, or indicate if you cannot answer the question with the given information. Also, please include the ID of the segment that helped you the most in your answer by writing <ID: n>, where n is the ID number.`

// Build renders the answer prompt. Callers pass a non-empty ranked list.
func Build(question string, ranked []domain.ScoredSegment) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(instruction)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nRelevant Segments:")
	for _, segment := range ranked {
		b.WriteString(fmt.Sprintf("\n%d. \"%s\"", segment.ID, segment.Text))
	}
	return b.String()
}
