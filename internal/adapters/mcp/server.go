package mcpadapter

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
	"github.com/kirillkom/handout-assistant/internal/core/ports"
)

const (
	serverName    = "handout-assistant"
	serverVersion = "1.0.0"

	noAnswerText = "Sorry, I couldn't find an answer to your question in the handout."
)

type Tools struct {
	answerer    ports.QuestionAnswerer
	highlighter ports.Highlighter
}

func NewTools(answerer ports.QuestionAnswerer, highlighter ports.Highlighter) *Tools {
	return &Tools{answerer: answerer, highlighter: highlighter}
}

// NewServer exposes ask_handout and highlight_handout over MCP.
func NewServer(tools *Tools) *server.MCPServer {
	s := server.NewMCPServer(serverName, serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool("ask_handout",
		mcp.WithDescription("Answer a question from a PDF handout and cite the supporting segment"),
		mcp.WithString("pdf_path", mcp.Required(), mcp.Description("Absolute path of the handout PDF")),
		mcp.WithString("question", mcp.Required(), mcp.Description("Question about the handout")),
	), tools.AskHandout)

	s.AddTool(mcp.NewTool("highlight_handout",
		mcp.WithDescription("Highlight every exact occurrence of each line of text in a PDF handout"),
		mcp.WithString("pdf_path", mcp.Required(), mcp.Description("Absolute path of the handout PDF")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Phrases to highlight, one per line")),
		mcp.WithString("output_path", mcp.Required(), mcp.Description("Where to write the highlighted PDF")),
	), tools.HighlightHandout)

	return s
}

func (t *Tools) AskHandout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("pdf_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := t.answerer.AnswerQuestion(ctx, path, question)
	if err != nil {
		slog.Error("mcp_ask_failed", "pdf_path", path, "upstream_status", domain.StatusCode(err), "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(renderAnswer(result)), nil
}

func (t *Tools) HighlightHandout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("pdf_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	outPath, err := request.RequireString("output_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	count, err := t.highlighter.Highlight(ctx, path, outPath, text)
	if err != nil {
		slog.Error("mcp_highlight_failed", "pdf_path", path, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Highlighted %d occurrence(s) in %s", count, outPath)), nil
}

func renderAnswer(result *domain.AnswerResult) string {
	if result == nil || !result.Found {
		return noAnswerText
	}
	var b strings.Builder
	b.WriteString("Answer: ")
	b.WriteString(result.Answer)
	b.WriteString("\nSegment ID: ")
	if result.HasCitation() {
		b.WriteString(strconv.Itoa(*result.CitedSegmentID))
	} else {
		b.WriteString("-")
	}
	if result.CitationResolved() {
		b.WriteString("\nSegment: ")
		b.WriteString(*result.CitedSegmentText)
	}
	return b.String()
}
