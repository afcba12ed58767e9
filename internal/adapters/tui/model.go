package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
	"github.com/kirillkom/handout-assistant/internal/core/ports"
)

const (
	invalidQuestionText = "Please enter a valid question."
	noAnswerText        = "Sorry, I couldn't find an answer to your question in the handout."
	goodbyeText         = "Goodbye!"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
	userStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	answerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	transcriptBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBox      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Model is the Bubble Tea model of the interactive question loop over one PDF.
type Model struct {
	answerer     ports.QuestionAnswerer
	documentPath string
	timeout      time.Duration

	input      textinput.Model
	viewport   viewport.Model
	transcript []string
	busy       bool
	quitting   bool
	ready      bool
}

type answerMsg struct {
	question string
	result   *domain.AnswerResult
	err      error
}

// New builds the loop model. timeout bounds one question; zero means no limit.
func New(answerer ports.QuestionAnswerer, documentPath string, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "User: "
	ti.Placeholder = "Ask about the handout (quit, exit or bye to leave)"
	ti.Focus()
	return Model{
		answerer:     answerer,
		documentPath: documentPath,
		timeout:      timeout,
		input:        ti,
		viewport:     viewport.New(80, 16),
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBox.GetFrameSize()
		_, ih := inputBox.GetFrameSize()
		m.viewport.Width = max(20, msg.Width-4)
		m.viewport.Height = max(3, msg.Height-th-ih-4)
		m.refresh()
		return m, nil
	case answerMsg:
		m.busy = false
		m.appendLines(renderOutcome(msg.result, msg.err)...)
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			m.quitting = true
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	question := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if IsQuitCommand(question) {
		m.quitting = true
		m.appendLines(noticeStyle.Render(goodbyeText))
		return m, tea.Quit
	}
	if question == "" {
		m.appendLines(noticeStyle.Render(invalidQuestionText))
		return m, nil
	}

	m.busy = true
	m.appendLines(userStyle.Render("User:") + " " + question)
	return m, m.ask(question)
}

func (m Model) ask(question string) tea.Cmd {
	answerer := m.answerer
	path := m.documentPath
	timeout := m.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		result, err := answerer.AnswerQuestion(ctx, path, question)
		return answerMsg{question: question, result: result, err: err}
	}
}

func (m *Model) appendLines(lines ...string) {
	m.transcript = append(m.transcript, lines...)
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(strings.Join(m.transcript, "\n"))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if m.quitting {
		return strings.Join(m.transcript, "\n") + "\n"
	}
	status := "Enter: ask · Ctrl+C: quit"
	if m.busy {
		status = "Thinking..."
	}
	return titleStyle.Render("Handout Assistant") + " " + statusStyle.Render(m.documentPath) + "\n" +
		transcriptBox.Render(m.viewport.View()) + "\n" +
		inputBox.Render(m.input.View()) + "\n" +
		statusStyle.Render(status)
}

// Transcript returns the lines printed so far.
func (m Model) Transcript() []string {
	return append([]string(nil), m.transcript...)
}

// IsQuitCommand reports whether input ends the loop.
func IsQuitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "quit", "exit", "bye":
		return true
	default:
		return false
	}
}

// renderOutcome keeps service and I/O failures visibly apart from the
// "not in the handout" answer.
func renderOutcome(result *domain.AnswerResult, err error) []string {
	if err != nil {
		return []string{errorStyle.Render(FormatError(err))}
	}
	if result == nil || !result.Found {
		return []string{noticeStyle.Render(noAnswerText)}
	}
	return []string{
		answerStyle.Render("Answer:") + " " + result.Answer,
		answerStyle.Render("Segment ID:") + " " + segmentLabel(result),
	}
}

// FormatError names the failing stage so a broken service reads differently
// from a missing answer.
func FormatError(err error) string {
	var stage string
	switch {
	case domain.IsKind(err, domain.ErrDocumentRead):
		stage = "could not read the handout"
	case domain.IsKind(err, domain.ErrSegmentationService), domain.IsKind(err, domain.ErrSegmentationUnavailable):
		stage = "segmentation service failed"
	case domain.IsKind(err, domain.ErrScoringService), domain.IsKind(err, domain.ErrScoringUnavailable):
		stage = "relevance scoring failed"
	case domain.IsKind(err, domain.ErrGenerationService), domain.IsKind(err, domain.ErrGenerationUnavailable):
		stage = "answer generation failed"
	default:
		stage = "request failed"
	}
	if code := domain.StatusCode(err); code > 0 {
		return fmt.Sprintf("Error: %s (status %d): %v", stage, code, err)
	}
	return fmt.Sprintf("Error: %s: %v", stage, err)
}

func segmentLabel(result *domain.AnswerResult) string {
	if !result.HasCitation() {
		return "-"
	}
	return strconv.Itoa(*result.CitedSegmentID)
}

// Run starts the interactive loop and blocks until the user quits.
func Run(answerer ports.QuestionAnswerer, documentPath string, timeout time.Duration) error {
	_, err := tea.NewProgram(New(answerer, documentPath, timeout), tea.WithAltScreen()).Run()
	return err
}
