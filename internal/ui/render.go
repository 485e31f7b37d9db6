package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize/english"

	"github.com/jbpratt/quiz/internal/trivia"
)

var (
	spinnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	metaStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

func render(m Model) string {
	snap := m.session.Snapshot()

	var body string
	var bindings []key.Binding
	switch snap.Phase {
	case trivia.PhaseIdle:
		body = english.Plural(trivia.DefaultCount, "question", "") + " about computers. Ready?"
		bindings = []key.Binding{m.keys.Start, m.keys.Quit}
	case trivia.PhaseLoading:
		body = m.spinner.View() + " Loading questions…"
		bindings = []key.Binding{m.keys.Restart, m.keys.Quit}
	case trivia.PhasePresenting, trivia.PhaseAnswered:
		body = renderQuestion(m, snap)
		bindings = []key.Binding{m.keys.Up, m.keys.Down, m.keys.Choose, m.keys.Submit, m.keys.Restart, m.keys.Quit}
		if snap.Phase == trivia.PhaseAnswered {
			bindings = []key.Binding{m.keys.Next, m.keys.Restart, m.keys.Quit}
		}
	case trivia.PhaseFinished:
		body = renderResult(m, snap)
		bindings = []key.Binding{m.keys.Start, m.keys.Restart, m.keys.Quit}
	}

	parts := []string{stylize("Trivia Quiz", m.noColor, titleStyle), "", body}
	if m.status != "" {
		parts = append(parts, "", stylize(m.status, m.noColor, errorStyle))
	}
	parts = append(parts, "", m.help.ShortHelpView(bindings))
	return lipgloss.JoinVertical(lipgloss.Left, parts...) + "\n"
}

func renderQuestion(m Model, snap trivia.Snapshot) string {
	q := snap.Question

	var b strings.Builder
	b.WriteString(stylize(fmt.Sprintf("%s · %s · Difficulty: %s", snap.Progress(), q.Category, q.Difficulty), m.noColor, metaStyle))
	b.WriteString("\n\n")
	b.WriteString(wrap(q.Text, m.width))
	b.WriteString("\n\n")

	for i, answer := range q.Answers {
		prefix := "  "
		if snap.Phase == trivia.PhasePresenting && i == m.cursor {
			prefix = stylize("> ", m.noColor, cursorStyle)
		}
		line := fmt.Sprintf("%d) %s", i+1, answer)

		if snap.Outcome != nil {
			switch snap.Outcome.Mark(answer) {
			case trivia.MarkCorrect:
				line = stylize(line+" ✓", m.noColor, correctStyle)
			case trivia.MarkIncorrect:
				line = stylize(line+" ✗", m.noColor, incorrectStyle)
			}
		}
		b.WriteString(prefix + line + "\n")
	}

	if snap.Outcome != nil {
		b.WriteString("\n")
		if snap.Outcome.IsCorrect {
			b.WriteString(stylize("Correct!", m.noColor, correctStyle))
		} else {
			b.WriteString(stylize("Wrong. The answer was "+snap.Outcome.Correct+".", m.noColor, incorrectStyle))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderResult(m Model, snap trivia.Snapshot) string {
	line := fmt.Sprintf("You scored %s.", snap.Result())
	return stylize(line, m.noColor, titleStyle)
}

func wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, style lipgloss.Style) string {
	if noColor {
		return text
	}
	return style.Render(text)
}
