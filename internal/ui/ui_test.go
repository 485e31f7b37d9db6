package ui

import (
	"context"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jbpratt/quiz/internal/trivia"
)

// scriptedSource returns errs in order, then questions.
type scriptedSource struct {
	mu        sync.Mutex
	errs      []error
	questions []trivia.RawQuestion
	calls     int
}

func (s *scriptedSource) Fetch(context.Context, trivia.Request) ([]trivia.RawQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	return s.questions, nil
}

// inOrder leaves answers in their raw order so the correct one is first.
type inOrder struct{}

func (inOrder) Shuffle(int, func(i, j int)) {}

func raw(question, correct string, incorrect ...string) trivia.RawQuestion {
	return trivia.RawQuestion{
		Category:         "General Knowledge",
		Type:             trivia.TypeMultiple,
		Difficulty:       "easy",
		Question:         question,
		CorrectAnswer:    correct,
		IncorrectAnswers: incorrect,
	}
}

func twoQuestions() []trivia.RawQuestion {
	return []trivia.RawQuestion{
		raw("What is the capital of France?", "Paris", "Lyon", "Marseille", "Nice"),
		raw("What is 2 &#43; 2?", "4", "3", "5", "22"),
	}
}

func testSession(t *testing.T, source trivia.Source) *trivia.Session {
	t.Helper()
	normalizer := trivia.NewNormalizer(trivia.WithShuffler(inOrder{}))
	return trivia.NewSession(zaptest.NewLogger(t).Sugar(), source, trivia.WithNormalizer(normalizer))
}

func testModel(t *testing.T, source trivia.Source) Model {
	t.Helper()
	return NewModel(t.Context(), zaptest.NewLogger(t).Sugar(), testSession(t, source), Options{NoColor: true})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok, "unexpected model type %T", next)
	return model, cmd
}

// drain runs cmd and any commands batched inside it.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func fetchResult(t *testing.T, cmd tea.Cmd) fetchedMsg {
	t.Helper()
	for _, msg := range drain(cmd) {
		if fetched, ok := msg.(fetchedMsg); ok {
			return fetched
		}
	}
	require.FailNow(t, "command did not fetch questions")
	return fetchedMsg{}
}
