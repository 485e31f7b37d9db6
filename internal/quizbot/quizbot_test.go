package quizbot_test

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/jbpratt/quiz/internal/bot"
	"github.com/jbpratt/quiz/internal/quizbot"
	"github.com/jbpratt/quiz/internal/trivia"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeChat struct {
	mu       sync.Mutex
	sent     []string
	whispers map[string][]string
}

func (f *fakeChat) Send(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeChat) Whisper(_ context.Context, user, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.whispers == nil {
		f.whispers = map[string][]string{}
	}
	f.whispers[user] = append(f.whispers[user], text)
	return nil
}

func (f *fakeChat) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

type fakeSource struct {
	questions []trivia.RawQuestion
	err       error
	gate      chan struct{}
}

func (f *fakeSource) Fetch(ctx context.Context, _ trivia.Request) ([]trivia.RawQuestion, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.questions, nil
}

func questions() []trivia.RawQuestion {
	return []trivia.RawQuestion{
		{Category: "Geography", Type: trivia.TypeMultiple, Difficulty: "easy", Question: "What is the capital of France?", CorrectAnswer: "Paris", IncorrectAnswers: []string{"Lyon", "Marseille", "Nice"}},
		{Category: "Math", Type: trivia.TypeBoolean, Difficulty: "easy", Question: "2 + 2 = 4", CorrectAnswer: "True", IncorrectAnswers: []string{"False"}},
	}
}

func newQuizBot(t *testing.T, source trivia.Source) (*quizbot.QuizBot, *fakeChat, *trivia.Session) {
	t.Helper()
	logger := zaptest.NewLogger(t).Sugar()
	normalizer := trivia.NewNormalizer(trivia.WithShuffler(rand.New(rand.NewSource(1))))
	session := trivia.NewSession(logger, source, trivia.WithNormalizer(normalizer))
	chat := &fakeChat{}
	return quizbot.New(logger, chat, session, "!quiz"), chat, session
}

func say(t *testing.T, q *quizbot.QuizBot, data string) {
	t.Helper()
	require.NoError(t, q.OnMessage(t.Context(), &bot.Msg{Kind: bot.KindMsg, User: "bob", Data: data}))
}

func optionNumber(t *testing.T, session *trivia.Session, answer string) string {
	t.Helper()
	for i, a := range session.Snapshot().Question.Answers {
		if a == answer {
			return string(rune('1' + i))
		}
	}
	t.Fatalf("answer %q not found", answer)
	return ""
}

func TestQuizBotFullQuiz(t *testing.T) {
	q, chat, session := newQuizBot(t, &fakeSource{questions: questions()})

	say(t, q, "!quiz start")
	q.Wait()
	require.Contains(t, chat.last(), "Quiz starting! Question 1 of 2.")
	require.Contains(t, chat.last(), "What is the capital of France?")
	require.Contains(t, chat.last(), "Paris")

	say(t, q, "!quiz next")
	require.Equal(t, "Answer the current question first.", chat.last())

	say(t, q, "!quiz "+optionNumber(t, session, "Paris"))
	require.Contains(t, chat.last(), "Correct!")
	require.Contains(t, chat.last(), "1st correct answer")

	say(t, q, "!quiz 1")
	require.Contains(t, chat.last(), "already answered")

	say(t, q, "!quiz score")
	require.Equal(t, "1 correct answer so far, on question 1 of 2.", chat.last())

	say(t, q, "!quiz next")
	require.Contains(t, chat.last(), "Question 2 of 2 (final).")

	require.NoError(t, q.OnPrivateMessage(t.Context(), &bot.Msg{Kind: bot.KindPrivMsg, User: "alice", Data: optionNumber(t, session, "False")}))
	require.Contains(t, chat.last(), "Wrong, alice picked")
	require.Contains(t, chat.last(), "The answer was")
	require.Contains(t, chat.last(), "for the result")

	say(t, q, "!quiz next")
	require.Equal(t, "Quiz complete! You scored 1 of 2. `!quiz start` to play again.", chat.last())
	require.Equal(t, trivia.PhaseFinished, session.Phase())
}

func TestQuizBotIgnoresOtherMessages(t *testing.T) {
	q, chat, _ := newQuizBot(t, &fakeSource{questions: questions()})

	say(t, q, "hello there")
	say(t, q, "")
	say(t, q, "!quizzical")
	require.Empty(t, chat.sent)

	say(t, q, "!quiz")
	require.Contains(t, chat.last(), "Start a quiz with `!quiz start`")

	say(t, q, "!quiz dance")
	require.Contains(t, chat.last(), `Unknown command "dance"`)
}

func TestQuizBotAnswerWithoutQuiz(t *testing.T) {
	q, chat, _ := newQuizBot(t, &fakeSource{questions: questions()})

	say(t, q, "!quiz 2")
	require.Contains(t, chat.last(), "There is no question to answer")

	require.NoError(t, q.OnPrivateMessage(t.Context(), &bot.Msg{Kind: bot.KindPrivMsg, User: "alice", Data: "two"}))
	require.Equal(t, []string{"Invalid answer, PM the number of the answer"}, chat.whispers["alice"])

	say(t, q, "!quiz next")
	require.Contains(t, chat.last(), "No quiz in progress")
}

func TestQuizBotInvalidChoice(t *testing.T) {
	q, chat, session := newQuizBot(t, &fakeSource{questions: questions()})
	say(t, q, "!quiz start")
	q.Wait()

	say(t, q, "!quiz 9")
	require.Equal(t, "Invalid answer, pick one of the numbered options.", chat.last())
	require.Equal(t, trivia.PhasePresenting, session.Phase())
}

func TestQuizBotFetchFailure(t *testing.T) {
	q, chat, session := newQuizBot(t, &fakeSource{err: &trivia.TransportError{Op: "fetch questions", StatusCode: 500}})

	say(t, q, "!quiz start")
	q.Wait()
	require.Equal(t, "Failed to load questions. Please try again.", chat.last())
	require.Equal(t, trivia.PhaseIdle, session.Phase())
	require.ErrorIs(t, session.Snapshot().Err, trivia.ErrFetchFailed)
}

func TestQuizBotRestartDuringLoad(t *testing.T) {
	source := &fakeSource{questions: questions(), gate: make(chan struct{})}
	q, chat, session := newQuizBot(t, source)

	say(t, q, "!quiz start")
	require.Equal(t, trivia.PhaseLoading, session.Phase())

	say(t, q, "!quiz start")
	require.Equal(t, "Questions are already loading, hang on.", chat.last())

	say(t, q, "!quiz restart")
	require.Equal(t, trivia.PhaseIdle, session.Phase())

	close(source.gate)
	q.Wait()

	// the abandoned load must not resurrect the quiz or announce anything
	require.Equal(t, trivia.PhaseIdle, session.Phase())
	require.Equal(t, "Quiz reset. `!quiz start` for a new one.", chat.last())
	for _, msg := range chat.sent {
		require.False(t, strings.HasPrefix(msg, "Quiz starting!"), msg)
	}
}

func TestQuizBotScoreStates(t *testing.T) {
	source := &fakeSource{questions: questions(), gate: make(chan struct{})}
	q, chat, _ := newQuizBot(t, source)

	say(t, q, "!quiz score")
	require.Equal(t, "No quiz in progress.", chat.last())

	say(t, q, "!quiz start")
	say(t, q, "!quiz score")
	require.Equal(t, "Questions are loading.", chat.last())

	close(source.gate)
	q.Wait()
	require.Contains(t, chat.last(), "Quiz starting!")
}

type failingChat struct{ fakeChat }

func (f *failingChat) Send(context.Context, string) error { return errors.New("socket closed") }

func TestQuizBotSendFailure(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	session := trivia.NewSession(logger, &fakeSource{questions: questions()})
	q := quizbot.New(logger, &failingChat{}, session, "!quiz")

	err := q.OnMessage(t.Context(), &bot.Msg{Kind: bot.KindMsg, User: "bob", Data: "!quiz help"})
	require.ErrorContains(t, err, "socket closed")
}
