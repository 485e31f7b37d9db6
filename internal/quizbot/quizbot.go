// Package quizbot runs a trivia session over chat commands.
package quizbot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/jbpratt/quiz/internal/bot"
	"github.com/jbpratt/quiz/internal/trivia"
	"go.uber.org/zap"
)

// Chat is where the bot posts replies.
type Chat interface {
	Send(ctx context.Context, text string) error
	Whisper(ctx context.Context, user, text string) error
}

type QuizBot struct {
	logger  *zap.SugaredLogger
	chat    Chat
	session *trivia.Session
	prefix  string
	loads   sync.WaitGroup
}

func New(logger *zap.SugaredLogger, chat Chat, session *trivia.Session, prefix string) *QuizBot {
	return &QuizBot{
		logger:  logger,
		chat:    chat,
		session: session,
		prefix:  prefix,
	}
}

// Register wires the bot's handlers into b.
func (q *QuizBot) Register(b *bot.Bot) {
	b.Handle(bot.KindMsg, q.OnMessage)
	b.Handle(bot.KindPrivMsg, q.OnPrivateMessage)
}

// Wait blocks until every question load started by the bot has completed.
func (q *QuizBot) Wait() {
	q.loads.Wait()
}

func (q *QuizBot) help() string {
	return fmt.Sprintf(
		"Start a quiz with `%[1]s start`. Answer with `%[1]s 2` or PM the number. `%[1]s next` moves on, `%[1]s restart` gives up.",
		q.prefix,
	)
}

// OnMessage handles public chat messages addressed to the bot.
func (q *QuizBot) OnMessage(ctx context.Context, msg *bot.Msg) error {
	fields := strings.Fields(msg.Data)
	if len(fields) == 0 || fields[0] != q.prefix {
		return nil
	}
	if len(fields) == 1 {
		return q.send(ctx, q.help())
	}

	cmd := strings.ToLower(fields[1])
	q.logger.Debugw("command received", "user", msg.User, "cmd", cmd)

	switch cmd {
	case "help":
		return q.send(ctx, q.help())
	case "start", "new":
		return q.start(ctx)
	case "next":
		return q.next(ctx)
	case "restart", "stop":
		return q.restart(ctx)
	case "score":
		return q.score(ctx)
	}

	if n, err := strconv.Atoi(cmd); err == nil {
		return q.answer(ctx, msg.User, n, false)
	}
	return q.send(ctx, fmt.Sprintf("Unknown command %q. %s", cmd, q.help()))
}

// OnPrivateMessage treats a whispered number as an answer.
func (q *QuizBot) OnPrivateMessage(ctx context.Context, msg *bot.Msg) error {
	q.logger.Debugw("private message received", "user", msg.User, "msg", msg.Data)

	n, err := strconv.Atoi(strings.TrimSpace(msg.Data))
	if err != nil {
		return q.whisper(ctx, msg.User, "Invalid answer, PM the number of the answer")
	}
	return q.answer(ctx, msg.User, n, true)
}

func (q *QuizBot) start(ctx context.Context) error {
	if q.session.Phase() == trivia.PhaseLoading {
		return q.send(ctx, "Questions are already loading, hang on.")
	}

	ticket := q.session.Begin()
	if err := q.send(ctx, "Loading questions…"); err != nil {
		return err
	}

	q.loads.Add(1)
	go func() {
		defer q.loads.Done()
		q.load(ctx, ticket)
	}()
	return nil
}

func (q *QuizBot) load(ctx context.Context, ticket trivia.Ticket) {
	raw, err := q.session.Fetch(ctx, ticket)
	err = q.session.Complete(ticket, raw, err)

	var failed *trivia.FetchFailedError
	switch {
	case errors.Is(err, trivia.ErrStaleFetch):
		return
	case errors.As(err, &failed):
		err = q.send(ctx, failed.UserMessage())
	case err != nil:
		q.logger.Errorw("unexpected error completing fetch", "err", err)
		return
	default:
		err = q.send(ctx, "Quiz starting! "+q.formatQuestion(q.session.Snapshot()))
	}
	if err != nil {
		q.logger.Warnw("failed to post load result", "err", err)
	}
}

func (q *QuizBot) answer(ctx context.Context, user string, n int, private bool) error {
	outcome, err := q.session.SubmitIndex(n - 1)
	switch {
	case errors.Is(err, trivia.ErrAlreadyAnswered):
		return q.reply(ctx, user, private, fmt.Sprintf("This question was already answered. `%s next` to continue.", q.prefix))
	case errors.Is(err, trivia.ErrInvalidChoice):
		return q.reply(ctx, user, private, "Invalid answer, pick one of the numbered options.")
	case errors.Is(err, trivia.ErrInvalidState):
		return q.reply(ctx, user, private, fmt.Sprintf("There is no question to answer. `%s start` begins a quiz.", q.prefix))
	case err != nil:
		return fmt.Errorf("failed to submit answer: %w", err)
	}

	snap := q.session.Snapshot()
	var output string
	if outcome.IsCorrect {
		output = fmt.Sprintf("Correct! `%d) %s` is right, that's the %s correct answer.",
			outcome.CorrectIndex+1, outcome.Correct, humanize.Ordinal(snap.Score))
	} else {
		output = fmt.Sprintf("Wrong, %s picked `%d) %s`. The answer was `%d) %s`.",
			user, outcome.SelectedIndex+1, outcome.Selected, outcome.CorrectIndex+1, outcome.Correct)
	}

	if snap.Index+1 == snap.Total {
		output += fmt.Sprintf(" `%s next` for the result.", q.prefix)
	} else {
		output += fmt.Sprintf(" `%s next` for the next question.", q.prefix)
	}
	return q.send(ctx, output)
}

func (q *QuizBot) next(ctx context.Context) error {
	err := q.session.Advance()
	switch {
	case errors.Is(err, trivia.ErrNotAnswered):
		return q.send(ctx, "Answer the current question first.")
	case errors.Is(err, trivia.ErrInvalidState):
		return q.send(ctx, fmt.Sprintf("No quiz in progress. `%s start` begins one.", q.prefix))
	case err != nil:
		return fmt.Errorf("failed to advance: %w", err)
	}

	snap := q.session.Snapshot()
	if snap.Phase == trivia.PhaseFinished {
		return q.send(ctx, fmt.Sprintf("Quiz complete! You scored %s. `%s start` to play again.", snap.Result(), q.prefix))
	}
	return q.send(ctx, q.formatQuestion(snap))
}

func (q *QuizBot) restart(ctx context.Context) error {
	q.session.Reset()
	return q.send(ctx, fmt.Sprintf("Quiz reset. `%s start` for a new one.", q.prefix))
}

func (q *QuizBot) score(ctx context.Context) error {
	snap := q.session.Snapshot()
	switch snap.Phase {
	case trivia.PhaseIdle:
		return q.send(ctx, "No quiz in progress.")
	case trivia.PhaseLoading:
		return q.send(ctx, "Questions are loading.")
	case trivia.PhaseFinished:
		return q.send(ctx, "Final score: "+snap.Result())
	}
	return q.send(ctx, fmt.Sprintf("%s so far, on question %d of %d.",
		english.Plural(snap.Score, "correct answer", "correct answers"), snap.Index+1, snap.Total))
}

func (q *QuizBot) formatQuestion(snap trivia.Snapshot) string {
	question := snap.Question
	leading := snap.Progress()
	if snap.Index+1 == snap.Total {
		leading += " (final)"
	}

	output := fmt.Sprintf("%s. %q (%s). Question: `%s` Answers:", leading, question.Category, question.Difficulty, question.Text)
	for idx, ans := range question.Answers {
		output += fmt.Sprintf(" `%d) %s`", idx+1, ans)
	}
	return output
}

func (q *QuizBot) reply(ctx context.Context, user string, private bool, text string) error {
	if private {
		return q.whisper(ctx, user, text)
	}
	return q.send(ctx, text)
}

func (q *QuizBot) send(ctx context.Context, text string) error {
	if err := q.chat.Send(ctx, text); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (q *QuizBot) whisper(ctx context.Context, user, text string) error {
	if err := q.chat.Whisper(ctx, user, text); err != nil {
		// a failed whisper should not take the bot down
		q.logger.Warnw("failed to whisper", "user", user, "err", err)
	}
	return nil
}
