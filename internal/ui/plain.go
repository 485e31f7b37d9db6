package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jbpratt/quiz/internal/trivia"
)

// errQuit ends a plain session early.
var errQuit = errors.New("quit")

// Plain runs a session over line-based input and output, for pipes and dumb
// terminals.
type Plain struct {
	logger  *zap.SugaredLogger
	session *trivia.Session
	lines   *bufio.Scanner
	out     io.Writer
}

func NewPlain(logger *zap.SugaredLogger, session *trivia.Session, in io.Reader, out io.Writer) *Plain {
	return &Plain{
		logger:  logger,
		session: session,
		lines:   bufio.NewScanner(in),
		out:     out,
	}
}

// Run plays quizzes until the player declines another round, enters q, or
// input ends.
func (p *Plain) Run(ctx context.Context) error {
	for {
		err := p.round(ctx)
		if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		again, err := p.prompt("Play again? [y/N] ")
		if err != nil || !strings.HasPrefix(strings.ToLower(again), "y") {
			return nil
		}
	}
}

func (p *Plain) round(ctx context.Context) error {
	for {
		p.printf("Loading questions…\n")
		err := p.session.Start(ctx)
		if err == nil {
			break
		}

		var failed *trivia.FetchFailedError
		if !errors.As(err, &failed) {
			return err
		}
		p.logger.Debugw("fetch failed", "err", err)
		p.printf("%s\n", failed.UserMessage())
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line, err := p.prompt("Press enter to retry, q to quit: ")
		if err != nil {
			return err
		}
		if line == "q" {
			return errQuit
		}
	}

	for {
		snap := p.session.Snapshot()
		if snap.Phase == trivia.PhaseFinished {
			p.printf("\nYou scored %s.\n", snap.Result())
			return nil
		}

		if err := p.ask(snap); err != nil {
			return err
		}
		if err := p.session.Advance(); err != nil {
			return fmt.Errorf("failed to advance: %w", err)
		}
	}
}

func (p *Plain) ask(snap trivia.Snapshot) error {
	q := snap.Question
	p.printf("\n%s · %s · Difficulty: %s\n%s\n\n", snap.Progress(), q.Category, q.Difficulty, q.Text)
	for i, answer := range q.Answers {
		p.printf("%d) %s\n", i+1, answer)
	}

	for {
		line, err := p.prompt(fmt.Sprintf("Your answer (1-%d, q to quit): ", len(q.Answers)))
		if err != nil {
			return err
		}
		if line == "q" {
			return errQuit
		}

		n, err := strconv.Atoi(line)
		if err != nil {
			p.printf("Please enter a number between 1 and %d.\n", len(q.Answers))
			continue
		}

		outcome, err := p.session.SubmitIndex(n - 1)
		if errors.Is(err, trivia.ErrInvalidChoice) {
			p.printf("Please enter a number between 1 and %d.\n", len(q.Answers))
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to submit answer: %w", err)
		}

		if outcome.IsCorrect {
			p.printf("Correct!\n")
		} else {
			p.printf("Wrong. The answer was %d) %s.\n", outcome.CorrectIndex+1, outcome.Correct)
		}
		return nil
	}
}

func (p *Plain) prompt(text string) (string, error) {
	p.printf("%s", text)
	if !p.lines.Scan() {
		if err := p.lines.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.ToLower(strings.TrimSpace(p.lines.Text())), nil
}

func (p *Plain) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}
