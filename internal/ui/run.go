package ui

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jbpratt/quiz/internal/trivia"
)

// RunLive runs the full-screen UI until the player quits or ctx is canceled.
func RunLive(ctx context.Context, logger *zap.SugaredLogger, session *trivia.Session, in io.Reader, out io.Writer, opts Options) error {
	model := NewModel(ctx, logger, session, opts)
	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)

	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("live ui: %w", err)
	}
	return nil
}
