// Package ui renders a trivia session in the terminal.
package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jbpratt/quiz/internal/trivia"
)

// Model is the Bubble Tea model driving a trivia session.
type Model struct {
	ctx     context.Context
	logger  *zap.SugaredLogger
	session *trivia.Session
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	pending trivia.Ticket
	cursor  int
	status  string
	width   int
	noColor bool
	start   bool
}

// Options configures the model.
type Options struct {
	NoColor bool
	// AutoStart begins loading as soon as the program starts.
	AutoStart bool
}

// NewModel constructs a model for session. ctx bounds the question fetches.
func NewModel(ctx context.Context, logger *zap.SugaredLogger, session *trivia.Session, opts Options) Model {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	if !opts.NoColor {
		s.Style = spinnerStyle
	}
	return Model{
		ctx:     ctx,
		logger:  logger,
		session: session,
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: s,
		noColor: opts.NoColor,
		start:   opts.AutoStart,
	}
}

// fetchedMsg carries the result of a question fetch back to Update.
type fetchedMsg struct {
	ticket trivia.Ticket
	raw    []trivia.RawQuestion
	err    error
}

func fetch(ctx context.Context, session *trivia.Session, ticket trivia.Ticket) tea.Cmd {
	return func() tea.Msg {
		raw, err := session.Fetch(ctx, ticket)
		return fetchedMsg{ticket: ticket, raw: raw, err: err}
	}
}

// Init starts loading when AutoStart is set.
func (m Model) Init() tea.Cmd {
	if m.start {
		return m.startCmd()
	}
	return nil
}

func (m Model) startCmd() tea.Cmd {
	return func() tea.Msg { return startMsg{} }
}

type startMsg struct{}

// Update handles key presses, fetch results and spinner ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case spinner.TickMsg:
		if m.session.Phase() != trivia.PhaseLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case startMsg:
		return m.begin()
	case fetchedMsg:
		return m.fetched(msg), nil
	case tea.KeyMsg:
		return m.key(msg)
	}
	return m, nil
}

func (m Model) begin() (Model, tea.Cmd) {
	m.pending = m.session.Begin()
	m.cursor = 0
	m.status = ""
	return m, tea.Batch(m.spinner.Tick, fetch(m.ctx, m.session, m.pending))
}

func (m Model) fetched(msg fetchedMsg) Model {
	err := m.session.Complete(msg.ticket, msg.raw, msg.err)

	var failed *trivia.FetchFailedError
	switch {
	case errors.Is(err, trivia.ErrStaleFetch):
	case errors.As(err, &failed):
		m.status = failed.UserMessage()
	case err != nil:
		m.logger.Errorw("unexpected error completing fetch", "err", err)
		m.status = err.Error()
	default:
		m.cursor = 0
	}
	return m
}

func (m Model) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Restart) {
		m.session.Reset()
		m.cursor = 0
		m.status = ""
		return m, nil
	}

	switch m.session.Phase() {
	case trivia.PhaseIdle, trivia.PhaseFinished:
		if key.Matches(msg, m.keys.Start, m.keys.Submit) {
			return m.begin()
		}
	case trivia.PhasePresenting:
		return m.presenting(msg)
	case trivia.PhaseAnswered:
		if key.Matches(msg, m.keys.Next) {
			m.advance()
		}
	}
	// start is disabled while loading
	return m, nil
}

func (m Model) presenting(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.session.Snapshot()
	options := len(snap.Question.Answers)

	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = (m.cursor - 1 + options) % options
	case key.Matches(msg, m.keys.Down):
		m.cursor = (m.cursor + 1) % options
	case key.Matches(msg, m.keys.Choose):
		choice := int(strings.TrimSpace(msg.String())[0] - '1')
		if choice < options {
			m.cursor = choice
			m.submit()
		}
	case key.Matches(msg, m.keys.Submit):
		m.submit()
	case key.Matches(msg, m.keys.Next):
		m.status = "Pick an answer first."
	}
	return m, nil
}

func (m *Model) submit() {
	if _, err := m.session.SubmitIndex(m.cursor); err != nil {
		m.logger.Debugw("answer rejected", "err", err)
		return
	}
	m.status = ""
}

func (m *Model) advance() {
	if err := m.session.Advance(); err != nil {
		m.logger.Debugw("advance rejected", "err", err)
		return
	}
	m.cursor = 0
	m.status = ""
}

// View renders the current phase of the session.
func (m Model) View() string {
	return render(m)
}
