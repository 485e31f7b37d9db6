package trivia

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Phase is the lifecycle position of a session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	// PhasePresenting shows the current question and accepts one answer.
	PhasePresenting
	// PhaseAnswered locks the current question until the player advances.
	PhaseAnswered
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhasePresenting:
		return "presenting"
	case PhaseAnswered:
		return "answered"
	case PhaseFinished:
		return "finished"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Ticket identifies one fetch. A ticket whose generation no longer matches
// the session is stale and its result is discarded.
type Ticket struct {
	Generation uint64
	ID         uuid.UUID
	Request    Request
}

// Session is a single player's quiz. It is safe to complete a fetch from a
// different goroutine than the one driving the other operations.
type Session struct {
	mu         sync.Mutex
	logger     *zap.SugaredLogger
	source     Source
	normalizer *Normalizer
	request    Request

	phase      Phase
	generation uint64
	id         uuid.UUID
	questions  []*Question
	current    int
	score      int
	outcome    *Outcome
	err        error
}

type SessionOption func(*Session)

func WithNormalizer(n *Normalizer) SessionOption {
	return func(s *Session) { s.normalizer = n }
}

func WithRequest(req Request) SessionOption {
	return func(s *Session) { s.request = req }
}

func NewSession(logger *zap.SugaredLogger, source Source, opts ...SessionOption) *Session {
	s := &Session{
		logger:     logger,
		source:     source,
		normalizer: NewNormalizer(),
		request:    DefaultRequest(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start resets the session and loads a new batch of questions, blocking until
// the fetch completes.
func (s *Session) Start(ctx context.Context) error {
	t := s.Begin()
	raw, err := s.Fetch(ctx, t)
	return s.Complete(t, raw, err)
}

// Begin resets the session and moves it to loading. The returned ticket must
// be handed back to Complete together with the fetch result.
func (s *Session) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clear()
	s.phase = PhaseLoading
	s.id = uuid.New()

	s.logger.Infow("loading questions", "session", s.id, "generation", s.generation, "request", s.request)
	return Ticket{Generation: s.generation, ID: s.id, Request: s.request}
}

// Fetch asks the source for the questions named by t. It does not touch
// session state and may run on any goroutine.
func (s *Session) Fetch(ctx context.Context, t Ticket) ([]RawQuestion, error) {
	return s.source.Fetch(ctx, t.Request)
}

// Complete installs the result of the fetch started by t. Results for stale
// tickets are dropped with ErrStaleFetch. Any failure, including a batch that
// fails to normalize, returns the session to idle with a FetchFailedError.
func (s *Session) Complete(t Ticket, raw []RawQuestion, fetchErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Generation != s.generation || s.phase != PhaseLoading {
		s.logger.Infow("discarding stale fetch", "session", t.ID, "generation", t.Generation, "current", s.generation)
		return ErrStaleFetch
	}

	if fetchErr != nil {
		return s.fail(fetchErr)
	}

	if len(raw) == 0 {
		return s.fail(&ProtocolError{Reason: "server returned no results"})
	}

	questions, err := s.normalizer.Normalize(raw)
	if err != nil {
		return s.fail(&ProtocolError{Reason: "failed to normalize questions", Err: err})
	}

	s.questions = questions
	s.current = 0
	s.phase = PhasePresenting
	s.logger.Infow("questions loaded", "session", s.id, "count", len(questions))
	return nil
}

func (s *Session) fail(cause error) error {
	var failed *FetchFailedError
	if !errors.As(cause, &failed) {
		failed = &FetchFailedError{Err: cause}
	}

	id := s.id
	s.clear()
	s.err = failed
	s.logger.Warnw("failed to load questions", "session", id, "err", cause)
	return failed
}

// Submit answers the current question with the given option text. Only the
// first answer per question counts; later calls return ErrAlreadyAnswered and
// the first outcome.
func (s *Session) Submit(selected string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submit(selected)
}

// SubmitIndex answers with the option at position i of the current question.
func (s *Session) SubmitIndex(i int) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhasePresenting || s.phase == PhaseAnswered {
		answers := s.questions[s.current].Answers
		if i < 0 || i >= len(answers) {
			return Outcome{}, fmt.Errorf("%w: %d is not between 1 and %d", ErrInvalidChoice, i+1, len(answers))
		}
		return s.submit(answers[i])
	}
	return s.submit("")
}

func (s *Session) submit(selected string) (Outcome, error) {
	switch s.phase {
	case PhasePresenting:
	case PhaseAnswered:
		s.logger.Debugw("ignoring repeated answer", "session", s.id, "index", s.current, "selected", selected)
		return *s.outcome, ErrAlreadyAnswered
	default:
		return Outcome{}, fmt.Errorf("%w: cannot answer while %s", ErrInvalidState, s.phase)
	}

	q := s.questions[s.current]
	o := newOutcome(q, selected)
	if o.IsCorrect {
		s.score++
	}
	s.outcome = &o
	s.phase = PhaseAnswered

	s.logger.Infow("answer submitted",
		"session", s.id,
		"index", s.current,
		"selected", selected,
		"correct", o.IsCorrect,
		"score", s.score,
	)
	return o, nil
}

// Advance moves past an answered question, finishing the session after the
// last one.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case PhaseAnswered:
	case PhasePresenting:
		return ErrNotAnswered
	default:
		return fmt.Errorf("%w: cannot advance while %s", ErrInvalidState, s.phase)
	}

	s.outcome = nil
	if s.current+1 < len(s.questions) {
		s.current++
		s.phase = PhasePresenting
		return nil
	}

	s.phase = PhaseFinished
	s.logger.Infow("quiz finished", "session", s.id, "score", s.score, "total", len(s.questions))
	return nil
}

// Reset abandons the session, including any fetch in flight.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Infow("resetting session", "session", s.id, "phase", s.phase)
	s.clear()
}

// clear empties every field and invalidates outstanding tickets.
func (s *Session) clear() {
	s.generation++
	s.phase = PhaseIdle
	s.id = uuid.Nil
	s.questions = nil
	s.current = 0
	s.score = 0
	s.outcome = nil
	s.err = nil
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Snapshot copies the observable state of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Phase:     s.phase,
		SessionID: s.id,
		Index:     s.current,
		Total:     len(s.questions),
		Score:     s.score,
		Err:       s.err,
	}
	if s.phase == PhasePresenting || s.phase == PhaseAnswered {
		snap.Question = s.questions[s.current].clone()
	}
	if s.outcome != nil {
		o := *s.outcome
		snap.Outcome = &o
	}
	return snap
}

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	Phase     Phase
	SessionID uuid.UUID
	Question  *Question
	Index     int
	Total     int
	Score     int
	Outcome   *Outcome
	Err       error
}

func (s Snapshot) Progress() string {
	return fmt.Sprintf("Question %d of %d", s.Index+1, s.Total)
}

func (s Snapshot) Result() string {
	return fmt.Sprintf("%d of %d", s.Score, s.Total)
}

// Mark is how an answer option should be highlighted once answered.
type Mark int

const (
	MarkNone Mark = iota
	MarkCorrect
	MarkIncorrect
)

// Outcome describes an answered question.
type Outcome struct {
	Selected      string
	SelectedIndex int
	Correct       string
	CorrectIndex  int
	IsCorrect     bool
}

func newOutcome(q *Question, selected string) Outcome {
	return Outcome{
		Selected:      selected,
		SelectedIndex: slices.Index(q.Answers, selected),
		Correct:       q.Correct,
		CorrectIndex:  q.CorrectIndex(),
		IsCorrect:     selected == q.Correct,
	}
}

// Mark reports how option should be highlighted.
func (o Outcome) Mark(option string) Mark {
	switch option {
	case o.Correct:
		return MarkCorrect
	case o.Selected:
		return MarkIncorrect
	}
	return MarkNone
}
