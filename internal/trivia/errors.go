package trivia

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchFailed matches every error returned for a failed question fetch.
	ErrFetchFailed = errors.New("fetch failed")

	ErrInvalidState    = errors.New("invalid session state")
	ErrAlreadyAnswered = errors.New("question already answered")
	ErrNotAnswered     = errors.New("question has not been answered")
	ErrInvalidChoice   = errors.New("invalid answer choice")
	ErrStaleFetch      = errors.New("fetch result belongs to an abandoned session")
)

const fetchFailedMessage = "Failed to load questions. Please try again."

// TransportError reports a network failure or a non-success HTTP status.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: server returned bad http status: %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a payload that arrived successfully but cannot be
// used: a non-zero response code, a missing result list, or questions that
// fail to normalize.
type ProtocolError struct {
	Code   int
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	msg := "invalid api response"
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (response code %d)", msg, e.Code)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// FetchFailedError is what a session surfaces when loading questions fails,
// whatever the cause.
type FetchFailedError struct {
	Err error
}

func (e *FetchFailedError) Error() string {
	if e.Err == nil {
		return fetchFailedMessage
	}
	return fmt.Sprintf("%s (%v)", fetchFailedMessage, e.Err)
}

// UserMessage is the text shown to the player.
func (e *FetchFailedError) UserMessage() string {
	return fetchFailedMessage
}

func (e *FetchFailedError) Unwrap() error { return e.Err }

func (e *FetchFailedError) Is(target error) bool {
	return target == ErrFetchFailed
}
