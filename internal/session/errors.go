package session

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrBusy            = errors.New("session is busy")
	ErrGameOver        = errors.New("adventure has ended")
	ErrNotStarted      = errors.New("adventure has not started")
	ErrInvalidRequest  = errors.New("invalid request")

	// ErrAlreadyStarted is returned by Start on a session that has a scene.
	// Only a reset returns a session to the not-started state.
	ErrAlreadyStarted = errors.New("adventure already started")

	// ErrReset is returned to a request whose session was reset while the
	// request was in flight. Its result is discarded.
	ErrReset = errors.New("session was reset during the request")
)

// User-facing failure messages.
const (
	StartFailureMessage  = "The chronometer failed to align. Try again."
	ChoiceFailureMessage = "Your path was blocked by a temporal rift. Attempt the choice again."
)

// Operation names used in logs, events and errors.
const (
	OpStart  = "start"
	OpChoose = "choose"
	OpAsk    = "ask"
)

// ActionError is a failed start or choice. Message is safe to show the
// player; Err holds the cause.
type ActionError struct {
	Op      string
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}
