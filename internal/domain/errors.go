package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when no trusted member identity is present.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidInput marks malformed or incomplete requests.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is the parent of every missing-entity error.
	ErrNotFound = errors.New("not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = fmt.Errorf("quiz %w", ErrNotFound)
	// ErrMemberNotFound indicates the member document does not exist.
	ErrMemberNotFound = fmt.Errorf("member %w", ErrNotFound)
	// ErrDuplicateCompletion is a soft condition: the member was already credited for the quiz.
	ErrDuplicateCompletion = errors.New("quiz already completed")
	// ErrVersionConflict is returned by stores when a member changed since it was read.
	ErrVersionConflict = errors.New("member version conflict")
)

// InvalidInput wraps ErrInvalidInput with a message that is safe to show to clients.
func InvalidInput(msg string) error {
	return &inputError{msg: msg}
}

type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }

func (e *inputError) Unwrap() error { return ErrInvalidInput }

// ErrInvalidToken is returned when an email verification link is unknown or expired.
var ErrInvalidToken = fmt.Errorf("verification token %w", ErrInvalidInput)
