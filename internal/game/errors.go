// internal/game/errors.go
//
// Errors returned by Submit.
//   - ValidationError: empty or wrong-length guess, state untouched (HTTP 400).
//   - ErrIncorrectSequence: wrong guess, game already reset (HTTP 400 + state).

package game

import (
	"errors"
	"fmt"
)

// ErrIncorrectSequence is returned by Submit when the guess does not match.
// The game has already been reset when the caller sees it.
var ErrIncorrectSequence = errors.New("Incorrect sequence. Restarting at level 1.")

// ValidationError rejects a submission without touching the state.
type ValidationError struct {
	Want int // expected length; 0 when the sequence was missing or empty
}

func (e *ValidationError) Error() string {
	if e.Want == 0 {
		return "A non-empty sequence array is required."
	}
	return fmt.Sprintf("Sequence must be exactly %d items long.", e.Want)
}

// ErrSequenceRequired is the ValidationError for a missing, non-array or empty guess.
var ErrSequenceRequired error = &ValidationError{}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
