package services

import (
	"errors"
	"fmt"
)

// ErrRejected is the root of all content-validation failures. Handlers map
// anything wrapping it to a 422 with the specific reason string.
var ErrRejected = errors.New("rejected")

var (
	ErrTooLong       = fmt.Errorf("%w: too long", ErrRejected)
	ErrTooShort      = fmt.Errorf("%w: too short", ErrRejected)
	ErrProfanity     = fmt.Errorf("%w: profanity detected", ErrRejected)
	ErrSourcePair    = fmt.Errorf("%w: both source title and URL are required", ErrRejected)
	ErrUnsafeLink    = fmt.Errorf("%w: unsafe link", ErrRejected)
	ErrScoreRange    = fmt.Errorf("%w: score must be between 0 and 100", ErrRejected)
	ErrUsernameTaken = fmt.Errorf("%w: username is already taken", ErrRejected)
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrAccessDenied    = errors.New("access denied")
)
