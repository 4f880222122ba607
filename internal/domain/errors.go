package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnknownPlatform = errors.New("unknown platform")
)

// ValidationError reports malformed input. It is the only error kind that is
// surfaced to the caller of a creation request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
