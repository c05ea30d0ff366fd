package chat

import "errors"

// AuthRequiredError is returned when an operation runs without an
// authenticated principal. No state is mutated.
type AuthRequiredError struct{}

func (AuthRequiredError) Error() string { return "you must be logged in to do that" }

var (
	// ErrSendInFlight rejects a second send while one is outstanding.
	// The caller observes no state change.
	ErrSendInFlight = errors.New("a message is already being processed")

	// ErrSessionClosed is returned after the principal changed; results
	// of in-flight work for the previous principal are discarded.
	ErrSessionClosed = errors.New("session is no longer active")

	// ErrConversationNotFound is returned when selecting or deleting an
	// ID the session does not own.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrUnknownModel rejects a model identifier outside the fixed set.
	ErrUnknownModel = errors.New("unknown model")
)

// IsAuthRequired reports whether err is the missing-principal condition.
func IsAuthRequired(err error) bool {
	var are AuthRequiredError
	return errors.As(err, &are)
}
