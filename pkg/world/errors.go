package world

import (
	"errors"
	"fmt"
)

// ActionFailed is the user-visible failure signal. Command and script logic
// raise it to abort the current action with a message; the dispatch
// boundary writes the message to the client and carries on. State must not
// be mutated after the point where an ActionFailed can still occur.
type ActionFailed struct {
	Msg string
}

func (e *ActionFailed) Error() string { return e.Msg }

// Failf builds an ActionFailed with a formatted message.
func Failf(format string, args ...any) error {
	return &ActionFailed{Msg: fmt.Sprintf(format, args...)}
}

// AsActionFailed extracts an ActionFailed from an error chain.
func AsActionFailed(err error) (*ActionFailed, bool) {
	var af *ActionFailed
	if errors.As(err, &af) {
		return af, true
	}
	return nil, false
}
