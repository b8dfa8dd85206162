package audio

import (
	"errors"
	"fmt"
	"strings"
)

// Record errors.
var (
	ErrRecInProgress       = errors.New("offline record already in progress")
	ErrNotStopped          = errors.New("system must be stopped to record")
	ErrMaxDurationExceeded = errors.New("offline record exceeded max duration")
	ErrNoRecFunc           = errors.New("offline record needs a function")
)

// Command errors.
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidCommand = errors.New("invalid command")
)

// CommandError reports a command that could not be applied.
type CommandError struct {
	Command []string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q: %v", strings.Join(e.Command, " "), e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func commandError(command []string, err error) error {
	return &CommandError{Command: command, Err: err}
}
