package path

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnsupportedCommand = errors.New("unsupported path command")
	ErrMalformedPath      = errors.New("malformed path")
)

// UnsupportedCommandError reports a path command outside MoveTo, LineTo,
// CubeTo and Close. Offset is the byte offset in the source path data, or
// the command index when the error comes from an already parsed Path.
type UnsupportedCommandError struct {
	Command string
	Offset  int
}

func (e *UnsupportedCommandError) Error() string {
	return fmt.Sprintf("%s %q at %d", ErrUnsupportedCommand, e.Command, e.Offset)
}

// Is makes errors.Is(err, ErrUnsupportedCommand) hold.
func (e *UnsupportedCommandError) Is(target error) bool {
	return target == ErrUnsupportedCommand
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedPath, fmt.Sprintf(format, args...))
}
