package purge

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidOptions = errors.New("invalid purge options")
)
