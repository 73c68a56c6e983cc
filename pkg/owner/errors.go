package owner

import "errors"

// ErrInvalidDropMode is returned by [ParseDropMode] for unknown names.
var ErrInvalidDropMode = errors.New("invalid drop mode")
