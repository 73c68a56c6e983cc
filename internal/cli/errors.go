package cli

import "errors"

// Error variables for CLI operations.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrUnknownCommand     = errors.New("unknown command")
	ErrMissingArgument    = errors.New("missing argument")
	ErrTooManyArguments   = errors.New("too many arguments")
)
