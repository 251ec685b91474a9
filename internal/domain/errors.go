package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrJobTerminal      = errors.New("job already terminal")
	ErrProviderFailure  = errors.New("provider failure")
	ErrDuplicateAccount = errors.New("account already exists")
)
