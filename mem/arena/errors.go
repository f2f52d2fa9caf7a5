package arena

import "errors"

var (
	// ErrClosed indicates an operation on an arena after Close.
	ErrClosed = errors.New("arena: closed")

	// ErrBadOptions indicates an Options combination that cannot map a
	// single region (for example MaxBytes smaller than one page).
	ErrBadOptions = errors.New("arena: unusable options")
)
