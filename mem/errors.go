package mem

import "errors"

var (
	// ErrOutOfMemory indicates the active backend could not satisfy an
	// allocation or resize request.
	ErrOutOfMemory = errors.New("mem: out of memory")

	// ErrInvalidSize indicates a negative size or a count*size product
	// that overflows int. Detected before any backend call.
	ErrInvalidSize = errors.New("mem: invalid size")

	// ErrAlreadyRegistered indicates a second Register call; the first
	// registration stays in effect.
	ErrAlreadyRegistered = errors.New("mem: backend already registered")

	// ErrNilBackend indicates Register was called with a nil Backend.
	ErrNilBackend = errors.New("mem: nil backend")
)
