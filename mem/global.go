package mem

// std is the process-wide bridge behind the package-level functions.
var std = New()

// Register installs b as the process-wide backend. It succeeds at most
// once per process; every later call fails with ErrAlreadyRegistered.
// Call it from main or an init path before allocation traffic starts:
// operations already in flight may still complete against the previous
// backend's memory, which is why registration cannot be undone.
func Register(b Backend) error {
	return std.Register(b)
}

// Registered reports whether a process-wide backend override is installed.
func Registered() bool {
	return std.Registered()
}

// Active returns the backend package-level allocation calls dispatch to.
func Active() Backend {
	return std.Active()
}

// Alloc returns a handle to at least size bytes with unspecified content.
func Alloc(size int) ([]byte, error) {
	return std.Alloc(size)
}

// AllocZeroed returns a handle to count*size bytes initialized to zero.
func AllocZeroed(count, size int) ([]byte, error) {
	return std.AllocZeroed(count, size)
}

// Realloc resizes the allocation behind b, preserving the leading
// min(len(b), size) bytes. See Bridge.Realloc for the ownership rules.
func Realloc(b []byte, size int) ([]byte, error) {
	return std.Realloc(b, size)
}

// Release returns b's memory to the backend. Release(nil) is a no-op.
func Release(b []byte) {
	std.Release(b)
}
