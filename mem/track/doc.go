// Package track provides instrumentation wrappers for mem backends.
//
// # Overview
//
// Two composable wrappers, both implementing mem.Backend around an inner
// backend:
//
//   - Tracker counts traffic: allocations, releases, resizes, failures,
//     live handles, live bytes, and the peak byte high-water mark.
//   - Limiter enforces a byte quota, failing requests that would push
//     live bytes past a fixed maximum.
//
// Both are lock-free; every counter is an atomic, so wrapping a backend
// adds a handful of atomic operations per call and no contention points.
// Concurrent use is exactly as safe as the inner backend allows: the
// wrappers bring no synchronization of their own and need none.
//
// # Usage
//
// Watching a backend:
//
//	tr := track.Wrap(mem.SystemBackend{})
//	if err := mem.Register(tr); err != nil {
//	    return err
//	}
//	// ... traffic ...
//	s := tr.Stats()
//	fmt.Printf("live=%d peak=%d\n", s.LiveBytes, s.PeakBytes)
//
// Capping a backend, with accounting on top:
//
//	tr := track.Wrap(track.Limit(mem.SystemBackend{}, 64<<20))
//
// # Leak Checking
//
// Tracker.Balanced reports whether every allocation has been released:
// zero live handles and zero live bytes. Tests wrap their backend,
// run the workload, and assert Balanced at the end.
//
// # Accounting Rules
//
// Live bytes move by handle length: +len on a successful allocation,
// -len on release, and the length difference on a successful resize.
// Failed operations count in Failed and leave the live figures alone:
// the shipped backends keep the original handle valid when a resize
// fails, and the accounting matches that.
package track
