// Package pool provides a size-class pooled backend for the mem bridge.
//
// # Overview
//
// A Pool rounds every request up to a size class and serves it from that
// class's sync.Pool. Released buffers return to their class and get
// handed out again, so steady-state alloc/release traffic stops growing
// the heap and stops feeding the garbage collector. Requests larger than
// the largest class bypass the pools and go straight to a fallback
// backend.
//
// # Size Classes
//
// The class table is computed from a Config: linear spacing for small
// sizes (8, 16, 24, ... by SmallIncrement) and geometric spacing above
// SmallMax (growing by GrowthFactor up to MaxSize). Three predefined
// tables cover the usual tradeoffs:
//
//   - ConfigFineGrained: many classes, least internal fragmentation
//   - ConfigBalanced: the default, ~40 classes up to 16 KiB
//   - ConfigCoarse: few classes, fastest lookup, most slack per buffer
//
// Class lookup is a binary search over at most a few dozen capacities.
//
// # Usage
//
//	p, err := pool.New(nil)
//	if err != nil {
//	    return err
//	}
//	if err := mem.Register(p); err != nil {
//	    return err
//	}
//
// # Capacity and Identity
//
// A handle's length is the requested size; its capacity is the class
// capacity. Release finds the owning class by capacity, so handles must
// come back whole, not re-sliced. The bridge already imposes the same
// ownership rule. Buffers whose capacity matches no class (fallback
// allocations, foreign handles) route to the fallback's Release and
// never enter a class pool.
//
// # Thread Safety
//
// All operations are safe for concurrent use. Classes are sync.Pools
// and statistics are atomic counters; there is no pool-wide lock.
package pool
