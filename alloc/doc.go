/*
Package alloc defines the storage capability used by tiered sequences to
acquire and release bucket arrays, together with a few implementations.

An Allocator hands out slices of a requested length and takes them back when a
bucket is destroyed. Allocation failure is reported as an error wrapping
ErrAllocation; it is never swallowed. AlwaysEqual tells containers whether
storage obtained from one allocator instance may be released through another
instance of the same type.

Rebinding an allocator to another element type is done by instantiating the
generic allocator for that type, e.g. Heap[int]{} and Heap[string]{}.

Implementations:

  - Heap draws from the Go heap and never fails for sane sizes.
  - Pool recycles bucket arrays per capacity class with an object pool and
    fails once a class is exhausted.
  - Limited wraps another allocator with an element quota, mostly to exercise
    allocation failure paths.

# BSD License

Copyright (c) Norbert Pillmayer <norbert@pillmayer.com>

Please refer to the License file for details.
*/
package alloc

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'tiered'
func tracer() tracing.Trace {
	return tracing.Select("tiered")
}
