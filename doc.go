/*
Package tiered implements a bucketed random-access sequence, sometimes called
a tiered vector.

A Sequence behaves like a double-ended queue with cheap positional editing.
Its elements live in a chain of bounded ring buffers (package ring), the
buckets. Pushing or popping at either end touches a single bucket. Inserting or
erasing in the middle moves at most about one bucket worth of elements,
instead of shifting the whole tail as a slice would:

  - if the target bucket has room, the ring shifts the shorter side of the
    position inside that bucket;
  - if it is full, one element slides into a neighbouring bucket with room,
    preferring the side closer to the position;
  - if neither neighbour has room, the bucket splits into two halves.

Erasure mirrors this: an interior bucket falling below half its capacity
borrows from a neighbour or merges with it.

Bucket capacities come from a layout policy (package layout). The Speed layout
uses one power-of-two capacity and answers position lookups with a shift and a
mask while all interior buckets are full. The Memory layout grows bucket
capacities geometrically and locates positions by binary search over bucket
start positions. Both yield the same observable sequence.

Bucket storage is obtained from an allocator (package alloc). Allocation
failures are returned as errors wrapping ErrAllocation; the operation which hit
the failure rolls back the elements it already added.

Access comes in two tiers: At and Set check their position and return
ErrIndexOutOfRange, Get and SetUnchecked do not. Building with the
`tiered_debug` tag turns precondition violations on the unchecked tier into
panics.

Iterators are positions bound to a (bucket, offset) pair. They are invalidated
by any insertion or erasure, except for the one returned by the mutating call.

A Sequence is not safe for concurrent use.

Sorted containers built on top of Sequence live in package sorted.

# BSD License

Copyright (c) Norbert Pillmayer <norbert@pillmayer.com>

Please refer to the License file for details.
*/
package tiered

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'tiered'
func tracer() tracing.Trace {
	return tracing.Select("tiered")
}

func must(condition bool, msg string) {
	if !condition {
		panic(msg)
	}
}
