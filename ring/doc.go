/*
Package ring provides the bounded circular buffer used as a bucket by tiered
sequences.

A Bucket holds one contiguous run of a logical sequence inside a fixed-size
backing array. Pushing and popping at either end is O(1) and never moves
existing elements. Insertion and erasure in the middle shift whichever side of
the position is shorter, so the cost is bounded by half the bucket capacity.

Buckets never grow. The owner (usually a tiered.Sequence) is responsible for
checking IsFull before pushing; violating this is a precondition failure which
is only detected in builds using the `tiered_debug` tag.

Two optional behaviours are selected with Flags:

  - CacheBack keeps a copy of the logical last element in the bucket header,
    so ordered containers can compare against a bucket without touching its
    backing array.
  - Relocatable lets the bucket move runs of elements with bulk copies and
    leave stale copies in vacated slots. Without it, elements are moved one
    by one and vacated slots are cleared, which releases references for the
    garbage collector.

# BSD License

Copyright (c) Norbert Pillmayer <norbert@pillmayer.com>

Please refer to the License file for details.
*/
package ring

func assert(condition bool, msg string) {
	if !condition {
		panic(msg)
	}
}
