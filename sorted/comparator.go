/*
Package sorted provides ordered containers stored flat in a tiered sequence.

Set and Map keep their elements sorted in a tiered.Sequence with per-bucket
back-value caching enabled. A lookup first binary-searches the cached last
element of every bucket, then binary-searches inside a single bucket, so only
one bucket's storage is touched. Insertion and deletion shift at most about one
bucket worth of elements.

# BSD License

Copyright (c) Norbert Pillmayer <norbert@pillmayer.com>

Please refer to the License file for details.
*/
package sorted

import "golang.org/x/exp/constraints"

// Comparator defines a total order over T. Compare returns a negative number
// if a sorts before b, a positive number if a sorts after b and 0 otherwise.
type Comparator[T any] interface {
	Compare(a, b T) int
}

// Func adapts a plain function to a Comparator.
type Func[T any] func(a, b T) int

// Compare calls f(a, b).
func (f Func[T]) Compare(a, b T) int {
	return f(a, b)
}

// Ordered is the natural order of T.
type Ordered[T constraints.Ordered] struct{}

// Compare orders a and b using < and >.
func (Ordered[T]) Compare(a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// NoOrder considers all values equal. A Set using it holds at most one
// element.
type NoOrder[T any] struct{}

// Compare always returns 0.
func (NoOrder[T]) Compare(T, T) int {
	return 0
}
