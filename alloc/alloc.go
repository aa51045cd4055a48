package alloc

import (
	"errors"
	"fmt"
)

// ErrAllocation signals that storage could not be acquired.
var ErrAllocation = errors.New("alloc: allocation failed")

// Allocator acquires and releases storage for elements of type T.
type Allocator[T any] interface {
	// Allocate returns a slice of length n. Errors wrap ErrAllocation.
	Allocate(n int) ([]T, error)
	// Deallocate hands back a slice obtained from Allocate.
	Deallocate(storage []T)
	// AlwaysEqual reports whether any two instances of this allocator type may
	// release each other's storage.
	AlwaysEqual() bool
}

// Heap allocates from the Go heap.
type Heap[T any] struct{}

var _ Allocator[int] = Heap[int]{}

// Allocate returns a fresh zeroed slice of length n.
func (Heap[T]) Allocate(n int) ([]T, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: invalid size %d", ErrAllocation, n)
	}
	return make([]T, n), nil
}

// Deallocate is a no-op; the garbage collector reclaims the storage.
func (Heap[T]) Deallocate([]T) {}

// AlwaysEqual is true for heap allocators.
func (Heap[T]) AlwaysEqual() bool { return true }

// Limited caps the number of elements outstanding from a base allocator.
type Limited[T any] struct {
	base  Allocator[T]
	limit int
	inUse int
}

// NewLimited wraps base with a quota of limit elements. A nil base selects Heap.
func NewLimited[T any](base Allocator[T], limit int) *Limited[T] {
	if base == nil {
		base = Heap[T]{}
	}
	return &Limited[T]{base: base, limit: limit}
}

// Allocate fails with ErrAllocation once the quota would be exceeded.
func (l *Limited[T]) Allocate(n int) ([]T, error) {
	if l.inUse+n > l.limit {
		tracer().Errorf("alloc: quota exhausted, %d of %d elements in use, %d requested", l.inUse, l.limit, n)
		return nil, fmt.Errorf("%w: quota of %d elements exhausted", ErrAllocation, l.limit)
	}
	s, err := l.base.Allocate(n)
	if err != nil {
		return nil, err
	}
	l.inUse += len(s)
	return s, nil
}

// Deallocate returns storage to the base allocator and credits the quota.
func (l *Limited[T]) Deallocate(storage []T) {
	l.inUse -= len(storage)
	l.base.Deallocate(storage)
}

// AlwaysEqual is false: quota bookkeeping is per instance.
func (l *Limited[T]) AlwaysEqual() bool { return false }

// InUse returns the number of elements currently allocated.
func (l *Limited[T]) InUse() int { return l.inUse }

// SetLimit changes the quota. Outstanding storage is not affected.
func (l *Limited[T]) SetLimit(limit int) { l.limit = limit }
