package sorted

import (
	"fmt"
	"iter"

	"github.com/npillmayer/tiered"
	"golang.org/x/exp/constraints"
)

// Set is a sorted set of values of type T.
type Set[T any] struct {
	seq *tiered.Sequence[T]
	cmp Comparator[T]
}

// NewSet creates an empty set ordered by cmp. The sequence configuration is
// used as given, except that back-value caching is always enabled.
func NewSet[T any](cmp Comparator[T], cfg tiered.Config[T]) (*Set[T], error) {
	if cmp == nil {
		return nil, fmt.Errorf("%w: set without comparator", tiered.ErrInvalidConfig)
	}
	cfg.CacheBack = true
	seq, err := tiered.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Set[T]{seq: seq, cmp: cmp}, nil
}

// NewOrderedSet creates an empty set using the natural order of T.
func NewOrderedSet[T constraints.Ordered](cfg tiered.Config[T]) (*Set[T], error) {
	return NewSet[T](Ordered[T]{}, cfg)
}

func (s *Set[T]) search(v T) (int, bool) {
	return s.seq.SearchFunc(func(e T) int { return s.cmp.Compare(e, v) })
}

// Len returns the number of elements.
func (s *Set[T]) Len() int {
	return s.seq.Len()
}

// Insert adds v. It reports false if an equal element is already present.
func (s *Set[T]) Insert(v T) (bool, error) {
	pos, found := s.search(v)
	if found {
		return false, nil
	}
	if err := s.seq.Insert(pos, v); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the element equal to v. It reports whether there was one.
func (s *Set[T]) Delete(v T) bool {
	pos, found := s.search(v)
	if !found {
		return false
	}
	_, err := s.seq.EraseAt(pos)
	return err == nil
}

// Contains reports whether an element equal to v is present.
func (s *Set[T]) Contains(v T) bool {
	_, found := s.search(v)
	return found
}

// Find returns the position of the element equal to v.
func (s *Set[T]) Find(v T) (int, bool) {
	return s.search(v)
}

// LowerBound returns the position of the first element not less than v.
func (s *Set[T]) LowerBound(v T) int {
	pos, _ := s.search(v)
	return pos
}

// UpperBound returns the position of the first element greater than v.
func (s *Set[T]) UpperBound(v T) int {
	pos, _ := s.seq.SearchFunc(func(e T) int {
		if s.cmp.Compare(e, v) <= 0 {
			return -1
		}
		return 1
	})
	return pos
}

// At returns the element at position i in sort order.
func (s *Set[T]) At(i int) (T, error) {
	return s.seq.At(i)
}

// Min returns the smallest element, if any.
func (s *Set[T]) Min() (T, bool) {
	v, err := s.seq.Front()
	return v, err == nil
}

// Max returns the largest element, if any.
func (s *Set[T]) Max() (T, bool) {
	v, err := s.seq.Back()
	return v, err == nil
}

// All returns an iterator over the elements in ascending order.
func (s *Set[T]) All() iter.Seq[T] {
	return s.seq.Values()
}

// Clear removes all elements.
func (s *Set[T]) Clear() {
	s.seq.Clear()
}

// Check validates the underlying sequence and the strict ordering of the
// elements.
func (s *Set[T]) Check() error {
	if err := s.seq.Check(); err != nil {
		return err
	}
	return checkOrder(s.seq, func(a, b T) int { return s.cmp.Compare(a, b) })
}

func checkOrder[T any](seq *tiered.Sequence[T], cmp func(a, b T) int) error {
	var prev T
	var err error
	seq.ForEach(func(pos int, v T) bool {
		if pos > 0 && cmp(prev, v) >= 0 {
			err = fmt.Errorf("%w: elements at %d and %d out of order", tiered.ErrInvariant, pos-1, pos)
			return false
		}
		prev = v
		return true
	})
	return err
}
