package tiered

import (
	"fmt"
	"iter"

	"github.com/npillmayer/tiered/layout"
)

// Sequence is a random-access sequence of values of type T, stored in a chain
// of bounded ring buckets.
//
// The zero value is an empty sequence using the default configuration.
type Sequence[T any] struct {
	m    manager[T]
	cfg  Config[T]
	init bool
}

// New creates an empty sequence. It fails with ErrInvalidConfig if the
// configuration is unusable.
func New[T any](cfg Config[T]) (*Sequence[T], error) {
	s := &Sequence[T]{}
	if err := s.configure(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// FromSlice creates a sequence holding a copy of vals.
func FromSlice[T any](cfg Config[T], vals []T) (*Sequence[T], error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err = s.PushBack(vals...); err != nil {
		return nil, err
	}
	return s, nil
}

// Repeat creates a sequence holding n copies of v.
func Repeat[T any](cfg Config[T], n int, v T) (*Sequence[T], error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err = s.Resize(n, v); err != nil {
		return nil, err
	}
	return s, nil
}

// Collect creates a sequence from the values yielded by seq.
func Collect[T any](cfg Config[T], seq iter.Seq[T]) (*Sequence[T], error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	for v := range seq {
		if err = s.m.pushBack(v); err != nil {
			s.m.clear()
			return nil, err
		}
	}
	return s, nil
}

func (s *Sequence[T]) configure(cfg Config[T]) error {
	cfg = cfg.normalized()
	policy, err := cfg.validate()
	if err != nil {
		return err
	}
	s.cfg = cfg
	s.m = newManager(policy, cfg.Allocator, cfg.flags())
	s.init = true
	tracer().Debugf("tiered: new sequence, layout=%s, max bucket capacity=%d",
		policy.Kind(), policy.MaxCapacity())
	return nil
}

// lazy sets up a zero-value Sequence.
func (s *Sequence[T]) lazy() {
	if !s.init {
		if err := s.configure(Config[T]{}); err != nil {
			panic(err)
		}
	}
}

// Config returns the effective configuration.
func (s *Sequence[T]) Config() Config[T] {
	s.lazy()
	return s.cfg
}

// Layout returns the active layout policy.
func (s *Sequence[T]) Layout() layout.Kind {
	return s.cfg.Layout
}

// Len returns the number of elements.
func (s *Sequence[T]) Len() int {
	return s.m.size
}

// IsEmpty reports whether the sequence holds no elements.
func (s *Sequence[T]) IsEmpty() bool {
	return s.m.size == 0
}

// BucketCount returns the number of buckets in use.
func (s *Sequence[T]) BucketCount() int {
	return len(s.m.buckets)
}

// BucketSizes returns the element count of every bucket, front to back.
func (s *Sequence[T]) BucketSizes() []int {
	sizes := make([]int, len(s.m.buckets))
	for i, b := range s.m.buckets {
		sizes[i] = b.Len()
	}
	return sizes
}

func (s *Sequence[T]) outOfRange(i, n int) error {
	return fmt.Errorf("%w: position %d, length %d", ErrIndexOutOfRange, i, n)
}

// --- Element access --------------------------------------------------------

// At returns the element at position i.
func (s *Sequence[T]) At(i int) (T, error) {
	if i < 0 || i >= s.m.size {
		var zero T
		return zero, s.outOfRange(i, s.m.size)
	}
	return s.m.at(i), nil
}

// Get returns the element at position i without a range check. i must be in
// [0, Len()).
func (s *Sequence[T]) Get(i int) T {
	if debugChecks {
		must(i >= 0 && i < s.m.size, "tiered.Get: position out of range")
	}
	return s.m.at(i)
}

// Set overwrites the element at position i.
func (s *Sequence[T]) Set(i int, v T) error {
	if i < 0 || i >= s.m.size {
		return s.outOfRange(i, s.m.size)
	}
	s.m.set(i, v)
	return nil
}

// SetUnchecked overwrites the element at position i without a range check.
func (s *Sequence[T]) SetUnchecked(i int, v T) {
	if debugChecks {
		must(i >= 0 && i < s.m.size, "tiered.SetUnchecked: position out of range")
	}
	s.m.set(i, v)
}

// Front returns the first element, or ErrEmpty.
func (s *Sequence[T]) Front() (T, error) {
	if s.m.size == 0 {
		var zero T
		return zero, ErrEmpty
	}
	return s.m.buckets[0].Front(), nil
}

// Back returns the last element, or ErrEmpty.
func (s *Sequence[T]) Back() (T, error) {
	if s.m.size == 0 {
		var zero T
		return zero, ErrEmpty
	}
	return s.m.buckets[s.m.last()].Back(), nil
}

// --- End operations --------------------------------------------------------

// PushBack appends vals in order. If an allocation fails, the values appended
// by this call are removed again and the error is returned.
func (s *Sequence[T]) PushBack(vals ...T) error {
	s.lazy()
	for k, v := range vals {
		if err := s.m.pushBack(v); err != nil {
			for ; k > 0; k-- {
				s.m.popBack()
			}
			return err
		}
	}
	return nil
}

// PushFront prepends vals as a block, i.e. vals[0] becomes the first element.
// If an allocation fails, the values prepended by this call are removed again.
func (s *Sequence[T]) PushFront(vals ...T) error {
	s.lazy()
	for k := len(vals) - 1; k >= 0; k-- {
		if err := s.m.pushFront(vals[k]); err != nil {
			for ; k < len(vals)-1; k++ {
				s.m.popFront()
			}
			return err
		}
	}
	return nil
}

// PopBack removes and returns the last element. It returns false on an empty
// sequence.
func (s *Sequence[T]) PopBack() (T, bool) {
	if s.m.size == 0 {
		var zero T
		return zero, false
	}
	return s.m.popBack(), true
}

// PopFront removes and returns the first element. It returns false on an
// empty sequence.
func (s *Sequence[T]) PopFront() (T, bool) {
	if s.m.size == 0 {
		var zero T
		return zero, false
	}
	return s.m.popFront(), true
}

// --- Positional editing ----------------------------------------------------

// Insert puts vals at position pos in [0, Len()], keeping their order. If an
// allocation fails, the values inserted by this call are erased again.
func (s *Sequence[T]) Insert(pos int, vals ...T) error {
	if pos < 0 || pos > s.m.size {
		return s.outOfRange(pos, s.m.size)
	}
	s.lazy()
	for k, v := range vals {
		if err := s.m.insert(pos+k, v); err != nil {
			for ; k > 0; k-- {
				s.m.erase(pos)
			}
			return err
		}
	}
	return nil
}

// EraseAt removes and returns the element at position pos.
func (s *Sequence[T]) EraseAt(pos int) (T, error) {
	if pos < 0 || pos >= s.m.size {
		var zero T
		return zero, s.outOfRange(pos, s.m.size)
	}
	return s.m.erase(pos), nil
}

// EraseRange removes the elements at positions [first, last).
func (s *Sequence[T]) EraseRange(first, last int) error {
	if first < 0 || first > last || last > s.m.size {
		return fmt.Errorf("%w: range [%d,%d), length %d", ErrIndexOutOfRange, first, last, s.m.size)
	}
	var zero T
	switch {
	case first == last:
	case last == s.m.size:
		return s.m.resize(first, zero)
	case first == 0:
		return s.m.resizeFront(s.m.size-last, zero)
	default:
		for k := first; k < last; k++ {
			s.m.erase(first)
		}
	}
	return nil
}

// Resize grows or shrinks the sequence at the back to n elements, filling new
// slots with fill.
func (s *Sequence[T]) Resize(n int, fill T) error {
	if n < 0 {
		return fmt.Errorf("%w: negative length %d", ErrIndexOutOfRange, n)
	}
	s.lazy()
	return s.m.resize(n, fill)
}

// ResizeFront grows or shrinks the sequence at the front to n elements,
// filling new slots with fill.
func (s *Sequence[T]) ResizeFront(n int, fill T) error {
	if n < 0 {
		return fmt.Errorf("%w: negative length %d", ErrIndexOutOfRange, n)
	}
	s.lazy()
	return s.m.resizeFront(n, fill)
}

// Assign replaces the content with n copies of v.
func (s *Sequence[T]) Assign(n int, v T) error {
	if n < 0 {
		return fmt.Errorf("%w: negative length %d", ErrIndexOutOfRange, n)
	}
	s.Clear()
	return s.Resize(n, v)
}

// AssignSlice replaces the content with a copy of vals.
func (s *Sequence[T]) AssignSlice(vals []T) error {
	s.Clear()
	return s.PushBack(vals...)
}

// Clear removes all elements and returns all bucket storage to the allocator.
func (s *Sequence[T]) Clear() {
	s.m.clear()
}

// ShrinkToFit packs the elements into as few buckets as possible and returns
// the freed storage to the allocator.
func (s *Sequence[T]) ShrinkToFit() {
	if s.m.size > 0 {
		s.m.shrinkToFit()
	}
}

// Clone returns a deep copy of the sequence. The copy uses the same allocator
// and bucket capacities.
func (s *Sequence[T]) Clone() (*Sequence[T], error) {
	s.lazy()
	m, err := s.m.clone()
	if err != nil {
		return nil, err
	}
	return &Sequence[T]{m: m, cfg: s.cfg, init: true}, nil
}

// Swap exchanges the contents of s and other, allocators included.
func (s *Sequence[T]) Swap(other *Sequence[T]) {
	*s, *other = *other, *s
}

// --- Traversal -------------------------------------------------------------

// All returns an iterator over positions and values, front to back.
// The sequence must not be modified during the iteration.
func (s *Sequence[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		s.m.forEach(yield)
	}
}

// Values returns an iterator over the values, front to back.
func (s *Sequence[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		s.m.forEachSegment(func(seg []T) bool {
			for _, v := range seg {
				if !yield(v) {
					return false
				}
			}
			return true
		})
	}
}

// Backward returns an iterator over positions and values, back to front.
func (s *Sequence[T]) Backward() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		s.m.forEachBackward(yield)
	}
}

// ForEach calls fn for every element in order, stopping early if fn returns
// false. It reports whether all elements were visited.
func (s *Sequence[T]) ForEach(fn func(pos int, v T) bool) bool {
	return s.m.forEach(fn)
}

// ForEachSegment hands the contiguous storage runs of the sequence to fn, in
// order, stopping early if fn returns false. The slices alias bucket storage:
// fn may update elements in place but must not retain the slices.
func (s *Sequence[T]) ForEachSegment(fn func(seg []T) bool) bool {
	return s.m.forEachSegment(fn)
}

// Slice returns a copy of the content as a slice.
func (s *Sequence[T]) Slice() []T {
	out := make([]T, 0, s.m.size)
	s.m.forEachSegment(func(seg []T) bool {
		out = append(out, seg...)
		return true
	})
	return out
}

// SearchFunc returns the first position whose element does not compare less
// than a target, together with whether that element compares equal. cmp
// reports how an element relates to the target (negative: element before
// target). The sequence must be sorted with respect to cmp.
func (s *Sequence[T]) SearchFunc(cmp func(T) int) (int, bool) {
	if s.m.size == 0 {
		return 0, false
	}
	pos := s.m.lowerBound(cmp)
	return pos, pos < s.m.size && cmp(s.m.at(pos)) == 0
}
