package tiered

// Iterator is a position in a Sequence, bound to a (bucket, offset) pair so
// that stepping does not need a position lookup.
//
// An iterator is invalidated by every structural change of its sequence
// (insertion, erasure, push, pop, resize, clear), except for the iterators
// returned by InsertAt and Erase. Set does not invalidate iterators.
type Iterator[T any] struct {
	s     *Sequence[T]
	pos   int
	b     int
	off   int
	epoch uint64
}

// Begin returns an iterator at the first element.
func (s *Sequence[T]) Begin() Iterator[T] {
	return s.IteratorAt(0)
}

// End returns an iterator one past the last element.
func (s *Sequence[T]) End() Iterator[T] {
	return s.IteratorAt(s.m.size)
}

// IteratorAt returns an iterator at position pos, which is clamped to
// [0, Len()].
func (s *Sequence[T]) IteratorAt(pos int) Iterator[T] {
	pos = min(max(pos, 0), s.m.size)
	it := Iterator[T]{s: s, pos: pos, epoch: s.m.epoch}
	if s.m.size > 0 {
		it.b, it.off = s.m.locate(pos)
	}
	return it
}

// InsertAt inserts v before the element it points to and returns an iterator
// at the new element.
func (s *Sequence[T]) InsertAt(it Iterator[T], v T) (Iterator[T], error) {
	it.check(s)
	if err := s.Insert(it.pos, v); err != nil {
		return it, err
	}
	return s.IteratorAt(it.pos), nil
}

// Erase removes the element it points to and returns an iterator at the
// element which took its place (or End). it must be dereferenceable.
func (s *Sequence[T]) Erase(it Iterator[T]) Iterator[T] {
	it.check(s)
	if debugChecks {
		must(it.Valid(), "tiered.Erase: iterator not dereferenceable")
	}
	s.m.erase(it.pos)
	return s.IteratorAt(it.pos)
}

func (it Iterator[T]) check(s *Sequence[T]) {
	if debugChecks {
		must(it.s == s, "tiered: iterator belongs to another sequence")
		must(it.epoch == s.m.epoch, "tiered: stale iterator")
	}
}

// Pos returns the position of the iterator.
func (it Iterator[T]) Pos() int {
	return it.pos
}

// Valid reports whether the iterator points to an element.
func (it Iterator[T]) Valid() bool {
	return it.s != nil && it.pos >= 0 && it.pos < it.s.m.size
}

// Value returns the element the iterator points to. The iterator must be
// valid.
func (it Iterator[T]) Value() T {
	it.check(it.s)
	return it.s.m.bucket(it.b).At(it.off)
}

// Set overwrites the element the iterator points to.
func (it Iterator[T]) Set(v T) {
	it.check(it.s)
	it.s.m.bucket(it.b).Set(it.off, v)
}

// Next moves the iterator one element forward. Stepping past End is not
// allowed.
func (it *Iterator[T]) Next() {
	if debugChecks {
		must(it.pos < it.s.m.size, "tiered.Iterator.Next: past end")
	}
	it.pos++
	it.off++
	if it.off == it.s.m.bucket(it.b).Len() && it.b < it.s.m.last() {
		it.b++
		it.off = 0
	}
}

// Prev moves the iterator one element backward. Stepping before Begin is not
// allowed.
func (it *Iterator[T]) Prev() {
	if debugChecks {
		must(it.pos > 0, "tiered.Iterator.Prev: before begin")
	}
	it.pos--
	if it.off == 0 {
		it.b--
		it.off = it.s.m.bucket(it.b).Len() - 1
		return
	}
	it.off--
}

// Advance moves the iterator by k elements, which may be negative. Moves
// inside the current bucket are O(1); otherwise the target is looked up.
func (it *Iterator[T]) Advance(k int) {
	pos := it.pos + k
	if debugChecks {
		must(pos >= 0 && pos <= it.s.m.size, "tiered.Iterator.Advance: out of range")
	}
	if off := it.off + k; it.s.m.size > 0 && off >= 0 && off < it.s.m.bucket(it.b).Len() {
		it.pos, it.off = pos, off
		return
	}
	*it = it.s.IteratorAt(pos)
}

// Equal reports whether two iterators point to the same position.
func (it Iterator[T]) Equal(other Iterator[T]) bool {
	return it.s == other.s && it.pos == other.pos
}

// Distance returns the number of steps from it to other.
func (it Iterator[T]) Distance(other Iterator[T]) int {
	return other.pos - it.pos
}
