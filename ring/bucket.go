package ring

import (
	"fmt"
	"reflect"
)

// Flags select optional bucket behaviour.
type Flags uint8

const (
	// CacheBack keeps a copy of the logical last element outside the ring.
	CacheBack Flags = 1 << iota
	// Relocatable moves element runs with bulk copies and does not clear
	// vacated slots.
	Relocatable
)

// Relocator is an opt-in marker for element types which may be moved by raw
// copy and may leave stale copies behind in unused bucket slots.
//
// Declaring a type relocatable when stale copies keep large objects reachable,
// or when its values alias each other, is the caller's responsibility.
type Relocator interface {
	Relocatable()
}

// IsRelocatable reports whether T (or *T) carries the Relocator marker.
func IsRelocatable[T any]() bool {
	var zero T
	if _, ok := any(zero).(Relocator); ok {
		return true
	}
	_, ok := any(&zero).(Relocator)
	return ok
}

// Bucket is a fixed-capacity circular buffer.
//
// A Bucket is not safe for concurrent use.
type Bucket[T any] struct {
	buf   []T
	head  int // physical index of logical element 0
	n     int // logical element count
	mask  int // len(buf)-1 for power-of-two capacities, -1 otherwise
	flags Flags
	back  T // copy of the last element if flags&CacheBack != 0
}

// New creates an empty bucket on top of storage. The capacity of the bucket is
// len(storage); storage is owned by the bucket until it is handed back with
// Storage.
func New[T any](storage []T, flags Flags) *Bucket[T] {
	assert(len(storage) > 0, "ring.New called with empty storage")
	b := &Bucket[T]{buf: storage, flags: flags, mask: -1}
	if c := len(storage); c&(c-1) == 0 {
		b.mask = c - 1
	}
	return b
}

// Len returns the number of elements in the bucket.
func (b *Bucket[T]) Len() int { return b.n }

// Cap returns the fixed capacity of the bucket.
func (b *Bucket[T]) Cap() int { return len(b.buf) }

// IsFull reports whether no more elements fit.
func (b *Bucket[T]) IsFull() bool { return b.n == len(b.buf) }

// IsEmpty reports whether the bucket holds no elements.
func (b *Bucket[T]) IsEmpty() bool { return b.n == 0 }

// Flags returns the behaviour flags of the bucket.
func (b *Bucket[T]) Flags() Flags { return b.flags }

// Storage returns the backing array, e.g. for handing it back to an allocator.
func (b *Bucket[T]) Storage() []T { return b.buf }

func (b *Bucket[T]) phys(i int) int {
	j := b.head + i
	if b.mask >= 0 {
		return j & b.mask
	}
	if j >= len(b.buf) {
		j -= len(b.buf)
	}
	return j
}

func (b *Bucket[T]) dec(p int) int {
	if p == 0 {
		return len(b.buf) - 1
	}
	return p - 1
}

func (b *Bucket[T]) clearSlot(p int) {
	if b.flags&Relocatable == 0 {
		var zero T
		b.buf[p] = zero
	}
}

func (b *Bucket[T]) syncBack() {
	if b.flags&CacheBack == 0 {
		return
	}
	if b.n == 0 {
		var zero T
		b.back = zero
		return
	}
	b.back = b.buf[b.phys(b.n-1)]
}

// --- Element access --------------------------------------------------------

// At returns the element at local index i. i must be in [0, Len()).
func (b *Bucket[T]) At(i int) T {
	if debugChecks {
		assert(i >= 0 && i < b.n, "ring.At: index out of range")
	}
	return b.buf[b.phys(i)]
}

// Set overwrites the element at local index i.
func (b *Bucket[T]) Set(i int, v T) {
	if debugChecks {
		assert(i >= 0 && i < b.n, "ring.Set: index out of range")
	}
	b.buf[b.phys(i)] = v
	if i == b.n-1 && b.flags&CacheBack != 0 {
		b.back = v
	}
}

// Front returns the first element. The bucket must not be empty.
func (b *Bucket[T]) Front() T {
	return b.At(0)
}

// Back returns the last element. The bucket must not be empty.
func (b *Bucket[T]) Back() T {
	if debugChecks {
		assert(b.n > 0, "ring.Back: empty bucket")
	}
	return b.buf[b.phys(b.n-1)]
}

// CachedBack returns the cached last element and whether caching is enabled.
// It does not touch the backing array.
func (b *Bucket[T]) CachedBack() (T, bool) {
	return b.back, b.flags&CacheBack != 0
}

// Resync refreshes the cached last element. It has to be called after
// elements were written through the slices returned by Segments.
func (b *Bucket[T]) Resync() {
	b.syncBack()
}

// --- End operations --------------------------------------------------------

// PushBack appends v. The bucket must not be full.
func (b *Bucket[T]) PushBack(v T) {
	if debugChecks {
		assert(b.n < len(b.buf), "ring.PushBack: bucket is full")
	}
	b.buf[b.phys(b.n)] = v
	b.n++
	if b.flags&CacheBack != 0 {
		b.back = v
	}
}

// PushFront prepends v. The bucket must not be full.
func (b *Bucket[T]) PushFront(v T) {
	if debugChecks {
		assert(b.n < len(b.buf), "ring.PushFront: bucket is full")
	}
	b.head = b.dec(b.head)
	b.buf[b.head] = v
	b.n++
	if b.n == 1 && b.flags&CacheBack != 0 {
		b.back = v
	}
}

// PopBack removes and returns the last element. The bucket must not be empty.
func (b *Bucket[T]) PopBack() T {
	if debugChecks {
		assert(b.n > 0, "ring.PopBack: empty bucket")
	}
	p := b.phys(b.n - 1)
	v := b.buf[p]
	b.clearSlot(p)
	b.n--
	b.syncBack()
	return v
}

// PopFront removes and returns the first element. The bucket must not be empty.
func (b *Bucket[T]) PopFront() T {
	if debugChecks {
		assert(b.n > 0, "ring.PopFront: empty bucket")
	}
	v := b.buf[b.head]
	b.clearSlot(b.head)
	b.head = b.phys(1)
	b.n--
	if b.n == 0 {
		b.head = 0
		b.syncBack()
	}
	return v
}

// PushBackPopFront slides a one-element window: it removes the first element
// and appends v in a single step. On a full bucket this is a single slot
// overwrite plus a head move. The bucket must not be empty.
func (b *Bucket[T]) PushBackPopFront(v T) T {
	if debugChecks {
		assert(b.n > 0, "ring.PushBackPopFront: empty bucket")
	}
	out := b.buf[b.head]
	if b.n == len(b.buf) {
		b.buf[b.head] = v
		b.head = b.phys(1)
	} else {
		b.clearSlot(b.head)
		b.head = b.phys(1)
		b.buf[b.phys(b.n-1)] = v
	}
	if b.flags&CacheBack != 0 {
		b.back = v
	}
	return out
}

// PushFrontPopBack removes the last element and prepends v in a single step.
// The bucket must not be empty.
func (b *Bucket[T]) PushFrontPopBack(v T) T {
	if debugChecks {
		assert(b.n > 0, "ring.PushFrontPopBack: empty bucket")
	}
	last := b.phys(b.n - 1)
	out := b.buf[last]
	if b.n < len(b.buf) {
		b.clearSlot(last)
	}
	b.head = b.dec(b.head)
	b.buf[b.head] = v
	b.syncBack()
	return out
}

// --- Positional operations -------------------------------------------------

// moveRight shifts logical elements [first,last) one slot to the right.
// Slot last must lie inside the ring.
func (b *Bucket[T]) moveRight(first, last int) {
	if first >= last {
		return
	}
	if b.flags&Relocatable != 0 {
		b.relocateRight(first, last)
		return
	}
	for i := last; i > first; i-- {
		b.buf[b.phys(i)] = b.buf[b.phys(i-1)]
	}
	b.clearSlot(b.phys(first))
}

// moveLeft shifts logical elements [first,last) one slot to the left.
// first must be at least 1.
func (b *Bucket[T]) moveLeft(first, last int) {
	if first >= last {
		return
	}
	if b.flags&Relocatable != 0 {
		b.relocateLeft(first, last)
		return
	}
	for i := first; i < last; i++ {
		b.buf[b.phys(i-1)] = b.buf[b.phys(i)]
	}
	b.clearSlot(b.phys(last - 1))
}

// relocateRight is moveRight in physically contiguous runs, back to front.
func (b *Bucket[T]) relocateRight(first, last int) {
	for n := last - first; n > 0; {
		src := b.phys(first+n-1) + 1
		dst := b.phys(first+n) + 1
		k := min(n, src, dst)
		copy(b.buf[dst-k:dst], b.buf[src-k:src])
		n -= k
	}
}

// relocateLeft is moveLeft in physically contiguous runs, front to back.
func (b *Bucket[T]) relocateLeft(first, last int) {
	for first < last {
		src := b.phys(first)
		dst := b.phys(first - 1)
		k := min(last-first, len(b.buf)-src, len(b.buf)-dst)
		copy(b.buf[dst:dst+k], b.buf[src:src+k])
		first += k
	}
}

// Insert puts v at local index i, shifting the shorter side of the bucket.
// The bucket must not be full and i must be in [0, Len()].
func (b *Bucket[T]) Insert(i int, v T) {
	if debugChecks {
		assert(b.n < len(b.buf), "ring.Insert: bucket is full")
		assert(i >= 0 && i <= b.n, "ring.Insert: index out of range")
	}
	if i < b.n-i {
		b.head = b.dec(b.head)
		b.n++
		b.moveLeft(1, i+1)
	} else {
		b.moveRight(i, b.n)
		b.n++
	}
	b.buf[b.phys(i)] = v
	b.syncBack()
}

// Erase removes and returns the element at local index i, shifting the
// shorter side of the bucket.
func (b *Bucket[T]) Erase(i int) T {
	if debugChecks {
		assert(i >= 0 && i < b.n, "ring.Erase: index out of range")
	}
	v := b.buf[b.phys(i)]
	if i < b.n-1-i {
		if i == 0 {
			b.clearSlot(b.head)
		} else {
			b.moveRight(0, i)
		}
		b.head = b.phys(1)
	} else if i == b.n-1 {
		b.clearSlot(b.phys(i))
	} else {
		b.moveLeft(i+1, b.n)
	}
	b.n--
	if b.n == 0 {
		b.head = 0
	}
	b.syncBack()
	return v
}

// InsertPopFront inserts v at local index i and removes the first element,
// which is returned. The bucket may be full. If i is 0, v itself is returned
// and the bucket is left unchanged.
func (b *Bucket[T]) InsertPopFront(i int, v T) T {
	if debugChecks {
		assert(b.n > 0, "ring.InsertPopFront: empty bucket")
		assert(i >= 0 && i <= b.n, "ring.InsertPopFront: index out of range")
	}
	if i == 0 {
		return v
	}
	if i == b.n {
		return b.PushBackPopFront(v)
	}
	out := b.buf[b.head]
	b.moveLeft(1, i)
	b.buf[b.phys(i-1)] = v
	b.syncBack()
	return out
}

// InsertPopBack inserts v at local index i and removes the last element,
// which is returned. The bucket may be full. If i equals Len(), v itself is
// returned and the bucket is left unchanged.
func (b *Bucket[T]) InsertPopBack(i int, v T) T {
	if debugChecks {
		assert(b.n > 0, "ring.InsertPopBack: empty bucket")
		assert(i >= 0 && i <= b.n, "ring.InsertPopBack: index out of range")
	}
	if i == b.n {
		return v
	}
	if i == 0 {
		return b.PushFrontPopBack(v)
	}
	out := b.buf[b.phys(b.n-1)]
	b.moveRight(i, b.n-1)
	b.buf[b.phys(i)] = v
	b.syncBack()
	return out
}

// --- Bulk operations -------------------------------------------------------

// MoveBackTo moves the last k elements of b to the front of dst, keeping
// their order. dst must have room for k more elements.
func (b *Bucket[T]) MoveBackTo(dst *Bucket[T], k int) {
	assert(k <= b.n && dst.n+k <= len(dst.buf), "ring.MoveBackTo: bad element count")
	for ; k > 0; k-- {
		dst.PushFront(b.PopBack())
	}
}

// MoveFrontTo moves the first k elements of b to the back of dst, keeping
// their order. dst must have room for k more elements.
func (b *Bucket[T]) MoveFrontTo(dst *Bucket[T], k int) {
	assert(k <= b.n && dst.n+k <= len(dst.buf), "ring.MoveFrontTo: bad element count")
	for ; k > 0; k-- {
		dst.PushBack(b.PopFront())
	}
}

// Segments returns the elements as at most two physically contiguous slices.
// The slices alias the bucket storage and are invalidated by mutation.
func (b *Bucket[T]) Segments() (first, second []T) {
	if b.n == 0 {
		return nil, nil
	}
	end := b.head + b.n
	if end <= len(b.buf) {
		return b.buf[b.head:end], nil
	}
	return b.buf[b.head:], b.buf[:end-len(b.buf)]
}

// Each calls fn for every element in order and stops early if fn returns
// false. It reports whether the walk completed.
func (b *Bucket[T]) Each(fn func(T) bool) bool {
	s1, s2 := b.Segments()
	for _, v := range s1 {
		if !fn(v) {
			return false
		}
	}
	for _, v := range s2 {
		if !fn(v) {
			return false
		}
	}
	return true
}

// Clear drops all elements. Storage is kept.
func (b *Bucket[T]) Clear() {
	if b.flags&Relocatable == 0 {
		clear(b.buf)
	}
	b.head, b.n = 0, 0
	b.syncBack()
}

// Check validates the bucket header against its storage, including the
// back-value cache.
func (b *Bucket[T]) Check() error {
	if b == nil {
		return fmt.Errorf("%w: nil bucket", ErrCorrupt)
	}
	if len(b.buf) == 0 {
		return fmt.Errorf("%w: bucket without storage", ErrCorrupt)
	}
	if b.n < 0 || b.n > len(b.buf) {
		return fmt.Errorf("%w: count %d outside [0,%d]", ErrCorrupt, b.n, len(b.buf))
	}
	if b.head < 0 || b.head >= len(b.buf) {
		return fmt.Errorf("%w: head %d outside storage", ErrCorrupt, b.head)
	}
	if b.flags&CacheBack != 0 && b.n > 0 {
		if !reflect.DeepEqual(b.back, b.buf[b.phys(b.n-1)]) {
			return fmt.Errorf("%w: cached back value is stale", ErrCorrupt)
		}
	}
	return nil
}
