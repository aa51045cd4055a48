package tiered

import (
	"slices"
	"sort"

	"github.com/npillmayer/tiered/alloc"
	"github.com/npillmayer/tiered/layout"
	"github.com/npillmayer/tiered/ring"
)

// manager owns the chain of buckets behind a Sequence.
//
// Bucket start positions are kept in an absolute coordinate system: the
// logical position of the first element of bucket i is starts[i]-starts[0].
// Pushing or popping at the front only moves starts[0], so the remaining
// entries stay current. Mutations in the middle invalidate the entries after
// the touched bucket; they are recomputed lazily by locate. Only starts[:valid]
// are trustworthy.
type manager[T any] struct {
	buckets []*ring.Bucket[T]
	starts  []int
	valid   int
	size    int
	policy  layout.Policy
	alloc   alloc.Allocator[T]
	flags   ring.Flags
	dense   bool   // every interior bucket is full
	epoch   uint64 // bumped by every structural mutation
}

func newManager[T any](policy layout.Policy, a alloc.Allocator[T], flags ring.Flags) manager[T] {
	return manager[T]{
		policy: policy,
		alloc:  a,
		flags:  flags,
		dense:  true,
	}
}

func (m *manager[T]) last() int {
	return len(m.buckets) - 1
}

// --- Index mapping ---------------------------------------------------------

// locate maps a position in [0, size] to a (bucket, offset) pair. Position size
// maps to one past the last element of the back bucket. The sequence must not
// be empty.
func (m *manager[T]) locate(pos int) (int, int) {
	shift, fixed := m.policy.Shift()
	if m.dense && fixed {
		front := m.buckets[0].Len()
		if pos < front {
			return 0, pos
		}
		q := pos - front
		b := 1 + q>>shift
		if b > m.last() {
			return m.last(), m.buckets[m.last()].Len()
		}
		return b, q & (1<<shift - 1)
	}
	abs := m.starts[0] + pos
	for m.valid < len(m.buckets) && m.starts[m.valid-1]+m.buckets[m.valid-1].Len() <= abs {
		m.starts[m.valid] = m.starts[m.valid-1] + m.buckets[m.valid-1].Len()
		m.valid++
	}
	if fixed && m.valid == len(m.buckets) {
		m.dense = m.interiorFull(shift)
	}
	b := sort.Search(m.valid, func(i int) bool { return m.starts[i] > abs }) - 1
	return b, abs - m.starts[b]
}

// interiorFull tells from the start index whether all interior buckets hold
// 1<<shift elements. All starts must be valid.
func (m *manager[T]) interiorFull(shift uint) bool {
	n := len(m.buckets)
	if n <= 2 {
		return true
	}
	return m.starts[n-1]-m.starts[1] == (n-2)<<shift
}

// bucketStart returns the logical position of the first element of bucket b.
func (m *manager[T]) bucketStart(b int) int {
	for m.valid <= b {
		m.starts[m.valid] = m.starts[m.valid-1] + m.buckets[m.valid-1].Len()
		m.valid++
	}
	return m.starts[b] - m.starts[0]
}

func (m *manager[T]) at(pos int) T {
	b, off := m.locate(pos)
	return m.buckets[b].At(off)
}

func (m *manager[T]) set(pos int, v T) {
	b, off := m.locate(pos)
	m.buckets[b].Set(off, v)
}

// settle records that the element counts of buckets lo..hi have changed.
func (m *manager[T]) settle(lo, hi int) {
	m.valid = min(m.valid, lo+1)
	for i := max(lo, 1); i <= min(hi, m.last()-1); i++ {
		if !m.buckets[i].IsFull() {
			m.dense = false
			return
		}
	}
}

// --- Bucket lifecycle ------------------------------------------------------

func (m *manager[T]) newBucket(capacity int) (*ring.Bucket[T], error) {
	storage, err := m.alloc.Allocate(capacity)
	if err != nil {
		tracer().Errorf("tiered: cannot allocate bucket of capacity %d: %v", capacity, err)
		return nil, err
	}
	return ring.New(storage, m.flags), nil
}

func (m *manager[T]) release(b *ring.Bucket[T]) {
	b.Clear()
	m.alloc.Deallocate(b.Storage())
}

func (m *manager[T]) createBackBucket() error {
	b, err := m.newBucket(m.policy.CapacityFor(m.size))
	if err != nil {
		return err
	}
	start := 0
	if n := len(m.buckets); n > 0 {
		if m.valid == n {
			start = m.starts[n-1] + m.buckets[n-1].Len()
			m.valid++
		}
	} else {
		m.valid = 1
	}
	m.buckets = append(m.buckets, b)
	m.starts = append(m.starts, start)
	tracer().Debugf("tiered: created back bucket #%d with capacity %d", m.last(), b.Cap())
	return nil
}

func (m *manager[T]) createFrontBucket() error {
	b, err := m.newBucket(m.policy.CapacityFor(m.size))
	if err != nil {
		return err
	}
	start := 0
	if len(m.buckets) > 0 {
		start = m.starts[0]
	}
	m.buckets = slices.Insert(m.buckets, 0, b)
	m.starts = slices.Insert(m.starts, 0, start)
	m.valid++
	tracer().Debugf("tiered: created front bucket with capacity %d", b.Cap())
	return nil
}

// insertBucket places a fresh bucket at index i.
func (m *manager[T]) insertBucket(i int, b *ring.Bucket[T]) {
	m.buckets = slices.Insert(m.buckets, i, b)
	m.starts = slices.Insert(m.starts, i, 0)
	m.valid = min(m.valid, i)
}

// removeBucket drops bucket i and releases its storage. Elements still in the
// bucket are discarded; the caller adjusts size.
func (m *manager[T]) removeBucket(i int) {
	m.epoch++
	b := m.buckets[i]
	if i < m.last() && i < m.valid {
		m.starts[i+1] = m.starts[i] + b.Len()
	}
	m.release(b)
	m.buckets = slices.Delete(m.buckets, i, i+1)
	m.starts = slices.Delete(m.starts, i, i+1)
	if m.valid > i {
		m.valid = max(m.valid-1, i+1)
	}
	m.valid = min(m.valid, len(m.buckets))
	if len(m.buckets) <= 2 {
		m.dense = true
	}
}

func (m *manager[T]) removeFrontBucket() {
	tracer().Debugf("tiered: removing front bucket")
	m.removeBucket(0)
}

func (m *manager[T]) removeBackBucket() {
	tracer().Debugf("tiered: removing back bucket #%d", m.last())
	m.removeBucket(m.last())
}

// --- End operations --------------------------------------------------------

func (m *manager[T]) pushBack(v T) error {
	m.epoch++
	if len(m.buckets) == 0 || m.buckets[m.last()].IsFull() {
		if err := m.createBackBucket(); err != nil {
			return err
		}
	}
	m.buckets[m.last()].PushBack(v)
	m.size++
	return nil
}

func (m *manager[T]) pushFront(v T) error {
	m.epoch++
	if len(m.buckets) == 0 || m.buckets[0].IsFull() {
		if err := m.createFrontBucket(); err != nil {
			return err
		}
	}
	m.buckets[0].PushFront(v)
	m.starts[0]--
	m.size++
	return nil
}

func (m *manager[T]) popBack() T {
	m.epoch++
	b := m.buckets[m.last()]
	v := b.PopBack()
	m.size--
	if b.IsEmpty() {
		m.removeBackBucket()
	}
	return v
}

func (m *manager[T]) popFront() T {
	m.epoch++
	b := m.buckets[0]
	v := b.PopFront()
	m.starts[0]++
	m.size--
	if b.IsEmpty() {
		m.removeFrontBucket()
	}
	return v
}

// --- Positional insert -----------------------------------------------------

// room returns the number of free slots of bucket i, or 0 if there is no
// bucket i.
func (m *manager[T]) room(i int) int {
	if i < 0 || i > m.last() {
		return 0
	}
	b := m.buckets[i]
	return b.Cap() - b.Len()
}

// insert puts v at position pos in [0, size].
//
// A full target bucket hands one element to the neighbour on the side of pos
// (left if pos is in the first half of the bucket, right if in the second
// half, and at the exact midpoint towards the neighbour with more room). If
// that neighbour is full too, the other neighbour is tried. With both full the
// bucket grows if the policy asks for larger buckets at the current size, and
// splits otherwise.
//
// A position at a bucket boundary is the end of the left bucket as well as the
// start of the right one. It goes to the left bucket if that has room, or if
// the right bucket could neither take it nor pass an element on.
func (m *manager[T]) insert(pos int, v T) error {
	m.epoch++
	switch pos {
	case m.size:
		return m.pushBack(v)
	case 0:
		return m.pushFront(v)
	}
	b, off := m.locate(pos)
	if off == 0 && (m.room(b-1) > 0 || (m.buckets[b].IsFull() && m.room(b+1) == 0)) {
		b, off = b-1, m.buckets[b-1].Len()
	}
	bk := m.buckets[b]
	if !bk.IsFull() {
		bk.Insert(off, v)
		m.size++
		m.settle(b, b)
		return nil
	}
	prevRoom, nextRoom := m.room(b-1), m.room(b+1)
	n := bk.Len()
	left := 2*off < n || (2*off == n && prevRoom >= nextRoom)
	switch {
	case left && prevRoom > 0:
		m.insertLeft(b, off, v)
	case !left && nextRoom > 0:
		m.insertRight(b, off, v)
	case prevRoom > 0:
		m.insertLeft(b, off, v)
	case nextRoom > 0:
		m.insertRight(b, off, v)
	default:
		if c := min(m.policy.CapacityFor(m.size), 2*bk.Cap()); c > bk.Cap() {
			return m.insertGrow(b, off, v, c)
		}
		return m.insertMiddle(b, off, v)
	}
	return nil
}

// insertGrow moves the elements of full bucket b into a new bucket of the
// given capacity, which replaces b, and inserts v there. capacity must be at
// most twice the capacity of b, so the new bucket is at least half full.
func (m *manager[T]) insertGrow(b, off int, v T, capacity int) error {
	bk := m.buckets[b]
	nb, err := m.newBucket(capacity)
	if err != nil {
		return err
	}
	was := bk.Cap()
	bk.MoveFrontTo(nb, bk.Len())
	m.release(bk)
	m.buckets[b] = nb
	nb.Insert(off, v)
	m.size++
	m.settle(b, b)
	tracer().Debugf("tiered: grew bucket #%d from capacity %d to %d", b, was, capacity)
	return nil
}

// insertLeft inserts into full bucket b and pushes its first element onto the
// back of bucket b-1.
func (m *manager[T]) insertLeft(b, off int, v T) {
	out := m.buckets[b].InsertPopFront(off, v)
	m.buckets[b-1].PushBack(out)
	m.size++
	m.settle(b-1, b)
}

// insertRight inserts into full bucket b and pushes its last element onto the
// front of bucket b+1.
func (m *manager[T]) insertRight(b, off int, v T) {
	out := m.buckets[b].InsertPopBack(off, v)
	m.buckets[b+1].PushFront(out)
	m.size++
	m.settle(b, b+1)
}

// insertMiddle splits full bucket b into two halves and inserts v into the
// half owning off. The new bucket is allocated before anything moves.
func (m *manager[T]) insertMiddle(b, off int, v T) error {
	bk := m.buckets[b]
	nb, err := m.newBucket(bk.Cap())
	if err != nil {
		return err
	}
	n := bk.Len()
	h := n / 2
	bk.MoveBackTo(nb, n-h)
	m.insertBucket(b+1, nb)
	if off <= h {
		bk.Insert(off, v)
	} else {
		nb.Insert(off-h, v)
	}
	m.size++
	m.settle(b, b+1)
	tracer().Debugf("tiered: split bucket #%d (%d elements) at offset %d", b, n, off)
	return nil
}

// --- Positional erase ------------------------------------------------------

// erase removes and returns the element at position pos in [0, size).
func (m *manager[T]) erase(pos int) T {
	m.epoch++
	switch pos {
	case 0:
		return m.popFront()
	case m.size - 1:
		return m.popBack()
	}
	b, off := m.locate(pos)
	return m.eraseMiddle(b, off)
}

// eraseMiddle removes an element inside bucket b, then restores the minimum
// fill of b if it is an interior bucket.
func (m *manager[T]) eraseMiddle(b, off int) T {
	bk := m.buckets[b]
	v := bk.Erase(off)
	m.size--
	m.settle(b, b)
	if bk.IsEmpty() {
		m.removeBucket(b)
		return v
	}
	if b == 0 || b == m.last() || bk.Len() >= m.policy.MinFill(bk.Cap()) {
		return v
	}
	prev, next := m.buckets[b-1], m.buckets[b+1]
	switch {
	case prev.Len() > m.policy.MinFill(prev.Cap()):
		m.eraseLeft(b)
	case next.Len() > m.policy.MinFill(next.Cap()):
		m.eraseRight(b)
	default:
		m.merge(b - 1)
	}
	return v
}

// eraseLeft refills bucket b with the last element of bucket b-1.
func (m *manager[T]) eraseLeft(b int) {
	m.buckets[b].PushFront(m.buckets[b-1].PopBack())
	m.settle(b-1, b)
}

// eraseRight refills bucket b with the first element of bucket b+1.
func (m *manager[T]) eraseRight(b int) {
	m.buckets[b].PushBack(m.buckets[b+1].PopFront())
	m.settle(b, b+1)
}

// merge joins buckets i and i+1 into whichever of the two has the larger
// capacity.
func (m *manager[T]) merge(i int) {
	a, c := m.buckets[i], m.buckets[i+1]
	must(a.Len()+c.Len() <= max(a.Cap(), c.Cap()), "tiered: merged buckets overflow")
	tracer().Debugf("tiered: merging buckets #%d (%d) and #%d (%d)", i, a.Len(), i+1, c.Len())
	if a.Cap() >= c.Cap() {
		c.MoveFrontTo(a, c.Len())
		m.settle(i, i)
		m.removeBucket(i + 1)
	} else {
		a.MoveBackTo(c, a.Len())
		m.removeBucket(i)
	}
	m.settle(i, i)
}
