package tiered

import (
	"sort"

	"github.com/npillmayer/tiered/ring"
)

// resize grows or shrinks the sequence at the back to n elements. Whole
// buckets are dropped while shrinking. A failed grow removes the elements it
// added.
func (m *manager[T]) resize(n int, fill T) error {
	for m.size > n {
		back := m.buckets[m.last()]
		if m.size-back.Len() >= n {
			m.size -= back.Len()
			m.removeBackBucket()
			continue
		}
		m.popBack()
	}
	for added := 0; m.size < n; added++ {
		if err := m.pushBack(fill); err != nil {
			for ; added > 0; added-- {
				m.popBack()
			}
			return err
		}
	}
	return nil
}

// resizeFront is resize acting on the front of the sequence.
func (m *manager[T]) resizeFront(n int, fill T) error {
	for m.size > n {
		front := m.buckets[0]
		if m.size-front.Len() >= n {
			m.size -= front.Len()
			m.removeFrontBucket()
			continue
		}
		m.popFront()
	}
	for added := 0; m.size < n; added++ {
		if err := m.pushFront(fill); err != nil {
			for ; added > 0; added-- {
				m.popFront()
			}
			return err
		}
	}
	return nil
}

// clear releases every bucket.
func (m *manager[T]) clear() {
	for _, b := range m.buckets {
		m.release(b)
	}
	clear(m.buckets)
	m.buckets = m.buckets[:0]
	m.starts = m.starts[:0]
	m.valid, m.size = 0, 0
	m.dense = true
	m.epoch++
}

// shrinkToFit moves elements towards the front until every bucket but the
// last one is full, and releases the buckets emptied on the way.
func (m *manager[T]) shrinkToFit() {
	before := len(m.buckets)
	m.valid = min(m.valid, 1)
	m.epoch++
	for i := 0; i < m.last(); {
		b, next := m.buckets[i], m.buckets[i+1]
		if k := min(b.Cap()-b.Len(), next.Len()); k > 0 {
			next.MoveFrontTo(b, k)
		}
		if next.IsEmpty() {
			m.removeBucket(i + 1)
			continue
		}
		i++
	}
	m.dense = true
	tracer().Debugf("tiered: compacted %d buckets into %d", before, len(m.buckets))
}

// forEachSegment calls fn with the contiguous storage runs of all buckets in
// order, at most two per bucket. It stops when fn returns false. fn may write
// to the runs; back-value caches are refreshed after each bucket.
func (m *manager[T]) forEachSegment(fn func([]T) bool) bool {
	for _, b := range m.buckets {
		s1, s2 := b.Segments()
		ok := fn(s1) && (len(s2) == 0 || fn(s2))
		b.Resync()
		if !ok {
			return false
		}
	}
	return true
}

// forEach calls fn with position and value of every element in order.
func (m *manager[T]) forEach(fn func(int, T) bool) bool {
	pos := 0
	return m.forEachSegment(func(seg []T) bool {
		for _, v := range seg {
			if !fn(pos, v) {
				return false
			}
			pos++
		}
		return true
	})
}

// forEachBackward calls fn for every element in reverse order.
func (m *manager[T]) forEachBackward(fn func(int, T) bool) bool {
	pos := m.size
	for i := m.last(); i >= 0; i-- {
		b := m.buckets[i]
		for off := b.Len() - 1; off >= 0; off-- {
			pos--
			if !fn(pos, b.At(off)) {
				return false
			}
		}
	}
	return true
}

// clone copies the buckets one by one, keeping their capacities. The copy
// shares the allocator.
func (m *manager[T]) clone() (manager[T], error) {
	c := newManager(m.policy, m.alloc, m.flags)
	for _, b := range m.buckets {
		nb, err := c.newBucket(b.Cap())
		if err != nil {
			c.clear()
			return c, err
		}
		b.Each(func(v T) bool {
			nb.PushBack(v)
			return true
		})
		c.buckets = append(c.buckets, nb)
		c.starts = append(c.starts, 0)
	}
	c.size = m.size
	c.valid = min(len(c.buckets), 1)
	c.dense = m.dense
	return c, nil
}

// lowerBound returns the first position whose element does not compare less
// than the target, as judged by cmp. cmp returns a negative number for
// elements ordered before the target. Elements must be sorted with respect to
// cmp. Bucket back values (cached if enabled) select the bucket, a binary
// search inside that bucket selects the offset.
func (m *manager[T]) lowerBound(cmp func(T) int) int {
	n := len(m.buckets)
	b := sort.Search(n, func(i int) bool { return cmp(m.backOf(i)) >= 0 })
	if b == n {
		return m.size
	}
	bk := m.buckets[b]
	off := sort.Search(bk.Len(), func(i int) bool { return cmp(bk.At(i)) >= 0 })
	return m.bucketStart(b) + off
}

// backOf returns the last element of bucket i, from the back-value cache if
// it is enabled.
func (m *manager[T]) backOf(i int) T {
	if v, ok := m.buckets[i].CachedBack(); ok {
		return v
	}
	return m.buckets[i].Back()
}

func (m *manager[T]) bucket(i int) *ring.Bucket[T] {
	return m.buckets[i]
}
