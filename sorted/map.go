package sorted

import (
	"fmt"
	"iter"

	"github.com/npillmayer/tiered"
	"golang.org/x/exp/constraints"
)

// Entry is a key/value pair of a Map.
type Entry[K, V any] struct {
	Key   K
	Value V
}

// Map is a sorted map from K to V, stored as a flat sequence of entries.
type Map[K, V any] struct {
	seq *tiered.Sequence[Entry[K, V]]
	cmp Comparator[K]
}

// NewMap creates an empty map with keys ordered by cmp. Back-value caching is
// always enabled.
func NewMap[K, V any](cmp Comparator[K], cfg tiered.Config[Entry[K, V]]) (*Map[K, V], error) {
	if cmp == nil {
		return nil, fmt.Errorf("%w: map without comparator", tiered.ErrInvalidConfig)
	}
	cfg.CacheBack = true
	seq, err := tiered.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Map[K, V]{seq: seq, cmp: cmp}, nil
}

// NewOrderedMap creates an empty map using the natural order of K.
func NewOrderedMap[K constraints.Ordered, V any](cfg tiered.Config[Entry[K, V]]) (*Map[K, V], error) {
	return NewMap[K, V](Ordered[K]{}, cfg)
}

func (m *Map[K, V]) search(k K) (int, bool) {
	return m.seq.SearchFunc(func(e Entry[K, V]) int { return m.cmp.Compare(e.Key, k) })
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	return m.seq.Len()
}

// Set associates v with k, replacing a previous value.
func (m *Map[K, V]) Set(k K, v V) error {
	pos, found := m.search(k)
	if found {
		return m.seq.Set(pos, Entry[K, V]{Key: k, Value: v})
	}
	return m.seq.Insert(pos, Entry[K, V]{Key: k, Value: v})
}

// Get returns the value stored for k.
func (m *Map[K, V]) Get(k K) (V, bool) {
	pos, found := m.search(k)
	if !found {
		var zero V
		return zero, false
	}
	return m.seq.Get(pos).Value, true
}

// Delete removes the entry for k. It reports whether there was one.
func (m *Map[K, V]) Delete(k K) bool {
	pos, found := m.search(k)
	if !found {
		return false
	}
	_, err := m.seq.EraseAt(pos)
	return err == nil
}

// Contains reports whether k has an entry.
func (m *Map[K, V]) Contains(k K) bool {
	_, found := m.search(k)
	return found
}

// LowerBound returns the position of the first entry whose key is not less
// than k.
func (m *Map[K, V]) LowerBound(k K) int {
	pos, _ := m.search(k)
	return pos
}

// At returns the entry at position i in key order.
func (m *Map[K, V]) At(i int) (Entry[K, V], error) {
	return m.seq.At(i)
}

// Keys returns an iterator over the keys in ascending order.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for e := range m.seq.Values() {
			if !yield(e.Key) {
				return
			}
		}
	}
}

// All returns an iterator over keys and values in ascending key order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for e := range m.seq.Values() {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

// Clear removes all entries.
func (m *Map[K, V]) Clear() {
	m.seq.Clear()
}

// Check validates the underlying sequence and the strict ordering of the keys.
func (m *Map[K, V]) Check() error {
	if err := m.seq.Check(); err != nil {
		return err
	}
	return checkOrder(m.seq, func(a, b Entry[K, V]) int { return m.cmp.Compare(a.Key, b.Key) })
}
