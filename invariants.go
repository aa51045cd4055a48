package tiered

import (
	"fmt"

	"github.com/npillmayer/tiered/layout"
)

// Check validates the structural invariants of the sequence: bucket counts
// add up to Len, no bucket is empty, interior buckets are at least half full,
// bucket capacities follow the layout policy, the start index and every
// back-value cache are current.
//
// Check is meant for tests and debugging; it touches every bucket.
func (s *Sequence[T]) Check() error {
	if s == nil {
		return fmt.Errorf("%w: nil sequence", ErrInvariant)
	}
	if !s.init {
		if s.m.size != 0 || len(s.m.buckets) != 0 {
			return fmt.Errorf("%w: uninitialized sequence holds elements", ErrInvariant)
		}
		return nil
	}
	return s.m.check()
}

func (m *manager[T]) check() error {
	if len(m.starts) != len(m.buckets) {
		return fmt.Errorf("%w: %d start entries for %d buckets", ErrInvariant, len(m.starts), len(m.buckets))
	}
	if len(m.buckets) == 0 {
		if m.size != 0 {
			return fmt.Errorf("%w: size %d without buckets", ErrInvariant, m.size)
		}
		return nil
	}
	if m.valid < 1 || m.valid > len(m.buckets) {
		return fmt.Errorf("%w: valid start count %d outside [1,%d]", ErrInvariant, m.valid, len(m.buckets))
	}
	total := 0
	for i, b := range m.buckets {
		if err := b.Check(); err != nil {
			return fmt.Errorf("%w: bucket #%d: %v", ErrInvariant, i, err)
		}
		if b.Flags() != m.flags {
			return fmt.Errorf("%w: bucket #%d has flags %d, want %d", ErrInvariant, i, b.Flags(), m.flags)
		}
		if b.IsEmpty() {
			return fmt.Errorf("%w: bucket #%d is empty", ErrInvariant, i)
		}
		if err := m.checkCapacity(i); err != nil {
			return err
		}
		if i > 0 && i < m.last() && b.Len() < m.policy.MinFill(b.Cap()) {
			return fmt.Errorf("%w: interior bucket #%d holds %d of %d elements",
				ErrInvariant, i, b.Len(), b.Cap())
		}
		if i > 0 && i < m.valid && m.starts[i] != m.starts[i-1]+m.buckets[i-1].Len() {
			return fmt.Errorf("%w: stale start of bucket #%d", ErrInvariant, i)
		}
		total += b.Len()
	}
	if total != m.size {
		return fmt.Errorf("%w: buckets hold %d elements, size is %d", ErrInvariant, total, m.size)
	}
	if shift, ok := m.policy.Shift(); ok && m.dense {
		for i := 1; i < m.last(); i++ {
			if m.buckets[i].Len() != 1<<shift {
				return fmt.Errorf("%w: dense index with partial interior bucket #%d", ErrInvariant, i)
			}
		}
	}
	return nil
}

func (m *manager[T]) checkCapacity(i int) error {
	c := m.buckets[i].Cap()
	switch m.policy.Kind() {
	case layout.Speed:
		if c != m.policy.MaxCapacity() {
			return fmt.Errorf("%w: bucket #%d has capacity %d, want %d",
				ErrInvariant, i, c, m.policy.MaxCapacity())
		}
	case layout.Memory:
		if c < layout.MinCapacity || c > m.policy.MaxCapacity() || c&(c-1) != 0 {
			return fmt.Errorf("%w: bucket #%d has capacity %d outside policy bounds",
				ErrInvariant, i, c)
		}
	}
	return nil
}
