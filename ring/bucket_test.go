package ring

import (
	"errors"
	"math/rand"
	"slices"
	"testing"
)

func collect(b *Bucket[int]) []int {
	out := make([]int, 0, b.Len())
	b.Each(func(v int) bool {
		out = append(out, v)
		return true
	})
	return out
}

func assertBucket(t *testing.T, b *Bucket[int], want []int) {
	t.Helper()
	if err := b.Check(); err != nil {
		t.Fatalf("bucket check failed: %v", err)
	}
	got := collect(b)
	if !slices.Equal(got, want) {
		t.Fatalf("bucket content mismatch:\n got=%v\nwant=%v", got, want)
	}
	for i, v := range want {
		if b.At(i) != v {
			t.Fatalf("At(%d)=%d, want %d", i, b.At(i), v)
		}
	}
	if len(want) > 0 && b.Back() != want[len(want)-1] {
		t.Fatalf("Back()=%d, want %d", b.Back(), want[len(want)-1])
	}
	if v, ok := b.CachedBack(); ok && len(want) > 0 && v != want[len(want)-1] {
		t.Fatalf("CachedBack()=%d, want %d", v, want[len(want)-1])
	}
}

func TestNewBucketIsEmpty(t *testing.T) {
	b := New(make([]int, 8), 0)
	if !b.IsEmpty() || b.IsFull() || b.Len() != 0 || b.Cap() != 8 {
		t.Fatalf("unexpected fresh bucket state len=%d cap=%d", b.Len(), b.Cap())
	}
	if b.mask != 7 {
		t.Errorf("expected power-of-two mask 7, got %d", b.mask)
	}
	if c := New(make([]int, 6), 0); c.mask != -1 {
		t.Errorf("expected no mask for capacity 6, got %d", c.mask)
	}
}

func TestPushPopBothEnds(t *testing.T) {
	b := New(make([]int, 4), CacheBack)
	b.PushBack(2)
	b.PushFront(1)
	b.PushBack(3)
	b.PushFront(0)
	assertBucket(t, b, []int{0, 1, 2, 3})
	if !b.IsFull() {
		t.Fatalf("expected full bucket")
	}
	if v := b.PopFront(); v != 0 {
		t.Errorf("PopFront=%d, want 0", v)
	}
	if v := b.PopBack(); v != 3 {
		t.Errorf("PopBack=%d, want 3", v)
	}
	assertBucket(t, b, []int{1, 2})
}

func TestSlidingWindowOnFullBucket(t *testing.T) {
	for _, flags := range []Flags{0, CacheBack, Relocatable, CacheBack | Relocatable} {
		b := New(make([]int, 4), flags)
		for i := 1; i <= 4; i++ {
			b.PushBack(i)
		}
		if out := b.PushBackPopFront(5); out != 1 {
			t.Fatalf("flags=%d: PushBackPopFront returned %d, want 1", flags, out)
		}
		assertBucket(t, b, []int{2, 3, 4, 5})
		if out := b.PushFrontPopBack(0); out != 5 {
			t.Fatalf("flags=%d: PushFrontPopBack returned %d, want 5", flags, out)
		}
		assertBucket(t, b, []int{0, 2, 3, 4})
	}
}

func TestSlidingWindowOnPartialBucket(t *testing.T) {
	b := New(make([]int, 6), CacheBack)
	b.PushBack(1)
	b.PushBack(2)
	if out := b.PushBackPopFront(3); out != 1 {
		t.Fatalf("PushBackPopFront returned %d", out)
	}
	assertBucket(t, b, []int{2, 3})
	if out := b.PushFrontPopBack(9); out != 3 {
		t.Fatalf("PushFrontPopBack returned %d", out)
	}
	assertBucket(t, b, []int{9, 2})
}

func TestInsertPopVariants(t *testing.T) {
	b := New(make([]int, 5), CacheBack)
	for i := range 5 {
		b.PushBack(i * 10)
	}
	if out := b.InsertPopFront(3, 25); out != 0 {
		t.Fatalf("InsertPopFront returned %d, want 0", out)
	}
	assertBucket(t, b, []int{10, 20, 25, 30, 40})
	if out := b.InsertPopBack(1, 15); out != 40 {
		t.Fatalf("InsertPopBack returned %d, want 40", out)
	}
	assertBucket(t, b, []int{10, 15, 20, 25, 30})
	if out := b.InsertPopFront(0, 99); out != 99 {
		t.Fatalf("InsertPopFront at 0 should hand back the value, got %d", out)
	}
	if out := b.InsertPopBack(5, 77); out != 77 {
		t.Fatalf("InsertPopBack at end should hand back the value, got %d", out)
	}
	assertBucket(t, b, []int{10, 15, 20, 25, 30})
}

func TestInsertPopAtBoundarySlidesWindow(t *testing.T) {
	for _, capacity := range []int{4, 6} {
		b := New(make([]int, capacity), CacheBack)
		for i := range 4 {
			b.PushBack(i)
		}
		if out := b.InsertPopFront(4, 4); out != 0 {
			t.Fatalf("InsertPopFront at end returned %d, want 0", out)
		}
		assertBucket(t, b, []int{1, 2, 3, 4})
		if out := b.InsertPopBack(0, 0); out != 4 {
			t.Fatalf("InsertPopBack at 0 returned %d, want 4", out)
		}
		assertBucket(t, b, []int{0, 1, 2, 3})
	}
}

func TestResyncAfterSegmentWrite(t *testing.T) {
	b := New(make([]int, 4), CacheBack)
	b.PushBack(2)
	b.PushBack(3)
	b.PushFront(1)
	s1, s2 := b.Segments()
	for _, seg := range [][]int{s1, s2} {
		for i := range seg {
			seg[i] *= 10
		}
	}
	if err := b.Check(); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected stale cache after direct writes, got %v", err)
	}
	b.Resync()
	assertBucket(t, b, []int{10, 20, 30})
}

func TestClearReleasesSlots(t *testing.T) {
	type ref struct{ p *int }
	x := 1
	b := New(make([]ref, 4), 0)
	b.PushBack(ref{&x})
	b.PushBack(ref{&x})
	_ = b.PopFront()
	if b.buf[0].p != nil {
		t.Errorf("expected vacated slot to be cleared")
	}
	b.Clear()
	for i, r := range b.buf {
		if r.p != nil {
			t.Errorf("slot %d not cleared", i)
		}
	}
}

type blob struct{ a, b int }

func (blob) Relocatable() {}

func TestRelocatableMarker(t *testing.T) {
	if !IsRelocatable[blob]() {
		t.Errorf("blob declares Relocatable, expected true")
	}
	if IsRelocatable[int]() {
		t.Errorf("int must never be inferred relocatable")
	}
}

func TestMoveBetweenBuckets(t *testing.T) {
	a := New(make([]int, 8), CacheBack)
	c := New(make([]int, 8), CacheBack)
	for i := range 6 {
		a.PushBack(i)
	}
	a.MoveBackTo(c, 3)
	assertBucket(t, a, []int{0, 1, 2})
	assertBucket(t, c, []int{3, 4, 5})
	c.MoveFrontTo(a, 2)
	assertBucket(t, a, []int{0, 1, 2, 3, 4})
	assertBucket(t, c, []int{5})
}

func TestSegmentsWrapAround(t *testing.T) {
	b := New(make([]int, 4), 0)
	b.PushBack(2)
	b.PushBack(3)
	b.PushFront(1)
	s1, s2 := b.Segments()
	if len(s1)+len(s2) != 3 || s1[0] != 1 {
		t.Fatalf("unexpected segments %v %v", s1, s2)
	}
	if !slices.Equal(append(slices.Clone(s1), s2...), []int{1, 2, 3}) {
		t.Fatalf("segments do not concatenate to content: %v %v", s1, s2)
	}
}

func TestCheckDetectsStaleCache(t *testing.T) {
	b := New(make([]int, 4), CacheBack)
	b.PushBack(1)
	b.PushBack(2)
	b.back = 7 // corrupt on purpose
	err := b.Check()
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt for stale cache, got %v", err)
	}
}

// Randomized model test over all flag combinations and both power-of-two and
// odd capacities.
func TestBucketRandomizedAgainstSlice(t *testing.T) {
	for _, capacity := range []int{1, 2, 5, 8, 13, 16} {
		for _, flags := range []Flags{0, CacheBack, Relocatable, CacheBack | Relocatable} {
			r := rand.New(rand.NewSource(int64(capacity)*31 + int64(flags)))
			b := New(make([]int, capacity), flags)
			var model []int
			for step := range 2000 {
				v := step
				switch op := r.Intn(9); {
				case op == 0 && len(model) < capacity:
					b.PushBack(v)
					model = append(model, v)
				case op == 1 && len(model) < capacity:
					b.PushFront(v)
					model = slices.Insert(model, 0, v)
				case op == 2 && len(model) > 0:
					got := b.PopBack()
					if got != model[len(model)-1] {
						t.Fatalf("PopBack=%d want %d", got, model[len(model)-1])
					}
					model = model[:len(model)-1]
				case op == 3 && len(model) > 0:
					got := b.PopFront()
					if got != model[0] {
						t.Fatalf("PopFront=%d want %d", got, model[0])
					}
					model = model[1:]
				case op == 4 && len(model) < capacity:
					i := r.Intn(len(model) + 1)
					b.Insert(i, v)
					model = slices.Insert(model, i, v)
				case op == 5 && len(model) > 0:
					i := r.Intn(len(model))
					got := b.Erase(i)
					if got != model[i] {
						t.Fatalf("Erase(%d)=%d want %d", i, got, model[i])
					}
					model = slices.Delete(model, i, i+1)
				case op == 6 && len(model) > 0:
					i := r.Intn(len(model) + 1)
					out := b.InsertPopFront(i, v)
					model = slices.Insert(model, i, v)
					if out != model[0] {
						t.Fatalf("InsertPopFront out=%d want %d", out, model[0])
					}
					model = model[1:]
				case op == 7 && len(model) > 0:
					i := r.Intn(len(model) + 1)
					out := b.InsertPopBack(i, v)
					model = slices.Insert(model, i, v)
					if out != model[len(model)-1] {
						t.Fatalf("InsertPopBack out=%d want %d", out, model[len(model)-1])
					}
					model = model[:len(model)-1]
				case op == 8 && len(model) > 0:
					i := r.Intn(len(model))
					b.Set(i, -v)
					model[i] = -v
				}
				assertBucket(t, b, model)
			}
		}
	}
}
