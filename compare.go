package tiered

import "golang.org/x/exp/constraints"

// Equal reports whether a and b hold the same elements in the same order.
func Equal[T comparable](a, b *Sequence[T]) bool {
	return EqualFunc(a, b, func(x, y T) bool { return x == y })
}

// EqualFunc is like Equal but compares elements with eq.
func EqualFunc[T, U any](a *Sequence[T], b *Sequence[U], eq func(T, U) bool) bool {
	if a.Len() != b.Len() {
		return false
	}
	ia, ib := a.Begin(), b.Begin()
	for ; ia.Valid(); ia.Next() {
		if !eq(ia.Value(), ib.Value()) {
			return false
		}
		ib.Next()
	}
	return true
}

// Compare compares a and b lexicographically. The result is 0 if a and b are
// equal, -1 if a is less than b, and +1 if a is greater than b.
func Compare[T constraints.Ordered](a, b *Sequence[T]) int {
	return CompareFunc(a, b, func(x, y T) int {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	})
}

// CompareFunc is like Compare but uses cmp to compare elements.
func CompareFunc[T, U any](a *Sequence[T], b *Sequence[U], cmp func(T, U) int) int {
	ia, ib := a.Begin(), b.Begin()
	for ia.Valid() && ib.Valid() {
		if c := cmp(ia.Value(), ib.Value()); c != 0 {
			return c
		}
		ia.Next()
		ib.Next()
	}
	switch {
	case ia.Valid():
		return 1
	case ib.Valid():
		return -1
	}
	return 0
}
