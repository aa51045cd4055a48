/*
Package layout decides how large the buckets of a tiered sequence are.

Two policies are available:

  - Speed uses one fixed power-of-two capacity for every bucket. Position
    lookups reduce to a shift and a mask as long as all interior buckets are
    full, at the price of more average slack per bucket.
  - Memory lets bucket capacities grow geometrically with the number of
    elements held, starting from about one cache line worth of elements.
    Small sequences waste little space; position lookups need a binary
    search over bucket start positions.

Both policies produce the same observable sequence for the same history of
operations; only the bucket boundaries differ.
*/
package layout

import (
	"errors"
	"fmt"
	"math/bits"
)

// Kind selects a layout policy.
type Kind uint8

const (
	// Speed selects fixed power-of-two bucket capacities.
	Speed Kind = iota
	// Memory selects geometrically growing bucket capacities.
	Memory
)

func (k Kind) String() string {
	switch k {
	case Speed:
		return "speed"
	case Memory:
		return "memory"
	}
	return fmt.Sprintf("layout(%d)", uint8(k))
}

const (
	// MinCapacity is the smallest bucket capacity any policy hands out.
	MinCapacity = 4
	// MaxCapacity is the largest bucket capacity any policy hands out.
	MaxCapacity = 1 << 16
	// DefaultBucketBytes is the target size of a full bucket in bytes when no
	// capacity is configured.
	DefaultBucketBytes = 4096
	// CacheLineBytes is the target size of the smallest Memory bucket.
	CacheLineBytes = 64

	minDefaultCapacity = 16
	growthShift        = 4 // Memory buckets hold about 1/16 of the sequence
)

// ErrInvalidLayout signals unusable layout parameters.
var ErrInvalidLayout = errors.New("layout: invalid parameters")

// Policy answers sizing questions for a bucket manager.
type Policy interface {
	// Kind tells which policy this is.
	Kind() Kind
	// CapacityFor returns the capacity for a new bucket when the sequence
	// currently holds size elements.
	CapacityFor(size int) int
	// MaxCapacity is the upper bound of CapacityFor.
	MaxCapacity() int
	// MinFill is the lowest element count an interior bucket of the given
	// capacity may hold.
	MinFill(capacity int) int
	// Shift returns log2 of the fixed capacity if the policy supports
	// shift/mask position arithmetic.
	Shift() (shift uint, ok bool)
}

// New creates a policy of the given kind for elements of elemSize bytes.
// For Speed, capacity is the bucket capacity (rounded up to a power of two);
// for Memory it is the upper bound for geometric growth. A zero capacity
// selects DefaultCapacity(elemSize).
func New(kind Kind, elemSize uintptr, capacity int) (Policy, error) {
	if capacity == 0 {
		capacity = DefaultCapacity(elemSize)
	}
	if capacity < MinCapacity || capacity > MaxCapacity {
		return nil, fmt.Errorf("%w: capacity %d outside [%d,%d]", ErrInvalidLayout,
			capacity, MinCapacity, MaxCapacity)
	}
	capacity = CeilPow2(capacity)
	switch kind {
	case Speed:
		return speed{capacity: capacity, shift: uint(bits.TrailingZeros(uint(capacity)))}, nil
	case Memory:
		lo := MinCapacity
		if elemSize > 0 {
			lo = max(lo, CeilPow2(int(CacheLineBytes/elemSize)))
		}
		return memory{lo: min(lo, capacity), hi: capacity}, nil
	}
	return nil, fmt.Errorf("%w: unknown kind %s", ErrInvalidLayout, kind)
}

// DefaultCapacity derives a power-of-two bucket capacity from the element
// size so that a full bucket occupies about DefaultBucketBytes.
func DefaultCapacity(elemSize uintptr) int {
	if elemSize == 0 {
		elemSize = 1
	}
	c := FloorPow2(int(DefaultBucketBytes / elemSize))
	return min(max(c, minDefaultCapacity), MaxCapacity)
}

// CeilPow2 returns the smallest power of two >= x (1 for x <= 1).
func CeilPow2(x int) int {
	if x <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(x-1))
}

// FloorPow2 returns the largest power of two <= x (1 for x <= 1).
func FloorPow2(x int) int {
	if x <= 1 {
		return 1
	}
	return 1 << (bits.Len(uint(x)) - 1)
}

// --- Speed -----------------------------------------------------------------

type speed struct {
	capacity int
	shift    uint
}

func (s speed) Kind() Kind               { return Speed }
func (s speed) CapacityFor(int) int      { return s.capacity }
func (s speed) MaxCapacity() int         { return s.capacity }
func (s speed) MinFill(capacity int) int { return capacity / 2 }
func (s speed) Shift() (uint, bool)      { return s.shift, true }

// --- Memory ----------------------------------------------------------------

type memory struct {
	lo, hi int
}

func (m memory) Kind() Kind { return Memory }

func (m memory) CapacityFor(size int) int {
	return min(max(CeilPow2(size>>growthShift), m.lo), m.hi)
}

func (m memory) MaxCapacity() int         { return m.hi }
func (m memory) MinFill(capacity int) int { return capacity / 2 }
func (m memory) Shift() (uint, bool)      { return 0, false }
