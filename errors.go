package tiered

import (
	"errors"

	"github.com/npillmayer/tiered/alloc"
)

var (
	// ErrInvalidConfig signals an invalid sequence configuration.
	ErrInvalidConfig = errors.New("tiered: invalid configuration")
	// ErrIndexOutOfRange signals a position outside the sequence.
	ErrIndexOutOfRange = errors.New("tiered: index out of range")
	// ErrEmpty signals access to the front or back of an empty sequence.
	ErrEmpty = errors.New("tiered: sequence is empty")
	// ErrInvariant signals a broken internal invariant, as reported by Check.
	ErrInvariant = errors.New("tiered: invariant violated")
	// ErrAllocation is alloc.ErrAllocation, repeated here for convenience.
	ErrAllocation = alloc.ErrAllocation
)
