package tiered

import (
	"fmt"
	"unsafe"

	"github.com/npillmayer/tiered/alloc"
	"github.com/npillmayer/tiered/layout"
	"github.com/npillmayer/tiered/ring"
)

// Config configures a Sequence. The zero value is a valid configuration:
// Speed layout, default bucket capacity, heap allocation.
type Config[T any] struct {
	// Layout selects the bucket sizing policy.
	Layout layout.Kind
	// BucketCapacity is the fixed bucket capacity for Speed and the upper
	// bound of geometric growth for Memory. It is rounded up to a power of
	// two. Zero selects a default derived from the element size.
	BucketCapacity int
	// Allocator provides bucket storage. Nil selects alloc.Heap.
	Allocator alloc.Allocator[T]
	// CacheBack keeps a copy of each bucket's last element in the bucket
	// header. Sorted containers rely on it.
	CacheBack bool
	// Relocatable lets buckets move element runs with bulk copies and leave
	// stale copies in unused slots. Element types implementing
	// ring.Relocator are relocatable without setting this flag.
	Relocatable bool
}

func (cfg Config[T]) normalized() Config[T] {
	if cfg.Allocator == nil {
		cfg.Allocator = alloc.Heap[T]{}
	}
	if !cfg.Relocatable && ring.IsRelocatable[T]() {
		cfg.Relocatable = true
	}
	return cfg
}

// validate checks the configuration and returns the layout policy it
// describes.
func (cfg Config[T]) validate() (layout.Policy, error) {
	var zero T
	p, err := layout.New(cfg.Layout, unsafe.Sizeof(zero), cfg.BucketCapacity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return p, nil
}

func (cfg Config[T]) flags() ring.Flags {
	var f ring.Flags
	if cfg.CacheBack {
		f |= ring.CacheBack
	}
	if cfg.Relocatable {
		f |= ring.Relocatable
	}
	return f
}
