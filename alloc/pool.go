package alloc

import (
	"context"
	"fmt"
	"sync"

	pool "github.com/jolestar/go-commons-pool"
)

// PoolConfig configures a Pool.
type PoolConfig struct {
	// MaxTotal bounds the number of arrays per capacity class which may be
	// lent out at the same time. Values <= 0 mean no bound.
	MaxTotal int
	// MaxIdle bounds the number of idle arrays kept per capacity class.
	// Values <= 0 select MaxTotal (or 8 if MaxTotal is unbounded).
	MaxIdle int
	// Concurrent makes the pool safe to share between containers living on
	// different goroutines. The containers themselves stay single-threaded.
	Concurrent bool
}

// block wraps a bucket array so the object pool can track it by pointer.
type block[T any] struct {
	buf []T
}

// Pool recycles bucket arrays, keeping one object pool per capacity.
//
// Storage handed out by a Pool has to be returned to the same Pool, hence
// AlwaysEqual is false.
type Pool[T any] struct {
	ctx     context.Context
	conf    PoolConfig
	mx      sync.Mutex
	classes map[int]*pool.ObjectPool
	lent    map[*T]*block[T]
}

var _ Allocator[int] = (*Pool[int])(nil)

// NewPool creates an empty pool. ctx is used for all calls into the object
// pools and for Close.
func NewPool[T any](ctx context.Context, conf PoolConfig) *Pool[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Pool[T]{
		ctx:     ctx,
		conf:    conf,
		classes: make(map[int]*pool.ObjectPool),
		lent:    make(map[*T]*block[T]),
	}
}

func (p *Pool[T]) lock() {
	if p.conf.Concurrent {
		p.mx.Lock()
	}
}

func (p *Pool[T]) unlock() {
	if p.conf.Concurrent {
		p.mx.Unlock()
	}
}

func (p *Pool[T]) class(n int) *pool.ObjectPool {
	if op, ok := p.classes[n]; ok {
		return op
	}
	factory := pool.NewPooledObjectFactorySimple(func(context.Context) (interface{}, error) {
		return &block[T]{buf: make([]T, n)}, nil
	})
	cfg := pool.NewDefaultPoolConfig()
	cfg.BlockWhenExhausted = false
	cfg.MaxTotal = -1
	if p.conf.MaxTotal > 0 {
		cfg.MaxTotal = p.conf.MaxTotal
	}
	switch {
	case p.conf.MaxIdle > 0:
		cfg.MaxIdle = p.conf.MaxIdle
	case p.conf.MaxTotal > 0:
		cfg.MaxIdle = p.conf.MaxTotal
	default:
		cfg.MaxIdle = 8
	}
	op := pool.NewObjectPool(p.ctx, factory, cfg)
	p.classes[n] = op
	tracer().Debugf("alloc: new pool class for capacity %d", n)
	return op
}

// Allocate borrows an array of length n. It fails with ErrAllocation when the
// capacity class is exhausted.
func (p *Pool[T]) Allocate(n int) ([]T, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: invalid size %d", ErrAllocation, n)
	}
	p.lock()
	defer p.unlock()
	obj, err := p.class(n).BorrowObject(p.ctx)
	if err != nil {
		tracer().Errorf("alloc: pool class %d: %v", n, err)
		return nil, fmt.Errorf("%w: %v", ErrAllocation, err)
	}
	blk := obj.(*block[T])
	p.lent[&blk.buf[0]] = blk
	return blk.buf, nil
}

// Deallocate returns an array to its capacity class. Slices which did not
// come from this pool are ignored.
func (p *Pool[T]) Deallocate(storage []T) {
	if len(storage) == 0 {
		return
	}
	p.lock()
	defer p.unlock()
	key := &storage[0]
	blk, ok := p.lent[key]
	if !ok {
		tracer().Errorf("alloc: pool asked to release foreign storage of size %d", len(storage))
		return
	}
	delete(p.lent, key)
	clear(blk.buf)
	if err := p.class(len(blk.buf)).ReturnObject(p.ctx, blk); err != nil {
		tracer().Errorf("alloc: returning storage to pool: %v", err)
	}
}

// AlwaysEqual is false: storage belongs to the pool which lent it.
func (p *Pool[T]) AlwaysEqual() bool { return false }

// Outstanding returns the number of arrays currently lent out.
func (p *Pool[T]) Outstanding() int {
	p.lock()
	defer p.unlock()
	return len(p.lent)
}

// Idle returns the number of idle arrays kept for capacity n.
func (p *Pool[T]) Idle(n int) int {
	p.lock()
	defer p.unlock()
	op, ok := p.classes[n]
	if !ok {
		return 0
	}
	return op.GetNumIdle()
}

// Close releases all capacity classes.
func (p *Pool[T]) Close() {
	p.lock()
	defer p.unlock()
	for n, op := range p.classes {
		op.Close(p.ctx)
		delete(p.classes, n)
	}
}
