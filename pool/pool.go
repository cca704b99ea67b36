package pool

import (
	"context"
	"sync"
	"sync/atomic"
)

// Stats is a point-in-time snapshot of pool-level counters, exposed for
// operational visibility beyond the bare NumActive/NumIdle pair (§9
// supplemented features).
type Stats struct {
	NumActive     int
	NumIdle       int
	CreatedCount  int64
	DestroyCount  int64
	BorrowedCount int64
}

// ObjectPool is the generic, thread-safe object pool coordinator (§4.3).
// The zero value is not usable; construct with New.
type ObjectPool[T comparable] struct {
	factoryMu sync.Mutex
	factory   Factory[T]

	cfg atomic.Pointer[Config]

	idle *idleDeque[T]

	allMu sync.Mutex
	all   map[T]*PooledObject[T]

	createCount int64 // atomic

	createdCount  int64 // atomic, monotonically increasing
	destroyCount  int64 // atomic
	borrowedCount int64 // atomic

	closed atomic.Bool

	evictor    *evictor[T]
	schedToken *schedHandle

	sink Sink
}

// New constructs an ObjectPool using the given factory and configuration.
// A nil factory is permitted; install or replace one later via SetFactory
// so long as no member is currently checked out.
func New[T comparable](factory Factory[T], cfg Config) (*ObjectPool[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &ObjectPool[T]{
		factory: factory,
		idle:    newIdleDeque[T](),
		all:     make(map[T]*PooledObject[T]),
		sink:    noopSink{},
	}
	p.cfg.Store(&cfg)
	p.evictor = newEvictor(p)
	p.rescheduleEvictor()
	return p, nil
}

// SetSink installs a metrics sink the coordinator and evictor report
// through. Passing nil restores the no-op sink.
func (p *ObjectPool[T]) SetSink(sink Sink) {
	if sink == nil {
		sink = noopSink{}
	}
	p.sink = sink
}

// GetConfig returns the current configuration snapshot.
func (p *ObjectPool[T]) GetConfig() Config {
	return *p.cfg.Load()
}

// SetConfig atomically installs a new configuration snapshot. In-flight
// operations that already captured the previous snapshot run to
// completion under it, per §4.3 step 2.
func (p *ObjectPool[T]) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	p.cfg.Store(&cfg)
	p.rescheduleEvictor()
	return nil
}

func (p *ObjectPool[T]) rescheduleEvictor() {
	cfg := p.GetConfig()
	if p.schedToken != nil {
		defaultScheduler.Cancel(p.schedToken)
		p.schedToken = nil
	}
	if cfg.TimeBetweenEvictionRuns > 0 {
		p.schedToken = defaultScheduler.Schedule(p.evictor.run, cfg.TimeBetweenEvictionRuns)
	}
}

// SetFactory installs f, replacing whatever factory (if any) was
// previously installed. Rebinding is forbidden while any member is
// checked out (§3, §7, resolved per §8 S3 — see DESIGN.md); idle members
// created under the old factory are left in place.
func (p *ObjectPool[T]) SetFactory(f Factory[T]) error {
	p.factoryMu.Lock()
	defer p.factoryMu.Unlock()
	if p.GetNumActive() > 0 {
		return ErrFactoryAlreadySet
	}
	p.factory = f
	return nil
}

func (p *ObjectPool[T]) getFactory() Factory[T] {
	p.factoryMu.Lock()
	defer p.factoryMu.Unlock()
	return p.factory
}

// GetNumActive returns the number of members currently checked out.
// Derived as |allObjects| - numIdle, matching invariant 1 rather than
// tracked as a separate counter that borrow/return/invalidate would each
// need to keep in lockstep.
func (p *ObjectPool[T]) GetNumActive() int {
	return p.allCount() - p.GetNumIdle()
}

// GetNumIdle returns the number of members currently parked in the idle
// deque.
func (p *ObjectPool[T]) GetNumIdle() int {
	return p.idle.Size()
}

// Stats returns a snapshot of pool counters.
func (p *ObjectPool[T]) Stats() Stats {
	return Stats{
		NumActive:     p.GetNumActive(),
		NumIdle:       p.GetNumIdle(),
		CreatedCount:  atomic.LoadInt64(&p.createdCount),
		DestroyCount:  atomic.LoadInt64(&p.destroyCount),
		BorrowedCount: atomic.LoadInt64(&p.borrowedCount),
	}
}

// create attempts to manufacture a new member, subject to MaxTotal.
// Returns (nil, nil, false) if the cap was reached — not an error, just
// "no room". createCount is incremented optimistically then rolled back
// on rejection or factory failure, per §4.3 "Creation may transiently
// overshoot createCount across racing threads".
func (p *ObjectPool[T]) create(cfg Config, factory Factory[T]) (*PooledObject[T], error, bool) {
	if factory == nil {
		return nil, nil, false
	}
	n := atomic.AddInt64(&p.createCount, 1)
	if cfg.MaxTotal >= 0 && n > int64(cfg.MaxTotal) {
		atomic.AddInt64(&p.createCount, -1)
		return nil, nil, false
	}
	value, err := factory.Make()
	if err != nil {
		atomic.AddInt64(&p.createCount, -1)
		return nil, err, true
	}
	m := newPooledObject(value)
	p.allMu.Lock()
	p.all[value] = m
	p.allMu.Unlock()
	atomic.AddInt64(&p.createdCount, 1)
	p.sink.Count("pool.created", 1, nil)
	return m, nil, true
}

// destroy tears a member down: removes it from allObjects and the idle
// deque (if present), marks it INVALID, and calls factory.Destroy. Errors
// from Destroy are swallowed by every caller except InvalidateObject,
// which is expected to check the returned error itself (§7). createCount
// is decremented here to release the MaxTotal slot the member once held —
// without this, cumulative creates would hit MaxTotal and never recover,
// even with zero active and zero idle members.
func (p *ObjectPool[T]) destroy(m *PooledObject[T]) error {
	p.allMu.Lock()
	delete(p.all, m.Object())
	p.allMu.Unlock()
	p.idle.Remove(m)
	m.Invalidate()
	atomic.AddInt64(&p.createCount, -1)
	atomic.AddInt64(&p.destroyCount, 1)
	p.sink.Count("pool.destroyed", 1, nil)

	factory := p.getFactory()
	if factory == nil {
		return nil
	}
	if err := factory.Destroy(m.Object()); err != nil {
		logger.Warn().Err(err).Str("member", m.ID.String()).Msg("factory destroy failed")
		return err
	}
	return nil
}

// BorrowObject obtains a member from the pool, creating one if capacity
// allows, or waiting/failing per WhenExhausted (§4.3).
func (p *ObjectPool[T]) BorrowObject(ctx context.Context) (T, error) {
	var zero T
	if p.closed.Load() {
		return zero, ErrPoolClosed
	}
	cfg := p.GetConfig()
	factory := p.getFactory()
	if factory == nil {
		return zero, ErrNoFactory
	}

	for {
		m, freshlyCreated, err := p.obtainCandidate(ctx, cfg, factory)
		if err != nil {
			return zero, err
		}

		if !m.Allocate() {
			// Lost the race to a concurrent evictor/invalidate; retry.
			continue
		}

		if err := factory.Activate(m.Object()); err != nil {
			_ = p.destroy(m)
			if freshlyCreated {
				return zero, newFactoryError("activate", err)
			}
			continue
		}

		if cfg.TestOnBorrow {
			ok, verr := factory.Validate(m.Object())
			if verr != nil || !ok {
				_ = p.destroy(m)
				if freshlyCreated {
					if verr == nil {
						verr = ErrValidationFailed
					}
					return zero, newFactoryError("validate", verr)
				}
				continue
			}
		}

		atomic.AddInt64(&p.borrowedCount, 1)
		p.sink.Gauge("pool.active", float64(p.GetNumActive()), nil)
		p.sink.Gauge("pool.idle", float64(p.GetNumIdle()), nil)
		return m.Object(), nil
	}
}

// obtainCandidate implements §4.3 steps 3a-3d: pull from idle, else try to
// create, else wait/fail per WhenExhausted.
func (p *ObjectPool[T]) obtainCandidate(ctx context.Context, cfg Config, factory Factory[T]) (m *PooledObject[T], freshlyCreated bool, err error) {
	for {
		if m := p.idle.PollFirst(); m != nil {
			return m, false, nil
		}
		if m, cerr, attempted := p.create(cfg, factory); attempted {
			if cerr != nil {
				return nil, false, newFactoryError("make", cerr)
			}
			if m != nil {
				return m, true, nil
			}
		}

		switch cfg.WhenExhausted {
		case ActionFail:
			return nil, false, ErrPoolExhausted
		default: // ActionBlock
			var waitCtx context.Context
			var cancel context.CancelFunc
			if cfg.MaxWait > 0 {
				waitCtx, cancel = context.WithTimeout(ctx, cfg.MaxWait)
			} else {
				waitCtx, cancel = ctx, func() {}
			}
			taken, werr := p.idle.TakeFirst(waitCtx)
			cancel()
			if werr != nil {
				if ctx.Err() != nil {
					return nil, false, ErrInterrupted
				}
				p.sink.Count("pool.borrow_timeout", 1, nil)
				return nil, false, ErrBorrowTimeout
			}
			return taken, false, nil
		}
	}
}

// ReturnObject returns value to the pool (§4.3 "return"). Unlike
// BorrowObject, returning never blocks, so there is no context to honor.
func (p *ObjectPool[T]) ReturnObject(value T) error {
	m := p.lookup(value)
	if m == nil {
		return ErrNotInPool
	}

	cfg := p.GetConfig()
	factory := p.getFactory()

	if cfg.TestOnReturn && factory != nil {
		ok, err := factory.Validate(value)
		if err != nil || !ok {
			_ = p.destroy(m)
			return nil
		}
	}

	if factory != nil {
		if err := factory.Passivate(value); err != nil {
			_ = p.destroy(m)
			return nil
		}
	}

	if !m.Deallocate() {
		return ErrAlreadyReturned
	}

	if p.closed.Load() {
		_ = p.destroy(m)
		return nil
	}

	// At capacity: make room by discarding the stalest idle member (the
	// end opposite where returns are inserted) rather than refusing the
	// member that was just returned (§4.3 "return", §8 S5).
	if cfg.MaxIdle >= 0 && p.idle.Size() >= cfg.MaxIdle {
		var stale *PooledObject[T]
		if cfg.Lifo {
			stale = p.idle.PollLast()
		} else {
			stale = p.idle.PollFirst()
		}
		if stale != nil {
			_ = p.destroy(stale)
		}
	}

	if cfg.Lifo {
		p.idle.AddFirst(m)
	} else {
		p.idle.AddLast(m)
	}
	p.sink.Gauge("pool.active", float64(p.GetNumActive()), nil)
	p.sink.Gauge("pool.idle", float64(p.GetNumIdle()), nil)
	return nil
}

// InvalidateObject removes value from the pool and destroys it,
// propagating any error from the factory's Destroy hook (§4.3, §7).
func (p *ObjectPool[T]) InvalidateObject(value T) error {
	m := p.lookup(value)
	if m == nil {
		return ErrNotInPool
	}
	return p.destroy(m)
}

// AddObject creates, passivates, and parks a new member without handing
// it to any caller — useful for warmup (§4.3).
func (p *ObjectPool[T]) AddObject() error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	factory := p.getFactory()
	if factory == nil {
		return ErrNoFactory
	}
	cfg := p.GetConfig()
	m, err, attempted := p.create(cfg, factory)
	if err != nil {
		return newFactoryError("make", err)
	}
	if !attempted || m == nil {
		return ErrPoolExhausted
	}
	if err := factory.Passivate(m.Object()); err != nil {
		_ = p.destroy(m)
		return newFactoryError("passivate", err)
	}
	if cfg.Lifo {
		p.idle.AddFirst(m)
	} else {
		p.idle.AddLast(m)
	}
	return nil
}

// Clear drains and destroys every currently idle member (§4.3). Members
// parked concurrently by returners during Clear's execution are not
// guaranteed to be drained.
func (p *ObjectPool[T]) Clear() {
	for _, m := range p.idle.DrainAll() {
		_ = p.destroy(m)
	}
}

// Close marks the pool closed, clears idle members, and stops the
// evictor. Subsequent BorrowObject calls fail with ErrPoolClosed;
// ReturnObject and InvalidateObject continue to function, destroying
// whatever is returned/invalidated (§4.3). Close is idempotent.
func (p *ObjectPool[T]) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	p.Clear()
	if p.schedToken != nil {
		defaultScheduler.Cancel(p.schedToken)
		p.schedToken = nil
	}
}

func (p *ObjectPool[T]) lookup(value T) *PooledObject[T] {
	p.allMu.Lock()
	defer p.allMu.Unlock()
	return p.all[value]
}

func (p *ObjectPool[T]) allCount() int {
	p.allMu.Lock()
	defer p.allMu.Unlock()
	return len(p.all)
}
