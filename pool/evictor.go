package pool

import "math"

// evictor implements the periodic idle sweep (§4.4): staleness-based
// eviction (hard, then soft gated by MinIdle), optional test-while-idle
// activate/validate/passivate, and a minIdle refill pass — ported from
// GenericObjectPool's evict()/ensureMinIdle().
type evictor[T comparable] struct {
	pool *ObjectPool[T]

	// cursor is the persisted sweep position, carried across runs so a
	// pool with more idle members than NumTestsPerEvictionRun examines a
	// different slice each run instead of always restarting at the head
	// (§4.4 step 3, SPEC_FULL §"Evictor iterator persistence").
	cursor []*PooledObject[T]
	pos    int
}

func newEvictor[T comparable](p *ObjectPool[T]) *evictor[T] {
	return &evictor[T]{pool: p}
}

// run is the task handed to the scheduler: one eviction sweep followed by
// one ensureMinIdle refill, each independently failure-isolated the way
// Evictor.run() wraps evict() and ensureMinIdle() in separate try/catch
// blocks so a failure in one never skips the other.
func (e *evictor[T]) run() {
	runEvictorTask(e.evict)
	runEvictorTask(e.ensureMinIdle)
}

// next returns the next member to test, refilling the cursor from the idle
// deque's current snapshot (oldest-first for FIFO pools, reversed for LIFO,
// matching _idleObjects.descendingIterator() vs .iterator()) whenever it is
// exhausted. Returns nil once the idle deque is genuinely empty.
func (e *evictor[T]) next(lifo bool) *PooledObject[T] {
	if e.pos >= len(e.cursor) {
		snap := e.pool.idle.Snapshot() // head-to-tail
		if lifo {
			for i, j := 0, len(snap)-1; i < j; i, j = i+1, j-1 {
				snap[i], snap[j] = snap[j], snap[i]
			}
		}
		e.cursor = snap
		e.pos = 0
		if len(e.cursor) == 0 {
			return nil
		}
	}
	m := e.cursor[e.pos]
	e.pos++
	return m
}

func numTests(numTestsPerEvictionRun, numIdle int) int {
	if numIdle == 0 {
		return 0
	}
	if numTestsPerEvictionRun >= 0 {
		if numTestsPerEvictionRun < numIdle {
			return numTestsPerEvictionRun
		}
		return numIdle
	}
	return int(math.Ceil(float64(numIdle) / math.Abs(float64(numTestsPerEvictionRun))))
}

// evict runs one eviction pass (§4.4 steps 1-3).
func (e *evictor[T]) evict() {
	p := e.pool
	if p.closed.Load() {
		return
	}
	cfg := p.GetConfig()
	if p.GetNumIdle() == 0 {
		return
	}

	factory := p.getFactory()
	m := numTests(cfg.NumTestsPerEvictionRun, p.GetNumIdle())

	for i := 0; i < m; i++ {
		underTest := e.next(cfg.Lifo)
		if underTest == nil {
			return
		}

		if !underTest.StartEvictionTest() {
			// Borrowed concurrently; doesn't count against the budget.
			i--
			continue
		}

		idle := underTest.IdleTime()
		hardStale := cfg.MinEvictableIdleTime > 0 && idle > cfg.MinEvictableIdleTime
		softStale := cfg.SoftMinEvictableIdleTime > 0 && idle > cfg.SoftMinEvictableIdleTime && p.GetNumIdle() > cfg.MinIdle

		if hardStale || softStale {
			if err := p.destroy(underTest); err != nil {
				logger.Warn().Err(err).Str("member", underTest.ID.String()).Msg("evictor destroy failed")
			}
			continue
		}

		if cfg.TestWhileIdle && factory != nil {
			e.testWhileIdle(underTest, factory)
		}

		if underTest.EndEvictionTest() {
			// Lost to a racing borrow mid-test; the member was already
			// popped from the deque by that borrower's failed Allocate,
			// so hand it back at the head rather than letting it vanish.
			p.idle.AddFirst(underTest)
		}
	}
}

func (e *evictor[T]) testWhileIdle(m *PooledObject[T], factory Factory[T]) {
	p := e.pool
	if err := factory.Activate(m.Object()); err != nil {
		if derr := p.destroy(m); derr != nil {
			logger.Warn().Err(derr).Str("member", m.ID.String()).Msg("evictor destroy failed")
		}
		return
	}
	ok, err := factory.Validate(m.Object())
	if err != nil || !ok {
		if derr := p.destroy(m); derr != nil {
			logger.Warn().Err(derr).Str("member", m.ID.String()).Msg("evictor destroy failed")
		}
		return
	}
	if err := factory.Passivate(m.Object()); err != nil {
		if derr := p.destroy(m); derr != nil {
			logger.Warn().Err(derr).Str("member", m.ID.String()).Msg("evictor destroy failed")
		}
	}
}

// ensureMinIdle tops the idle deque up to MinIdle, giving up the first time
// create() can't produce a new member rather than spinning (§4.4 step 4).
func (e *evictor[T]) ensureMinIdle() {
	p := e.pool
	if p.closed.Load() {
		return
	}
	cfg := p.GetConfig()
	if cfg.MinIdle < 1 {
		return
	}
	factory := p.getFactory()
	if factory == nil {
		return
	}

	for p.GetNumIdle() < cfg.MinIdle {
		m, err, attempted := p.create(cfg, factory)
		if err != nil {
			logger.Warn().Err(err).Msg("evictor ensureMinIdle create failed")
			return
		}
		if !attempted || m == nil {
			return
		}
		if err := factory.Passivate(m.Object()); err != nil {
			if derr := p.destroy(m); derr != nil {
				logger.Warn().Err(derr).Str("member", m.ID.String()).Msg("evictor destroy failed")
			}
			return
		}
		if cfg.Lifo {
			p.idle.AddFirst(m)
		} else {
			p.idle.AddLast(m)
		}
	}
}
