package pool

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// state is the member's lifecycle position. Transitions are compare-
// and-swap on an atomic int32 field — no lock is held, per §4.1.
type state int32

const (
	stateIdle state = iota
	stateAllocated
	stateEviction
	stateEvictionReturnToHead
	stateInvalid
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "IDLE"
	case stateAllocated:
		return "ALLOCATED"
	case stateEviction:
		return "EVICTION"
	case stateEvictionReturnToHead:
		return "EVICTION_RETURN_TO_HEAD"
	case stateInvalid:
		return "INVALID"
	default:
		return "UNKNOWN"
	}
}

// PooledObject wraps one value lent out by an ObjectPool, carrying the
// lifecycle state machine and timestamps spec'd in §3. allObjects is keyed
// by the value itself (T is constrained comparable), so ID is not a lookup
// key — it is a stable per-member identifier carried for log fields and
// metrics tags, the one piece of identity that survives a value being
// passivated/activated and compared across log lines (§9).
type PooledObject[T comparable] struct {
	ID    uuid.UUID
	value T

	st state

	createTime     time.Time
	lastBorrowTime time.Time
	lastReturnTime atomic.Value // time.Time
}

func newPooledObject[T comparable](value T) *PooledObject[T] {
	now := time.Now()
	p := &PooledObject[T]{
		ID:         uuid.New(),
		value:      value,
		st:         stateIdle,
		createTime: now,
	}
	p.lastReturnTime.Store(now)
	return p
}

// Object returns the wrapped value.
func (p *PooledObject[T]) Object() T {
	return p.value
}

// CreateTime returns when the member was created.
func (p *PooledObject[T]) CreateTime() time.Time {
	return p.createTime
}

func (p *PooledObject[T]) getState() state {
	return state(atomic.LoadInt32((*int32)(&p.st)))
}

func (p *PooledObject[T]) casState(from, to state) bool {
	return atomic.CompareAndSwapInt32((*int32)(&p.st), int32(from), int32(to))
}

func (p *PooledObject[T]) setState(to state) {
	atomic.StoreInt32((*int32)(&p.st), int32(to))
}

// Allocate transitions IDLE -> ALLOCATED and returns true on success.
// If the member is currently under eviction test, it instead marks the
// member EVICTION_RETURN_TO_HEAD so the evictor knows to hand it back to
// the idle deque rather than destroy it, and returns false — the caller
// lost the race and must retry against a different member (§4.1).
func (p *PooledObject[T]) Allocate() bool {
	if p.casState(stateIdle, stateAllocated) {
		p.lastBorrowTime = time.Now()
		return true
	}
	p.casState(stateEviction, stateEvictionReturnToHead)
	return false
}

// Deallocate transitions ALLOCATED -> IDLE, recording the return time.
// Returns false if the member was not ALLOCATED (a second Deallocate of
// the same member is the AlreadyReturned case).
func (p *PooledObject[T]) Deallocate() bool {
	if !p.casState(stateAllocated, stateIdle) {
		return false
	}
	p.lastReturnTime.Store(time.Now())
	return true
}

// StartEvictionTest transitions IDLE -> EVICTION. Returns false if the
// member was concurrently borrowed (i.e. no longer IDLE).
func (p *PooledObject[T]) StartEvictionTest() bool {
	return p.casState(stateIdle, stateEviction)
}

// EndEvictionTest transitions EVICTION -> IDLE. If a borrower raced in
// during the test, the member was marked EVICTION_RETURN_TO_HEAD and
// physically popped from the idle deque by that borrower's failed
// Allocate attempt; EndEvictionTest resets it to IDLE and reports
// returnToHead = true so the evictor re-adds it at the deque head
// instead of continuing to test or evict it.
func (p *PooledObject[T]) EndEvictionTest() (returnToHead bool) {
	if p.casState(stateEviction, stateIdle) {
		return false
	}
	if p.casState(stateEvictionReturnToHead, stateIdle) {
		return true
	}
	return false
}

// Invalidate transitions the member to INVALID, a terminal state.
func (p *PooledObject[T]) Invalidate() {
	p.setState(stateInvalid)
}

// IdleTime returns how long the member has been idle, or 0 if it is not
// currently IDLE (or transiently EVICTION).
func (p *PooledObject[T]) IdleTime() time.Duration {
	st := p.getState()
	if st != stateIdle && st != stateEviction {
		return 0
	}
	lrt, _ := p.lastReturnTime.Load().(time.Time)
	return time.Since(lrt)
}
