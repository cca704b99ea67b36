package pool

import (
	"container/list"
	"context"
	"sync"
)

// idleDeque is the bounded blocking double-ended queue of idle members
// spec'd in §4.2. Capacity is unbounded at this layer — the pool enforces
// MaxIdle separately on return. Waiters on TakeFirst are served in strict
// FIFO arrival order (§4.2 "Fairness").
type idleDeque[T comparable] struct {
	mu      sync.Mutex
	members *list.List // of *PooledObject[T]
	waiters *list.List // of chan *PooledObject[T], FIFO
}

func newIdleDeque[T comparable]() *idleDeque[T] {
	return &idleDeque[T]{
		members: list.New(),
		waiters: list.New(),
	}
}

// AddFirst parks m at the head (LIFO slot).
func (d *idleDeque[T]) AddFirst(m *PooledObject[T]) {
	d.mu.Lock()
	if d.handoff(m) {
		d.mu.Unlock()
		return
	}
	d.members.PushFront(m)
	d.mu.Unlock()
}

// AddLast parks m at the tail (FIFO slot).
func (d *idleDeque[T]) AddLast(m *PooledObject[T]) {
	d.mu.Lock()
	if d.handoff(m) {
		d.mu.Unlock()
		return
	}
	d.members.PushBack(m)
	d.mu.Unlock()
}

// handoff serves m directly to the oldest blocked waiter, if any, instead
// of parking it in members. Must be called with mu held.
func (d *idleDeque[T]) handoff(m *PooledObject[T]) bool {
	front := d.waiters.Front()
	if front == nil {
		return false
	}
	d.waiters.Remove(front)
	ch := front.Value.(chan *PooledObject[T])
	ch <- m
	return true
}

// PollFirst returns and removes the head member, or nil if empty.
func (d *idleDeque[T]) PollFirst() *PooledObject[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	front := d.members.Front()
	if front == nil {
		return nil
	}
	d.members.Remove(front)
	return front.Value.(*PooledObject[T])
}

// Poll is an alias of PollFirst (§4.2).
func (d *idleDeque[T]) Poll() *PooledObject[T] {
	return d.PollFirst()
}

// PollLast returns and removes the tail member, or nil if empty. Used to
// discard the stalest idle member on MaxIdle overflow (§4.3 "return").
func (d *idleDeque[T]) PollLast() *PooledObject[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	back := d.members.Back()
	if back == nil {
		return nil
	}
	d.members.Remove(back)
	return back.Value.(*PooledObject[T])
}

// TakeFirst blocks until a member is available or ctx is done. Blocked
// callers are queued and served in FIFO arrival order: a newly available
// member is handed to the oldest waiter rather than raced for.
func (d *idleDeque[T]) TakeFirst(ctx context.Context) (*PooledObject[T], error) {
	d.mu.Lock()
	if front := d.members.Front(); front != nil {
		d.members.Remove(front)
		d.mu.Unlock()
		return front.Value.(*PooledObject[T]), nil
	}
	ch := make(chan *PooledObject[T], 1)
	elem := d.waiters.PushBack(ch)
	d.mu.Unlock()

	select {
	case m := <-ch:
		return m, nil
	case <-ctx.Done():
		d.mu.Lock()
		// Remove our waiter slot unless a handoff already fired between
		// ctx.Done() firing and us acquiring the lock.
		select {
		case m := <-ch:
			d.mu.Unlock()
			return m, nil
		default:
			d.waiters.Remove(elem)
			d.mu.Unlock()
			return nil, ctx.Err()
		}
	}
}

// Size returns the number of idle members currently parked (excludes
// blocked waiters).
func (d *idleDeque[T]) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.members.Len()
}

// Remove removes m from wherever it sits in the deque, if present. Used by
// the evictor and InvalidateObject paths for direct removal.
func (d *idleDeque[T]) Remove(m *PooledObject[T]) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for e := d.members.Front(); e != nil; e = e.Next() {
		if e.Value.(*PooledObject[T]) == m {
			d.members.Remove(e)
			return true
		}
	}
	return false
}

// Snapshot returns a weakly-consistent ascending (head-to-tail) copy of the
// idle members at the moment of the call, for the evictor's sweep.
// Ascending means oldest-idle-first for FIFO pools, which park returns at
// the tail; the evictor reverses this for LIFO pools per §4.4 step 3.
func (d *idleDeque[T]) Snapshot() []*PooledObject[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*PooledObject[T], 0, d.members.Len())
	for e := d.members.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*PooledObject[T]))
	}
	return out
}

// DrainAll removes and returns every currently parked member, used by
// Clear. Members parked concurrently by returners after this call are not
// included, matching the pool's no-guarantee contract for Clear.
func (d *idleDeque[T]) DrainAll() []*PooledObject[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*PooledObject[T], 0, d.members.Len())
	for e := d.members.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*PooledObject[T]))
	}
	d.members.Init()
	return out
}
