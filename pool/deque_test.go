package pool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdleDeque_PollFirstOrder(t *testing.T) {
	d := newIdleDeque[string]()
	a := newPooledObject("a")
	b := newPooledObject("b")

	d.AddLast(a)
	d.AddLast(b)
	assert.Equal(t, a, d.PollFirst())
	assert.Equal(t, b, d.PollFirst())
	assert.Nil(t, d.PollFirst())
}

func TestIdleDeque_AddFirstIsLIFOSlot(t *testing.T) {
	d := newIdleDeque[string]()
	a := newPooledObject("a")
	b := newPooledObject("b")

	d.AddFirst(a)
	d.AddFirst(b)
	assert.Equal(t, b, d.PollFirst(), "most recently AddFirst-ed member should be head")
}

func TestIdleDeque_TakeFirstBlocksThenServesHandoff(t *testing.T) {
	d := newIdleDeque[string]()
	m := newPooledObject("x")

	done := make(chan *PooledObject[string], 1)
	go func() {
		got, err := d.TakeFirst(context.Background())
		if err == nil {
			done <- got
		}
	}()

	time.Sleep(10 * time.Millisecond)
	d.AddLast(m)

	select {
	case got := <-done:
		assert.Equal(t, m, got)
	case <-time.After(time.Second):
		t.Fatal("TakeFirst never woke up")
	}
}

func TestIdleDeque_TakeFirstRespectsContextCancellation(t *testing.T) {
	d := newIdleDeque[string]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := d.TakeFirst(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIdleDeque_RemoveArbitraryMember(t *testing.T) {
	d := newIdleDeque[string]()
	a := newPooledObject("a")
	b := newPooledObject("b")
	c := newPooledObject("c")
	d.AddLast(a)
	d.AddLast(b)
	d.AddLast(c)

	require.True(t, d.Remove(b))
	assert.False(t, d.Remove(b), "second removal of the same member must fail")
	assert.Equal(t, 2, d.Size())
	assert.Equal(t, a, d.PollFirst())
	assert.Equal(t, c, d.PollFirst())
}

func TestIdleDeque_SnapshotIsOldestFirst(t *testing.T) {
	d := newIdleDeque[string]()
	a := newPooledObject("a")
	b := newPooledObject("b")
	c := newPooledObject("c")
	d.AddLast(a)
	d.AddLast(b)
	d.AddLast(c)

	snap := d.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []*PooledObject[string]{a, b, c}, snap)
	assert.Equal(t, 3, d.Size(), "snapshot must not drain the deque")
}

func TestIdleDeque_DrainAllEmptiesTheDeque(t *testing.T) {
	d := newIdleDeque[string]()
	d.AddLast(newPooledObject("a"))
	d.AddLast(newPooledObject("b"))

	drained := d.DrainAll()
	assert.Len(t, drained, 2)
	assert.Equal(t, 0, d.Size())
}
