package pool

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_RunsPeriodically(t *testing.T) {
	s := &scheduler{tasks: make(map[*schedHandle]struct{})}
	var calls int64
	h := s.Schedule(func() { atomic.AddInt64(&calls, 1) }, 30*time.Millisecond)
	defer s.Cancel(h)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&calls) >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_CancelStopsFurtherRuns(t *testing.T) {
	s := &scheduler{tasks: make(map[*schedHandle]struct{})}
	var calls int64
	h := s.Schedule(func() { atomic.AddInt64(&calls, 1) }, 20*time.Millisecond)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&calls) >= 1
	}, time.Second, 5*time.Millisecond)

	s.Cancel(h)
	seenAtCancel := atomic.LoadInt64(&calls)
	time.Sleep(100 * time.Millisecond)
	assert.LessOrEqual(t, atomic.LoadInt64(&calls), seenAtCancel+1, "no new runs should start after Cancel")
}

func TestScheduler_PanicInTaskDoesNotKillWorker(t *testing.T) {
	s := &scheduler{tasks: make(map[*schedHandle]struct{})}
	var calls int64
	h := s.Schedule(func() {
		atomic.AddInt64(&calls, 1)
		panic("boom")
	}, 20*time.Millisecond)
	defer s.Cancel(h)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&calls) >= 2
	}, time.Second, 5*time.Millisecond)
}
