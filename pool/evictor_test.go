package pool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumTests(t *testing.T) {
	cases := []struct {
		name     string
		perRun   int
		numIdle  int
		expected int
	}{
		{"positive caps at numIdle", 5, 3, 3},
		{"positive caps at perRun", 2, 10, 2},
		{"negative is a fraction", -2, 10, 5},
		{"negative rounds up", -3, 10, 4},
		{"nothing idle", 3, 0, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, numTests(c.perRun, c.numIdle))
		})
	}
}

func TestEvictor_HardEvictsStaleIdleMembers(t *testing.T) {
	factory := &stringFactory{}
	cfg := DefaultConfig()
	cfg.MaxTotal = -1
	cfg.TimeBetweenEvictionRuns = -1 // drive the evictor manually
	cfg.MinEvictableIdleTime = 10 * time.Millisecond
	cfg.NumTestsPerEvictionRun = -1
	p, err := New[string](factory, cfg)
	require.NoError(t, err)
	defer p.Close()

	v, err := p.BorrowObject(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.ReturnObject(v))

	time.Sleep(20 * time.Millisecond)
	p.evictor.evict()

	assert.Equal(t, 0, p.GetNumIdle())
	assert.EqualValues(t, 1, factory.destroyCount())
}

func TestEvictor_SoftEvictionRespectsMinIdle(t *testing.T) {
	factory := &stringFactory{}
	cfg := DefaultConfig()
	cfg.MaxTotal = -1
	cfg.MinEvictableIdleTime = -1
	cfg.SoftMinEvictableIdleTime = 10 * time.Millisecond
	cfg.MinIdle = 1
	cfg.NumTestsPerEvictionRun = -1
	p, err := New[string](factory, cfg)
	require.NoError(t, err)
	defer p.Close()

	v, err := p.BorrowObject(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.ReturnObject(v))

	time.Sleep(20 * time.Millisecond)
	p.evictor.evict()

	// Only one idle member and MinIdle=1, so the soft-evict guard
	// (numIdle > MinIdle) must keep it alive.
	assert.Equal(t, 1, p.GetNumIdle())
	assert.EqualValues(t, 0, factory.destroyCount())
}

func TestEvictor_TestWhileIdleDestroysFailedValidation(t *testing.T) {
	factory := &intFactory{validateOK: func(int) bool { return false }}
	cfg := DefaultConfig()
	cfg.MaxTotal = -1
	cfg.TestWhileIdle = true
	cfg.MinEvictableIdleTime = -1
	cfg.NumTestsPerEvictionRun = -1
	p, err := New[int](factory, cfg)
	require.NoError(t, err)
	defer p.Close()

	v, err := p.BorrowObject(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.ReturnObject(v))

	p.evictor.evict()

	assert.Equal(t, 0, p.GetNumIdle())
	assert.EqualValues(t, 1, factory.destroys)
}

func TestEvictor_EnsureMinIdleRefills(t *testing.T) {
	factory := &stringFactory{}
	cfg := DefaultConfig()
	cfg.MaxTotal = -1
	cfg.MinIdle = 3
	p, err := New[string](factory, cfg)
	require.NoError(t, err)
	defer p.Close()

	p.evictor.ensureMinIdle()
	assert.Equal(t, 3, p.GetNumIdle())
}

func TestEvictor_EnsureMinIdleStopsAtMaxTotal(t *testing.T) {
	factory := &stringFactory{}
	cfg := DefaultConfig()
	cfg.MaxTotal = 2
	cfg.MinIdle = 5
	p, err := New[string](factory, cfg)
	require.NoError(t, err)
	defer p.Close()

	p.evictor.ensureMinIdle()
	assert.Equal(t, 2, p.GetNumIdle())
}
