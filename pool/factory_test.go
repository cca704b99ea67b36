package pool

import (
	"fmt"
	"sync/atomic"
)

// stringFactory hands out successive decimal strings "0", "1", "2", ...
// (§8 S1) and counts destroys so tests can assert on it directly.
type stringFactory struct {
	next     int64
	destroys int64
}

func (f *stringFactory) Make() (string, error) {
	n := atomic.AddInt64(&f.next, 1) - 1
	return fmt.Sprintf("%d", n), nil
}
func (f *stringFactory) Destroy(string) error {
	atomic.AddInt64(&f.destroys, 1)
	return nil
}
func (f *stringFactory) Validate(string) (bool, error) { return true, nil }
func (f *stringFactory) Activate(string) error         { return nil }
func (f *stringFactory) Passivate(string) error        { return nil }

func (f *stringFactory) destroyCount() int64 { return atomic.LoadInt64(&f.destroys) }

// intFactory hands out successive ints and lets validate/passivate fail on
// a configurable schedule (§8 S4).
type intFactory struct {
	next         int64
	validateOK   func(n int) bool
	passivateErr func(n int) error
	destroys     int64
}

func (f *intFactory) Make() (int, error) {
	n := atomic.AddInt64(&f.next, 1) - 1
	return int(n), nil
}
func (f *intFactory) Destroy(int) error {
	atomic.AddInt64(&f.destroys, 1)
	return nil
}
func (f *intFactory) Validate(n int) (bool, error) {
	if f.validateOK == nil {
		return true, nil
	}
	return f.validateOK(n), nil
}
func (f *intFactory) Activate(int) error { return nil }
func (f *intFactory) Passivate(n int) error {
	if f.passivateErr == nil {
		return nil
	}
	return f.passivateErr(n)
}
