// Package clock abstracts the wall clock so the upgrade engine can be tested
// without waiting for real time to pass. Second granularity is sufficient for
// upgrade durations.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time as a unix timestamp in seconds.
type Clock interface {
	Now() int64
}

// Wall reads the system clock.
type Wall struct{}

// Now returns the current unix time in seconds.
func (Wall) Now() int64 {
	return time.Now().Unix()
}

// Fake is a manually advanced clock for tests.
type Fake struct {
	mu  sync.Mutex
	now int64
}

// NewFake returns a fake clock starting at the given unix time.
func NewFake(now int64) *Fake {
	return &Fake{now: now}
}

// Now returns the fake's current time.
func (f *Fake) Now() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by the given number of seconds.
func (f *Fake) Advance(seconds int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now += seconds
}

// Set jumps the clock to an absolute time.
func (f *Fake) Set(now int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}
