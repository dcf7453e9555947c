// Package ticker provides the per-frame callback facility that drives
// cooperative subsystems from the thread owning the graphics context.
package ticker

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInterval is returned by Run for a non-positive interval.
var ErrInterval = errors.New("ticker: interval must be positive")

// Func is called once per tick with the elapsed time in seconds.
// Returning false removes it.
type Func func(dt float64) bool

// Handle identifies a registered Func.
type Handle uint64

type entry struct {
	handle Handle
	fn     Func
}

// Ticker calls registered functions in registration order. It is not safe
// for concurrent use.
type Ticker struct {
	entries []entry
	next    Handle
}

// New creates an empty ticker.
func New() *Ticker {
	return &Ticker{}
}

// Add registers fn and returns a handle for Remove.
func (t *Ticker) Add(fn Func) Handle {
	t.next++
	t.entries = append(t.entries, entry{handle: t.next, fn: fn})
	return t.next
}

// Remove deregisters the function behind h. Unknown handles are ignored.
// It may be called from inside a tick.
func (t *Ticker) Remove(h Handle) {
	for i, e := range t.entries {
		if e.handle == h {
			t.entries = append(t.entries[:i:i], t.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered functions.
func (t *Ticker) Len() int {
	return len(t.entries)
}

// Tick calls every registered function once with dt.
func (t *Ticker) Tick(dt float64) {
	// Functions added during this tick first run on the next one.
	current := t.entries
	for _, e := range current {
		if !t.registered(e.handle) {
			continue
		}
		if !e.fn(dt) {
			t.Remove(e.handle)
		}
	}
}

func (t *Ticker) registered(h Handle) bool {
	for _, e := range t.entries {
		if e.handle == h {
			return true
		}
	}
	return false
}

// Run ticks every interval with the measured wall-clock delta until done
// reports true or ctx is cancelled. done is checked after each tick and
// may be nil. interval must be positive.
func (t *Ticker) Run(ctx context.Context, interval time.Duration, done func() bool) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %v", ErrInterval, interval)
	}
	clock := time.NewTicker(interval)
	defer clock.Stop()

	lastTime := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-clock.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now

			t.Tick(dt)
			if done != nil && done() {
				return nil
			}
		}
	}
}
