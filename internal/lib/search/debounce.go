package search

import (
	"sync"
	"time"
)

// DefaultDebounceInterval is the pause in continued typing that releases a
// pending aggregation
const DefaultDebounceInterval = 500 * time.Millisecond

// Debouncer gates aggregation against a stream of keystrokes: each Trigger
// cancels the previously pending invocation and schedules its own. Only
// invocations that have not yet started their network calls are cancelled;
// in-flight calls run to completion and are superseded via the aggregator's
// invocation sequencing.
type Debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
}

// NewDebouncer creates a Debouncer. A non-positive interval falls back to
// DefaultDebounceInterval.
func NewDebouncer(interval time.Duration) *Debouncer {
	if interval <= 0 {
		interval = DefaultDebounceInterval
	}
	return &Debouncer{interval: interval}
}

// Trigger schedules fn to run after the debounce interval, cancelling any
// pending invocation that has not yet fired
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, fn)
}

// Cancel stops any pending invocation
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
