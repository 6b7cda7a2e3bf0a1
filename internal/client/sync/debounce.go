package sync

import (
	stdsync "sync"
	"time"
)

// DefaultDebounceDelay is the quiet period after which a burst of edits to
// one entity is pushed as a single write.
const DefaultDebounceDelay = 1500 * time.Millisecond

// Debouncer runs at most one pending function per key. A new Trigger for a
// key supersedes the previous one: its scheduling is cancelled and the delay
// restarts, so only the last edit in a burst fires. Timers for different
// keys are independent.
type Debouncer struct {
	delay time.Duration

	mu     stdsync.Mutex
	timers map[string]*time.Timer
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay, timers: make(map[string]*time.Timer)}
}

// Trigger schedules fn to run after the quiet period, replacing any pending
// run for the same key. fn executes on a timer goroutine and must read the
// state it needs at fire time, not at trigger time.
func (d *Debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.timers[key] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.timers, key)
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending function for key without running it. Used when
// the entity itself is deleted before the quiet period ends.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
		delete(d.timers, key)
	}
}

// Flush fires the pending function for key immediately, if any.
func (d *Debouncer) Flush(key string) {
	d.mu.Lock()
	t, ok := d.timers[key]
	if ok {
		delete(d.timers, key)
	}
	d.mu.Unlock()

	if ok && t.Stop() {
		t.Reset(0)
	}
}

// FlushAll fires every pending function immediately. Used on shutdown, so
// an edit made just before exit does not die with the quiet period.
func (d *Debouncer) FlushAll() {
	d.mu.Lock()
	keys := make([]string, 0, len(d.timers))
	for key := range d.timers {
		keys = append(keys, key)
	}
	d.mu.Unlock()

	for _, key := range keys {
		d.Flush(key)
	}
}

// Stop cancels every pending timer. Functions already dispatched still
// complete; only scheduling is cancelled.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}
