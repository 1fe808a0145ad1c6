package scheduler

import (
	"sync"
	"time"
)

// DeadlineTimers arms one timer per assignment id and fires a callback when
// the deadline elapses. Arming an id that already has a timer replaces it.
type DeadlineTimers struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool

	// now is swappable for tests.
	now func() time.Time
}

// NewDeadlineTimers creates an empty registry.
func NewDeadlineTimers() *DeadlineTimers {
	return &DeadlineTimers{timers: make(map[string]*time.Timer), now: time.Now}
}

// Arm schedules fire to run once the deadline has passed. A deadline already
// in the past fires immediately on a separate goroutine.
func (d *DeadlineTimers) Arm(id string, deadline time.Time, fire func(id string)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if t, ok := d.timers[id]; ok {
		t.Stop()
	}
	delay := deadline.Sub(d.now())
	if delay < 0 {
		delay = 0
	}
	d.timers[id] = time.AfterFunc(delay, func() {
		d.mu.Lock()
		delete(d.timers, id)
		closed := d.closed
		d.mu.Unlock()
		if !closed {
			fire(id)
		}
	})
}

// Cancel stops the timer for the given id if one is armed.
func (d *DeadlineTimers) Cancel(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[id]; ok {
		t.Stop()
		delete(d.timers, id)
	}
}

// Armed reports whether a timer is currently registered for the id.
func (d *DeadlineTimers) Armed(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.timers[id]
	return ok
}

// Close stops all timers. Callbacks scheduled after Close do not run.
func (d *DeadlineTimers) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for id, t := range d.timers {
		t.Stop()
		delete(d.timers, id)
	}
}
