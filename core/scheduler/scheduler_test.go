package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDeadlineTimersFire(t *testing.T) {
	d := NewDeadlineTimers()
	defer d.Close()
	fired := make(chan string, 1)
	d.Arm("a1", time.Now().Add(10*time.Millisecond), func(id string) { fired <- id })
	select {
	case id := <-fired:
		if id != "a1" {
			t.Fatalf("expected a1 got %s", id)
		}
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	if d.Armed("a1") {
		t.Fatal("timer still armed after firing")
	}
}

func TestDeadlineTimersCancel(t *testing.T) {
	d := NewDeadlineTimers()
	defer d.Close()
	var fired atomic.Bool
	d.Arm("a1", time.Now().Add(20*time.Millisecond), func(string) { fired.Store(true) })
	d.Cancel("a1")
	time.Sleep(50 * time.Millisecond)
	if fired.Load() {
		t.Fatal("cancelled timer fired")
	}
}

func TestDeadlineTimersRearmReplaces(t *testing.T) {
	d := NewDeadlineTimers()
	defer d.Close()
	var count atomic.Int32
	d.Arm("a1", time.Now().Add(10*time.Millisecond), func(string) { count.Add(1) })
	d.Arm("a1", time.Now().Add(20*time.Millisecond), func(string) { count.Add(1) })
	time.Sleep(80 * time.Millisecond)
	if got := count.Load(); got != 1 {
		t.Fatalf("expected exactly one firing, got %d", got)
	}
}

func TestDeadlineTimersClose(t *testing.T) {
	d := NewDeadlineTimers()
	var fired atomic.Bool
	d.Arm("a1", time.Now().Add(10*time.Millisecond), func(string) { fired.Store(true) })
	d.Close()
	time.Sleep(40 * time.Millisecond)
	if fired.Load() {
		t.Fatal("timer fired after Close")
	}
}
