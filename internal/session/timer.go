package session

import (
	"fmt"
	"sync"
	"time"
)

// ElapsedTimer counts whole seconds while running. Pausing retains the count;
// resuming continues from it. The container owns one per session and tears it
// down on cancel.
type ElapsedTimer struct {
	mu       sync.Mutex
	seconds  int
	stop     chan struct{} // non-nil while running
	interval time.Duration
}

// NewElapsedTimer returns a stopped timer at zero.
func NewElapsedTimer() *ElapsedTimer {
	return &ElapsedTimer{interval: time.Second}
}

// Start begins (or resumes) counting. No-op if already running.
func (t *ElapsedTimer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return
	}
	stop := make(chan struct{})
	t.stop = stop
	go t.run(stop)
}

func (t *ElapsedTimer) run(stop chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.tick(stop)
		}
	}
}

// tick increments the counter if stop is still the current run. A stale run
// that lost a race with Pause must not touch the count.
func (t *ElapsedTimer) tick(stop chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != stop {
		return
	}
	t.seconds++
}

// Pause stops counting but retains the current value.
func (t *ElapsedTimer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

// Reset pauses the timer and zeroes the count.
func (t *ElapsedTimer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	t.seconds = 0
}

// Seconds returns the current elapsed count.
func (t *ElapsedTimer) Seconds() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seconds
}

// Running reports whether the timer is currently counting.
func (t *ElapsedTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

// setSeconds restores a count, used when resuming a journaled draft.
func (t *ElapsedTimer) setSeconds(s int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seconds = s
}

// FormatElapsed renders seconds as H:MM:SS once an hour has passed, MM:SS
// before that.
func FormatElapsed(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// RestTimer is a preempting countdown. Starting a new countdown always
// cancels the previous one; reaching zero stops the timer and fires the
// completion callback.
type RestTimer struct {
	mu        sync.Mutex
	remaining int
	active    bool
	stop      chan struct{}
	interval  time.Duration
	onFinish  func() // invoked without the lock held
}

// NewRestTimer returns an inactive rest timer. onFinish may be nil; it fires
// each time a countdown reaches zero on its own.
func NewRestTimer(onFinish func()) *RestTimer {
	return &RestTimer{interval: time.Second, onFinish: onFinish}
}

// Start begins a countdown of the given duration in seconds, preempting any
// countdown already running. Durations <= 0 are ignored.
func (t *RestTimer) Start(seconds int) {
	if seconds <= 0 {
		return
	}
	t.mu.Lock()
	if t.stop != nil {
		close(t.stop)
	}
	stop := make(chan struct{})
	t.stop = stop
	t.remaining = seconds
	t.active = true
	t.mu.Unlock()

	go t.run(stop)
}

func (t *RestTimer) run(stop chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if t.tick(stop) {
				return
			}
		}
	}
}

// tick decrements the countdown; returns true when this run is finished,
// either by reaching zero or by having been preempted.
func (t *RestTimer) tick(stop chan struct{}) bool {
	t.mu.Lock()
	if t.stop != stop {
		t.mu.Unlock()
		return true
	}
	t.remaining--
	if t.remaining > 0 {
		t.mu.Unlock()
		return false
	}
	t.remaining = 0
	t.active = false
	t.stop = nil
	finish := t.onFinish
	t.mu.Unlock()

	if finish != nil {
		finish()
	}
	return true
}

// Stop cancels the countdown early and clears the active flag. The finish
// callback does not fire on an early stop.
func (t *RestTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	t.active = false
	t.remaining = 0
}

// Remaining returns the seconds left in the current countdown.
func (t *RestTimer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Active reports whether a countdown is in flight.
func (t *RestTimer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}
