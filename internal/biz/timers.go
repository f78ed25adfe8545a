package biz

import (
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// TimerRegistry owns the one-shot auto-reset timers, keyed by circuit id.
// It guarantees at most one live timer per id (cancel-before-reschedule)
// and supports cancel-all on teardown.
type TimerRegistry struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	logger *log.Helper
}

// NewTimerRegistry creates an empty timer registry.
func NewTimerRegistry(logger log.Logger) *TimerRegistry {
	return &TimerRegistry{
		timers: make(map[string]*time.Timer),
		logger: log.NewHelper(logger),
	}
}

// Schedule arms a one-shot timer for id, cancelling any previously
// scheduled timer for the same id first. fn runs in its own goroutine.
func (r *TimerRegistry) Schedule(id string, d time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.timers[id]; ok {
		prev.Stop()
		r.logger.Debugw("msg", "timer rescheduled", "id", id, "delay", d)
	}

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		// Deregister before running so a callback that reschedules
		// itself does not race with its own entry.
		r.mu.Lock()
		if cur, ok := r.timers[id]; ok && cur == t {
			delete(r.timers, id)
		}
		r.mu.Unlock()

		fn()
	})
	r.timers[id] = t
}

// Cancel stops and removes the timer for id. It reports whether a live
// timer existed.
func (r *TimerRegistry) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.timers[id]
	if !ok {
		return false
	}
	t.Stop()
	delete(r.timers, id)
	return true
}

// CancelAll stops every live timer. Used on teardown and on emergency
// shutdown, where pending auto-resets must not fire.
func (r *TimerRegistry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
}

// Active returns the number of live timers.
func (r *TimerRegistry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}
