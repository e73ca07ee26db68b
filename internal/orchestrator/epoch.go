// Package orchestrator is the decision-and-dispatch core: it owns the
// request lifecycle, the single-slot conversation state, and the branch
// between the chat and device-control paths.
package orchestrator

import (
	"sync"
	"sync/atomic"
	"time"
)

// Epoch identifies the currently authoritative request. Asynchronous
// continuations capture it at dispatch time and must no-op when it has moved
// on. Superseded requests are abandoned, never merged or re-ordered.
type Epoch uint64

// EpochTracker issues epochs and owns the pending unlock timer.
type EpochTracker struct {
	live atomic.Uint64

	mu     sync.Mutex
	unlock *time.Timer
}

// NewEpochTracker creates a tracker at epoch zero.
func NewEpochTracker() *EpochTracker {
	return &EpochTracker{}
}

// BeginNewRequest increments and returns the live epoch, cancelling any
// pending unlock timer from a previous request.
func (t *EpochTracker) BeginNewRequest() Epoch {
	t.mu.Lock()
	if t.unlock != nil {
		t.unlock.Stop()
		t.unlock = nil
	}
	t.mu.Unlock()

	return Epoch(t.live.Add(1))
}

// IsCurrent reports whether e is still the live epoch.
func (t *EpochTracker) IsCurrent(e Epoch) bool {
	return uint64(e) == t.live.Load()
}

// ScheduleUnlock arms fn to run after delay, guarded by e on both ends: the
// timer is not armed for a stale epoch, and fn is skipped if the epoch moved
// on while the timer was pending.
func (t *EpochTracker) ScheduleUnlock(e Epoch, delay time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.IsCurrent(e) {
		return
	}
	if t.unlock != nil {
		t.unlock.Stop()
	}
	t.unlock = time.AfterFunc(delay, func() {
		if t.IsCurrent(e) {
			fn()
		}
	})
}
