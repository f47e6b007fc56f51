package monitor

import (
	"sync"

	"github.com/JonMunkholm/fakeprinter/internal/engine"
)

// Tracker keeps the latest progress of a run and its final result. The
// engine writes through Observe and Finish; HTTP handlers read snapshots.
type Tracker struct {
	mu       sync.RWMutex
	progress engine.Progress
	result   *engine.Result
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Observe records p. It has the signature of engine.Observer.
func (t *Tracker) Observe(p engine.Progress) {
	t.mu.Lock()
	t.progress = p
	t.mu.Unlock()
}

// Finish records the final result of the run.
func (t *Tracker) Finish(res engine.Result) {
	t.mu.Lock()
	t.result = &res
	t.mu.Unlock()
}

// Progress returns the latest snapshot.
func (t *Tracker) Progress() engine.Progress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.progress
}

// Result returns the final result, or false while the run is in progress.
func (t *Tracker) Result() (engine.Result, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.result == nil {
		return engine.Result{}, false
	}
	return *t.result, true
}
