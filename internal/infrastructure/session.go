package infrastructure

import (
	"sync"
	"sync/atomic"
	"time"
)

// RunGuard lets one run through at a time. A caller arriving while a run is
// in flight is turned away, not queued.
type RunGuard struct {
	running atomic.Bool

	mu         sync.Mutex
	lastStart  time.Time
	lastFinish time.Time
}

// RunStatus is a snapshot of a RunGuard.
type RunStatus struct {
	Running        bool       `json:"running"`
	LastStartedAt  *time.Time `json:"last_started_at,omitempty"`
	LastFinishedAt *time.Time `json:"last_finished_at,omitempty"`
}

// TryStart claims the guard; it returns false if a run is already in flight.
func (g *RunGuard) TryStart() bool {
	if !g.running.CompareAndSwap(false, true) {
		return false
	}
	g.mu.Lock()
	g.lastStart = time.Now()
	g.mu.Unlock()
	return true
}

// Finish releases the guard.
func (g *RunGuard) Finish() {
	g.mu.Lock()
	g.lastFinish = time.Now()
	g.mu.Unlock()
	g.running.Store(false)
}

func (g *RunGuard) Running() bool {
	return g.running.Load()
}

func (g *RunGuard) Status() RunStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := RunStatus{Running: g.running.Load()}
	if !g.lastStart.IsZero() {
		t := g.lastStart
		st.LastStartedAt = &t
	}
	if !g.lastFinish.IsZero() {
		t := g.lastFinish
		st.LastFinishedAt = &t
	}
	return st
}
