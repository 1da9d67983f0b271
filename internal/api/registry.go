package api

import (
	"context"
	"sync"

	"handsim/internal/sim"
)

// MatchEntry is one registered match with its lifecycle controls.
type MatchEntry struct {
	Match  *sim.Match
	Cancel context.CancelFunc
	Hub    *WebSocketHub
}

// Registry tracks the matches running in this process. It caps concurrency
// and keeps finished matches around so results stay queryable until the
// entry is deleted.
type Registry struct {
	mu      sync.RWMutex
	matches map[string]*MatchEntry
	max     int
}

// NewRegistry creates a registry allowing up to max concurrent matches.
func NewRegistry(max int) *Registry {
	return &Registry{
		matches: make(map[string]*MatchEntry),
		max:     max,
	}
}

// Add registers a match. Returns false when the registry is full.
func (r *Registry) Add(entry *MatchEntry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	running := 0
	for _, e := range r.matches {
		if _, done := e.Match.Result(); !done {
			running++
		}
	}
	if running >= r.max {
		return false
	}
	r.matches[entry.Match.ID] = entry
	return true
}

// Get returns a registered match entry.
func (r *Registry) Get(id string) (*MatchEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.matches[id]
	return e, ok
}

// Remove aborts (if still running) and forgets a match. Stopping the hub
// here releases its goroutine and any watchers still attached.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.matches[id]
	if !ok {
		return false
	}
	e.Cancel()
	if e.Hub != nil {
		e.Hub.Stop()
	}
	delete(r.matches, id)
	return true
}

// List returns all registered entries.
func (r *Registry) List() []*MatchEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*MatchEntry, 0, len(r.matches))
	for _, e := range r.matches {
		out = append(out, e)
	}
	return out
}

// RunningCount returns the number of unfinished matches.
func (r *Registry) RunningCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.matches {
		if _, done := e.Match.Result(); !done {
			n++
		}
	}
	return n
}
