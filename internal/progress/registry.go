package progress

import (
	"errors"
	"sync"
)

// ErrJobExists is returned when a job id is registered twice.
var ErrJobExists = errors.New("job already registered")

// Registry keeps one Tracker per in-flight invocation.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Tracker
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Tracker)}
}

// Start registers a fresh tracker for jobID.
func (r *Registry) Start(jobID string) (*Tracker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[jobID]; ok {
		return nil, ErrJobExists
	}
	t := NewTracker()
	r.jobs[jobID] = t
	return t, nil
}

// Get returns the job's progress, or Idle for unknown ids.
func (r *Registry) Get(jobID string) int {
	r.mu.RLock()
	t, ok := r.jobs[jobID]
	r.mu.RUnlock()
	if !ok {
		return Idle
	}
	return t.Get()
}

// Finish drops the tracker for jobID.
func (r *Registry) Finish(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, jobID)
}

// Active reports how many invocations are registered.
func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
