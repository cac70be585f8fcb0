package progress

import "sync"

// Checkpoints reported by the summarize pipeline.
const (
	Idle         = 0
	Resolving    = 20
	Downloading  = 60
	Transcribing = 80
	Done         = 100
)

// Reporter receives progress updates for one running invocation.
type Reporter interface {
	Reset()
	Set(value int)
}

// Tracker is a single-valued progress gauge. Values are stored as given;
// callers keep them within [0,100].
type Tracker struct {
	mu    sync.RWMutex
	value int
}

// NewTracker creates a tracker reading Idle.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Reset moves the gauge back to Idle.
func (t *Tracker) Reset() {
	t.Set(Idle)
}

// Set stores value.
func (t *Tracker) Set(value int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.value = value
}

// Get returns the current value.
func (t *Tracker) Get() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.value
}

type multi []Reporter

func (m multi) Reset() {
	for _, r := range m {
		r.Reset()
	}
}

func (m multi) Set(value int) {
	for _, r := range m {
		r.Set(value)
	}
}

// Multi fans every update out to all reporters in order. Nil entries are skipped.
func Multi(reporters ...Reporter) Reporter {
	out := make(multi, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
