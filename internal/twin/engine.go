package twin

import (
	"sync"
	"time"
)

// Engine holds the most recently built snapshot. Every value crossing its boundary is
// deep-copied, so callers never share memory with the stored state.
type Engine struct {
	// Now is the clock used for default timestamps and simulation anchors.
	Now func() time.Time

	mu      sync.RWMutex
	current *TwinState
}

func NewEngine() *Engine {
	return &Engine{Now: time.Now}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// BuildState constructs a snapshot from c, stores it as current and returns a copy.
func (e *Engine) BuildState(c Context, opts BuildOptions) TwinState {
	if opts.Timestamp.IsZero() {
		opts.Timestamp = e.now()
	}
	s := BuildState(c, opts)
	e.SetCurrent(s)
	return s
}

// Current returns a copy of the stored snapshot; ok is false before the first build.
func (e *Engine) Current() (TwinState, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.current == nil {
		return TwinState{}, false
	}
	return e.current.Clone(), true
}

// SetCurrent replaces the stored snapshot with a copy of s.
func (e *Engine) SetCurrent(s TwinState) {
	c := s.Clone()
	e.mu.Lock()
	e.current = &c
	e.mu.Unlock()
}

func (e *Engine) Simulate(s TwinState, horizonMonths int, interventions []Intervention) SimulatedTwinState {
	return Simulate(s, horizonMonths, interventions, e.now())
}

func (e *Engine) Optimize(s TwinState, g Goal) (Plan, error) {
	return Optimize(s, g, e.now())
}
