package provider

import (
	"sync"
	"time"
)

// HealthState represents the observed availability of the remote backend.
type HealthState int

// HealthState values, ordered from best to worst.
const (
	HealthUnknown  HealthState = iota // no request made yet
	HealthHealthy                     // last request succeeded
	HealthDegraded                    // recent failures, below the threshold
	HealthDown                        // MaxFailures consecutive failures
)

// String returns a human-readable label for the health state.
func (s HealthState) String() string {
	switch s {
	case HealthUnknown:
		return "unknown"
	case HealthHealthy:
		return "healthy"
	case HealthDegraded:
		return "degraded"
	case HealthDown:
		return "down"
	default:
		return "invalid"
	}
}

// DefaultMaxFailures is the number of consecutive failures after which the
// backend is reported down.
const DefaultMaxFailures = 5

// HealthSnapshot is a point-in-time copy of a Health tracker.
type HealthSnapshot struct {
	State       HealthState `json:"-"`
	StateName   string      `json:"state"`
	Failures    int         `json:"consecutive_failures"`
	LastError   string      `json:"last_error,omitempty"`
	LastSuccess time.Time   `json:"last_success,omitzero"`
	LastFailure time.Time   `json:"last_failure,omitzero"`
}

// Health records the outcome of remote attempts for status reporting.
// It never blocks a request: the pipeline always tries a configured remote.
type Health struct {
	maxFailures int

	// OnChange is called outside the lock whenever the state transitions.
	OnChange func(from, to HealthState)

	mu          sync.Mutex
	state       HealthState
	failures    int
	lastErr     string
	lastSuccess time.Time
	lastFailure time.Time

	// now is injectable for testing. Defaults to time.Now.
	now func() time.Time
}

// NewHealth creates a tracker in the unknown state. A maxFailures below 1
// selects DefaultMaxFailures.
func NewHealth(maxFailures int) *Health {
	if maxFailures < 1 {
		maxFailures = DefaultMaxFailures
	}
	return &Health{
		maxFailures: maxFailures,
		now:         time.Now,
	}
}

// RecordSuccess resets the failure streak.
func (h *Health) RecordSuccess() {
	h.mu.Lock()
	prev := h.state
	h.state = HealthHealthy
	h.failures = 0
	h.lastErr = ""
	h.lastSuccess = h.now()
	h.mu.Unlock()

	h.notify(prev, HealthHealthy)
}

// RecordFailure extends the failure streak with err.
func (h *Health) RecordFailure(err error) {
	h.mu.Lock()
	prev := h.state
	h.failures++
	next := HealthDegraded
	if h.failures >= h.maxFailures {
		next = HealthDown
	}
	h.state = next
	if err != nil {
		h.lastErr = err.Error()
	}
	h.lastFailure = h.now()
	h.mu.Unlock()

	h.notify(prev, next)
}

func (h *Health) notify(from, to HealthState) {
	if from != to && h.OnChange != nil {
		h.OnChange(from, to)
	}
}

// State returns the current health state.
func (h *Health) State() HealthState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Snapshot returns a copy of the tracker's fields.
func (h *Health) Snapshot() HealthSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return HealthSnapshot{
		State:       h.state,
		StateName:   h.state.String(),
		Failures:    h.failures,
		LastError:   h.lastErr,
		LastSuccess: h.lastSuccess,
		LastFailure: h.lastFailure,
	}
}
