package provider

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeTime struct {
	mu      sync.Mutex
	current time.Time
}

func (f *fakeTime) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeTime) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
}

func newTestHealth(maxFailures int) (*Health, *fakeTime) {
	h := NewHealth(maxFailures)
	ft := &fakeTime{current: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	h.now = ft.Now
	return h, ft
}

func TestHealth_StartsUnknown(t *testing.T) {
	t.Parallel()
	h, _ := newTestHealth(0)
	if h.State() != HealthUnknown {
		t.Errorf("State = %v, want unknown", h.State())
	}
	if h.maxFailures != DefaultMaxFailures {
		t.Errorf("maxFailures = %d, want %d", h.maxFailures, DefaultMaxFailures)
	}
}

func TestHealth_FailureStreak(t *testing.T) {
	t.Parallel()
	h, _ := newTestHealth(3)

	h.RecordFailure(errors.New("boom"))
	if h.State() != HealthDegraded {
		t.Fatalf("after 1 failure: %v, want degraded", h.State())
	}
	h.RecordFailure(errors.New("boom"))
	if h.State() != HealthDegraded {
		t.Fatalf("after 2 failures: %v, want degraded", h.State())
	}
	h.RecordFailure(errors.New("last"))
	if h.State() != HealthDown {
		t.Fatalf("after 3 failures: %v, want down", h.State())
	}

	snap := h.Snapshot()
	if snap.Failures != 3 || snap.LastError != "last" || snap.StateName != "down" {
		t.Errorf("Snapshot = %+v", snap)
	}
}

func TestHealth_SuccessResets(t *testing.T) {
	t.Parallel()
	h, ft := newTestHealth(2)

	h.RecordFailure(errors.New("a"))
	h.RecordFailure(errors.New("b"))
	ft.Advance(time.Minute)
	h.RecordSuccess()

	snap := h.Snapshot()
	if snap.State != HealthHealthy || snap.Failures != 0 || snap.LastError != "" {
		t.Errorf("Snapshot after success = %+v", snap)
	}
	if !snap.LastSuccess.Equal(ft.Now()) {
		t.Errorf("LastSuccess = %v, want %v", snap.LastSuccess, ft.Now())
	}
	if !snap.LastFailure.Before(snap.LastSuccess) {
		t.Error("LastFailure should precede LastSuccess")
	}
}

func TestHealth_OnChangeOnlyOnTransition(t *testing.T) {
	t.Parallel()
	h, _ := newTestHealth(2)

	var transitions [][2]HealthState
	h.OnChange = func(from, to HealthState) {
		transitions = append(transitions, [2]HealthState{from, to})
	}

	h.RecordSuccess()
	h.RecordSuccess()
	h.RecordFailure(nil)
	h.RecordFailure(nil)
	h.RecordFailure(nil)
	h.RecordSuccess()

	want := [][2]HealthState{
		{HealthUnknown, HealthHealthy},
		{HealthHealthy, HealthDegraded},
		{HealthDegraded, HealthDown},
		{HealthDown, HealthHealthy},
	}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition[%d] = %v, want %v", i, transitions[i], want[i])
		}
	}
}

func TestHealthState_String(t *testing.T) {
	t.Parallel()
	tests := []struct {
		state HealthState
		want  string
	}{
		{HealthUnknown, "unknown"},
		{HealthHealthy, "healthy"},
		{HealthDegraded, "degraded"},
		{HealthDown, "down"},
		{HealthState(42), "invalid"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("HealthState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
