package metrics

import (
	"sync"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Signups               map[string]uint64
	Notifications         map[string]uint64 // keyed "kind/status"
	SignupsDeleted        uint64
	SignupDurationCount   uint64
	SignupDurationTotalNs int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu                    sync.Mutex
	signups               map[string]uint64
	notifications         map[string]uint64
	signupsDeleted        uint64
	signupDurationCount   uint64
	signupDurationTotalNs int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		signups:       make(map[string]uint64),
		notifications: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Signups:               make(map[string]uint64, len(m.signups)),
		Notifications:         make(map[string]uint64, len(m.notifications)),
		SignupsDeleted:        m.signupsDeleted,
		SignupDurationCount:   m.signupDurationCount,
		SignupDurationTotalNs: m.signupDurationTotalNs,
	}
	for k, v := range m.signups {
		snap.Signups[k] = v
	}
	for k, v := range m.notifications {
		snap.Notifications[k] = v
	}
	return snap
}

// IncSignup increments the counter for outcome.
func (m *InMemoryRecorder) IncSignup(outcome string) {
	m.mu.Lock()
	m.signups[outcome]++
	m.mu.Unlock()
}

// ObserveSignupDuration records signup handling duration.
func (m *InMemoryRecorder) ObserveSignupDuration(duration time.Duration) {
	m.mu.Lock()
	m.signupDurationCount++
	m.signupDurationTotalNs += duration.Nanoseconds()
	m.mu.Unlock()
}

// IncNotification increments the counter for kind and status.
func (m *InMemoryRecorder) IncNotification(kind, status string) {
	m.mu.Lock()
	m.notifications[kind+"/"+status]++
	m.mu.Unlock()
}

// IncSignupDeleted increments the deleted counter.
func (m *InMemoryRecorder) IncSignupDeleted() {
	m.mu.Lock()
	m.signupsDeleted++
	m.mu.Unlock()
}
