package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncSignup is a no-op.
func (n *NoopRecorder) IncSignup(outcome string) {}

// ObserveSignupDuration is a no-op.
func (n *NoopRecorder) ObserveSignupDuration(duration time.Duration) {}

// IncNotification is a no-op.
func (n *NoopRecorder) IncNotification(kind, status string) {}

// IncSignupDeleted is a no-op.
func (n *NoopRecorder) IncSignupDeleted() {}
