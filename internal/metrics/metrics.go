// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, tests, etc.
type Recorder interface {
	// Signup metrics
	IncSignup(outcome string) // outcome: accepted, invalid, rate_limited, duplicate, store_error
	ObserveSignupDuration(duration time.Duration)

	// Notification metrics
	IncNotification(kind, status string) // kind: confirmation, admin_alert; status: sent, failed

	// Admin metrics
	IncSignupDeleted()
}
