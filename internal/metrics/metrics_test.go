package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInMemoryRecorder(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.IncSignup("accepted")
	m.IncSignup("accepted")
	m.IncSignup("duplicate")
	m.IncNotification("confirmation", "failed")
	m.IncSignupDeleted()
	m.ObserveSignupDuration(250 * time.Millisecond)

	snap := m.Snapshot()
	if snap.Signups["accepted"] != 2 {
		t.Errorf("accepted = %d, want 2", snap.Signups["accepted"])
	}
	if snap.Signups["duplicate"] != 1 {
		t.Errorf("duplicate = %d, want 1", snap.Signups["duplicate"])
	}
	if snap.Notifications["confirmation/failed"] != 1 {
		t.Errorf("confirmation/failed = %d, want 1", snap.Notifications["confirmation/failed"])
	}
	if snap.SignupsDeleted != 1 {
		t.Errorf("SignupsDeleted = %d, want 1", snap.SignupsDeleted)
	}
	if snap.SignupDurationCount != 1 || snap.SignupDurationTotalNs != int64(250*time.Millisecond) {
		t.Errorf("unexpected duration stats %+v", snap)
	}
}

func TestInMemoryRecorder_SnapshotIsCopy(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.IncSignup("accepted")
	snap := m.Snapshot()
	m.IncSignup("accepted")

	if snap.Signups["accepted"] != 1 {
		t.Error("snapshot should not change after further increments")
	}
}

func TestPrometheusRecorder_Counters(t *testing.T) {
	t.Parallel()

	p := NewPrometheus()
	p.IncSignup("accepted")
	p.IncSignup("rate_limited")
	p.IncSignup("rate_limited")
	p.IncNotification("admin_alert", "sent")
	p.IncSignupDeleted()

	if got := testutil.ToFloat64(p.signups.WithLabelValues("rate_limited")); got != 2 {
		t.Errorf("rate_limited = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.notifications.WithLabelValues("admin_alert", "sent")); got != 1 {
		t.Errorf("admin_alert/sent = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.deleted); got != 1 {
		t.Errorf("deleted = %v, want 1", got)
	}
}

func TestPrometheusRecorder_Handler(t *testing.T) {
	t.Parallel()

	p := NewPrometheus()
	p.IncSignup("accepted")
	p.ObserveSignupDuration(100 * time.Millisecond)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`waitlist_signups_total{outcome="accepted"} 1`,
		"waitlist_signup_duration_seconds_count 1",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestNoopRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder = NewNoop()
	r.IncSignup("accepted")
	r.ObserveSignupDuration(time.Second)
	r.IncNotification("confirmation", "sent")
	r.IncSignupDeleted()
}
