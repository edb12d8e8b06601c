package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSignup_IsValid(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	tests := []struct {
		name   string
		signup *Signup
		want   bool
	}{
		{"complete", &Signup{ID: "01HZX", Email: "a@b.co", SubmissionDate: now}, true},
		{"nil", nil, false},
		{"missing id", &Signup{Email: "a@b.co", SubmissionDate: now}, false},
		{"missing email", &Signup{ID: "01HZX", SubmissionDate: now}, false},
		{"zero date", &Signup{ID: "01HZX", Email: "a@b.co"}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.signup.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSignup_JSONFieldNames(t *testing.T) {
	t.Parallel()

	s := Signup{
		ID:             "01HZXAMPLE",
		Email:          "a@b.co",
		SubmissionDate: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{"id", "email", "submissionDate"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("expected JSON field %q in %s", key, data)
		}
	}
	if fields["submissionDate"] != "2024-05-01T12:00:00Z" {
		t.Errorf("submissionDate = %v, want RFC3339 UTC", fields["submissionDate"])
	}
}
