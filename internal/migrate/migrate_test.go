package migrate

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/lib/pq"

	"github.com/nawabco/waitlist/migrations"
)

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name          string
		filename      string
		wantVersion   int
		wantName      string
		wantDirection string
		wantErr       bool
	}{
		{"up", "000001_signups.up.sql", 1, "signups", "up", false},
		{"down", "000012_add_index.down.sql", 12, "add_index", "down", false},
		{"no direction", "000001_signups.sql", 0, "", "", true},
		{"no name", "000001.up.sql", 0, "", "", true},
		{"bad number", "abc_signups.up.sql", 0, "", "", true},
		{"zero version", "000000_init.up.sql", 0, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, name, direction, err := parseFilename(tt.filename)
			if tt.wantErr {
				if !errors.Is(err, ErrBadFilename) {
					t.Fatalf("expected ErrBadFilename, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if version != tt.wantVersion || name != tt.wantName || direction != tt.wantDirection {
				t.Errorf("got (%d, %q, %q)", version, name, direction)
			}
		})
	}
}

func TestLoad_Embedded(t *testing.T) {
	migs, err := Load(migrations.FS)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(migs) == 0 {
		t.Fatal("expected embedded migrations")
	}
	if migs[0].Version != 1 || migs[0].Name != "signups" {
		t.Errorf("first migration = %d %q", migs[0].Version, migs[0].Name)
	}
	if migs[0].Up == "" || migs[0].Down == "" {
		t.Error("first migration must have up and down SQL")
	}
}

func TestLoad_SortsAndValidates(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_b.up.sql":   {Data: []byte("SELECT 2")},
		"000002_b.down.sql": {Data: []byte("SELECT -2")},
		"000001_a.up.sql":   {Data: []byte("SELECT 1")},
		"000001_a.down.sql": {Data: []byte("SELECT -1")},
		"README.md":         {Data: []byte("ignored")},
	}

	migs, err := Load(fsys)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(migs) != 2 || migs[0].Version != 1 || migs[1].Version != 2 {
		t.Fatalf("unexpected order: %+v", migs)
	}

	delete(fsys, "000002_b.down.sql")
	if _, err := Load(fsys); !errors.Is(err, ErrMissingDown) {
		t.Errorf("expected ErrMissingDown, got %v", err)
	}
}

func TestDescribe(t *testing.T) {
	err := describe(&pq.Error{Code: "42P01", Message: "relation does not exist"})
	if err == nil || !strings.Contains(err.Error(), "42P01") || !strings.Contains(err.Error(), "relation does not exist") {
		t.Errorf("describe() = %v", err)
	}

	plain := errors.New("plain")
	if describe(plain) != plain {
		t.Error("non-pq errors must pass through unchanged")
	}
}
