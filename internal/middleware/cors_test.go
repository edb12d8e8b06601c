package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name           string
		allowedOrigins []string
		requestOrigin  string
		method         string
		wantStatus     int
		wantHeader     string
	}{
		{
			name:          "no origins configured blocks all",
			requestOrigin: "https://example.com",
			method:        http.MethodPost,
			wantStatus:    http.StatusOK,
		},
		{
			name:           "allowed origin gets header",
			allowedOrigins: []string{"https://nawab.co"},
			requestOrigin:  "https://nawab.co",
			method:         http.MethodPost,
			wantStatus:     http.StatusOK,
			wantHeader:     "https://nawab.co",
		},
		{
			name:           "disallowed origin blocked on preflight",
			allowedOrigins: []string{"https://nawab.co"},
			requestOrigin:  "https://evil.com",
			method:         http.MethodOptions,
			wantStatus:     http.StatusForbidden,
		},
		{
			name:           "disallowed origin passes through without header",
			allowedOrigins: []string{"https://nawab.co"},
			requestOrigin:  "https://evil.com",
			method:         http.MethodPost,
			wantStatus:     http.StatusOK,
		},
		{
			name:           "preflight returns no content",
			allowedOrigins: []string{"https://nawab.co"},
			requestOrigin:  "https://nawab.co",
			method:         http.MethodOptions,
			wantStatus:     http.StatusNoContent,
			wantHeader:     "https://nawab.co",
		},
		{
			name:           "case insensitive origin match",
			allowedOrigins: []string{"HTTPS://NAWAB.CO"},
			requestOrigin:  "https://nawab.co",
			method:         http.MethodGet,
			wantStatus:     http.StatusOK,
			wantHeader:     "https://nawab.co",
		},
		{
			name:           "wildcard subdomain matches",
			allowedOrigins: []string{"*.nawab.co"},
			requestOrigin:  "https://www.nawab.co",
			method:         http.MethodGet,
			wantStatus:     http.StatusOK,
			wantHeader:     "https://www.nawab.co",
		},
		{
			name:           "wildcard does not match lookalike domain",
			allowedOrigins: []string{"*.nawab.co"},
			requestOrigin:  "https://notnawab.co",
			method:         http.MethodGet,
			wantStatus:     http.StatusOK,
		},
		{
			name:           "no origin header skips CORS",
			allowedOrigins: []string{"https://nawab.co"},
			method:         http.MethodGet,
			wantStatus:     http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCORSConfig()
			cfg.AllowedOrigins = tt.allowedOrigins

			handler := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, "/api/signup", nil)
			if tt.requestOrigin != "" {
				req.Header.Set("Origin", tt.requestOrigin)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			got := rec.Header().Get("Access-Control-Allow-Origin")
			if got != tt.wantHeader {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantHeader)
			}
		})
	}
}

func TestCORSPreflightHeaders(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://nawab.co"}

	handler := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/admin/emails/abc", nil)
	req.Header.Set("Origin", "https://nawab.co")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodDelete) {
		t.Errorf("Access-Control-Allow-Methods = %q, want DELETE included", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Content-Type") {
		t.Errorf("Access-Control-Allow-Headers = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Max-Age"); got != "86400" {
		t.Errorf("Access-Control-Max-Age = %q, want 86400", got)
	}
	if got := rec.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, "Retry-After") {
		t.Errorf("Access-Control-Expose-Headers = %q, want Retry-After exposed", got)
	}
}
