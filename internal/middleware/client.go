package middleware

import (
	"context"
	"net/http"
	"strings"
)

// ClientKeyKey is the context key for the client identifier.
const ClientKeyKey contextKey = "client_key"

// UnknownClient is the identifier used when no forwarding header is present.
// All such clients share one cooldown slot.
const UnknownClient = "unknown"

// ClientIdentifier returns the first entry of X-Forwarded-For, trimmed, or
// UnknownClient when the header is absent or empty. The header is
// client-controlled; behind a trusted proxy its first entry is the caller.
func ClientIdentifier(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if first, _, _ := strings.Cut(xff, ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	return UnknownClient
}

// ClientKey stores ClientIdentifier(r) in the request context.
func ClientKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ClientKeyKey, ClientIdentifier(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientKey retrieves the client identifier from context, falling back to
// UnknownClient.
func GetClientKey(ctx context.Context) string {
	if key, ok := ctx.Value(ClientKeyKey).(string); ok && key != "" {
		return key
	}
	return UnknownClient
}
