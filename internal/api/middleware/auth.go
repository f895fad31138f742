// Package middleware holds the HTTP middleware of the API layer.
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/avelasco/docqa/internal/api/ctxkeys"
	pkgauth "github.com/avelasco/docqa/pkg/auth"
)

// RequireAuth validates the Bearer token on every request and injects the
// client name into the context. Mounted only when an auth secret is
// configured; an unauthenticated deployment never sees this middleware.
//
// Flow:
//  1. Read "Authorization: Bearer <token>"
//  2. Reject missing or non-Bearer headers with 401
//  3. Parse and validate the JWT, 401 on invalid or expired
//  4. Inject ctxkeys.Client and call the next handler
func RequireAuth(authn *pkgauth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				writeUnauthorized(w, "missing or invalid Authorization header")
				return
			}

			claims, err := authn.ParseToken(token)
			if err != nil {
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			ctx := ctxkeys.WithValue(r.Context(), ctxkeys.Client, claims.Client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken extracts the token from "Authorization: Bearer <token>".
// Returns empty string if the header is missing, has the wrong scheme, or
// carries an empty token.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	// Scheme is case-sensitive per RFC 7235.
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// writeUnauthorized writes a 401 JSON response in the same shape the
// handlers package uses for errors.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message}) //nolint:errcheck
}
