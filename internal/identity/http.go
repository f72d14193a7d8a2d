// ABOUTME: HTTP middleware for session authentication on API endpoints
// ABOUTME: Extracts the session token from the Authorization header and adds the credential to context

package identity

import (
	"net/http"
	"strings"
)

// BearerToken extracts a bearer token from the Authorization header.
// Returns "" when the header is missing or malformed.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// RequireCredential creates an HTTP middleware that rejects requests without
// a resolvable session. The credential is available via FromContext.
func RequireCredential(a *Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				http.Error(w, `{"error":"missing session token"}`, http.StatusUnauthorized)
				return
			}

			cred, err := a.Resolve(r.Context(), token)
			if err != nil {
				http.Error(w, `{"error":"invalid session token"}`, http.StatusUnauthorized)
				return
			}
			if cred == nil {
				http.Error(w, `{"error":"not signed in"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCredential(r.Context(), cred)))
		})
	}
}
