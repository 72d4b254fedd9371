package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/medibook/clinic-platform/internal/auth"
)

type contextKey string

const credentialKey contextKey = "credential"

// RequireAuth enforces a Bearer JWT and stores the parsed session credential
// in the request context.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "authentication disabled", http.StatusUnauthorized)
				return
			}
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			cred, err := auth.ParseToken(secret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), credentialKey, cred)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows only the listed roles past. It must run after
// RequireAuth.
func RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	allowed := make(map[auth.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred, ok := CredentialFromContext(r.Context())
			if !ok {
				http.Error(w, "missing credential", http.StatusUnauthorized)
				return
			}
			if !allowed[cred.Role] {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CredentialFromContext returns the session credential if present.
func CredentialFromContext(ctx context.Context) (auth.Credential, bool) {
	cred, ok := ctx.Value(credentialKey).(auth.Credential)
	return cred, ok
}

// WithCredential injects a credential into the context; used by tests.
func WithCredential(ctx context.Context, cred auth.Credential) context.Context {
	return context.WithValue(ctx, credentialKey, cred)
}
