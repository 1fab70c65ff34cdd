package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dayscape/dayscape-backend/internal/domain"
)

// SubjectResolver turns a bearer token into a verified subject identity.
// *identity.Resolver satisfies this; tests substitute a stub.
type SubjectResolver interface {
	ResolveSubject(ctx context.Context, token string) (domain.SubjectID, json.RawMessage, error)
}

// NewAuthMiddleware enforces Authorization: Bearer <token> for all API endpoints.
//
// On success, it stores the resolved subject (the provider email) in request context.
func NewAuthMiddleware(resolver SubjectResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if authz == "" {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing Authorization header")
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(authz, prefix) {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "malformed Authorization header")
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authz, prefix))
			if token == "" {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
				return
			}

			sub, _, err := resolver.ResolveSubject(r.Context(), token)
			if err != nil {
				writeServiceError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), sub)))
		})
	}
}

// NewDevAuthMiddleware is a local/dev-only auth shim.
//
// It accepts an explicit subject via X-Debug-Subject and stores it in request
// context. If the header is absent, it falls back to defaultSubject (if
// provided). Intended for local Docker workflows where standing up a real
// identity provider is overkill. Do NOT use this in production deployments.
func NewDevAuthMiddleware(defaultSubject string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub := strings.TrimSpace(r.Header.Get("X-Debug-Subject"))
			if sub == "" {
				sub = strings.TrimSpace(defaultSubject)
			}
			if sub == "" {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject (set X-Debug-Subject)")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), domain.SubjectID(sub))))
		})
	}
}
