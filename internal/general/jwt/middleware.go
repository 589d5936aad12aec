package jwt

import (
	"encoding/json"
	"net/http"

	"courier-track/internal/domain/user"
)

// AuthMiddlewareFunc wraps an http.HandlerFunc with bearer-token auth and
// optional role restriction. On success the validated claims are injected
// into the request context.
func AuthMiddlewareFunc(m *Manager, allowed ...user.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, err := m.FromAuthorization(r.Header.Get("Authorization"))
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, err.Error())
				return
			}
			if !RoleAllowed(claims, allowed...) {
				writeAuthError(w, http.StatusForbidden, ErrForbiddenRole.Error())
				return
			}
			next(w, r.WithContext(InjectClaims(r.Context(), claims)))
		}
	}
}

// RequireClaims returns the claims injected by AuthMiddlewareFunc, or nil
// when the request never passed through it.
func RequireClaims(r *http.Request) *Claims {
	claims, ok := FromContext(r.Context())
	if !ok {
		return nil
	}
	return claims
}

func writeAuthError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
