// Package auth identifies the caller and attaches their profile to the
// request context.
package auth

import (
	"context"
	"errors"
	"net/http"

	"barkeep/internal/api"
	"barkeep/internal/users"
)

var ErrNoSession = errors.New("no session")

type AuthClient interface {
	// WithAuthHTTP wraps next so signed in requests carry their user in the
	// context. Anonymous requests pass through untouched.
	WithAuthHTTP(next http.Handler) http.Handler
	GetUserIDFromRequest(r *http.Request) (string, error)
	GetUserEmail(ctx context.Context, userID string) (string, error)
}

// RequireUser rejects requests that reached it without a signed in user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if users.FromContext(r.Context()) == nil {
			api.Error(w, r, http.StatusUnauthorized, "sign in required", ErrNoSession)
			return
		}
		next.ServeHTTP(w, r)
	})
}
