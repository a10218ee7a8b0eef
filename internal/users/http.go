package users

import (
	"context"
	"net/http"
	"time"
)

const CookieName = "barkeep_user"

type contextKey struct{}

// ContextWithUser attaches the signed in user to ctx.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// FromContext returns the user attached by the auth middleware, or nil.
func FromContext(ctx context.Context) *User {
	u, _ := ctx.Value(contextKey{}).(*User)
	return u
}

// SetCookie stores the user identifier in the browser for the given duration.
func SetCookie(w http.ResponseWriter, userID string, duration time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    userID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(duration),
		MaxAge:   int(duration / time.Second),
	})
}

// ClearCookie removes the stored user identifier from the browser.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

// CookieUserID returns the user id remembered in the browser, if any. It is
// not proof of identity; only auth clients that already trust the caller
// read it.
func CookieUserID(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
