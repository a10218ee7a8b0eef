package admin

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"barkeep/internal/auth"
	"barkeep/internal/config"
	"barkeep/internal/users"

	"github.com/samber/lo"
)

type gate struct {
	auth   auth.AuthClient
	admins map[string]struct{}
}

// New builds the allow list from cfg.Admin.Emails. An empty list admits any
// signed in user, which is how local development runs.
func New(cfg *config.Config, authClient auth.AuthClient) *gate {
	emails := lo.Compact(lo.Map(cfg.Admin.Emails, func(e string, _ int) string { return canonicalEmail(e) }))
	return &gate{auth: authClient, admins: lo.Keyify(emails)}
}

// Enforce answers 404 rather than 401 or 403 so the admin surface stays hidden.
func (g *gate) Enforce(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, err := g.callerEmail(r)
		if err != nil {
			if !errors.Is(err, auth.ErrNoSession) {
				slog.WarnContext(r.Context(), "admin caller not identified", "error", err)
			}
			http.NotFound(w, r)
			return
		}
		if !g.allows(email) {
			slog.InfoContext(r.Context(), "admin access refused", "email", email, "path", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// callerEmail uses the profile already attached by WithAuthHTTP and only
// goes back to the auth provider when that profile has no address.
func (g *gate) callerEmail(r *http.Request) (string, error) {
	if u := users.FromContext(r.Context()); u != nil && u.PrimaryEmail() != "" {
		return u.PrimaryEmail(), nil
	}
	userID, err := g.auth.GetUserIDFromRequest(r)
	if err != nil {
		return "", err
	}
	email, err := g.auth.GetUserEmail(r.Context(), userID)
	if err != nil {
		return "", fmt.Errorf("email for %s: %w", userID, err)
	}
	return email, nil
}

func (g *gate) allows(email string) bool {
	if len(g.admins) == 0 {
		return true
	}
	_, ok := g.admins[canonicalEmail(email)]
	return ok
}

func canonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
