package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"barkeep/internal/config"
	"barkeep/internal/users"
)

const MockUserID = "mock-user"

// mockClient signs every request in, for local development. The user id
// can be switched with the barkeep_user cookie to try several accounts.
type mockClient struct {
	email   string
	storage *users.Storage
}

var _ AuthClient = (*mockClient)(nil)

func Mock(cfg config.MockConfig, storage *users.Storage) AuthClient {
	email := cfg.Email
	if email == "" {
		email = "bartender@example.com"
	}
	return &mockClient{email: email, storage: storage}
}

func (c *mockClient) userID(r *http.Request) string {
	if id := users.CookieUserID(r); id != "" {
		return id
	}
	return MockUserID
}

func (c *mockClient) WithAuthHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := c.userID(r)
		email := c.email
		if id != MockUserID {
			email = id + "@example.com"
		}
		u, err := c.storage.FindOrCreateByID(r.Context(), id, []string{email})
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to load mock user", "user_id", id, "error", err)
			next.ServeHTTP(w, r)
			return
		}
		users.SetCookie(w, u.ID, 24*time.Hour)
		next.ServeHTTP(w, r.WithContext(users.ContextWithUser(r.Context(), u)))
	})
}

func (c *mockClient) GetUserIDFromRequest(r *http.Request) (string, error) {
	if u := users.FromContext(r.Context()); u != nil {
		return u.ID, nil
	}
	return c.userID(r), nil
}

func (c *mockClient) GetUserEmail(ctx context.Context, userID string) (string, error) {
	if u, err := c.storage.GetByID(ctx, userID); err == nil && u.PrimaryEmail() != "" {
		return u.PrimaryEmail(), nil
	}
	return c.email, nil
}
