package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"barkeep/internal/config"
	"barkeep/internal/users"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwks"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/clerk/clerk-sdk-go/v2/user"
	"github.com/samber/lo"
)

const (
	clerkSessionCookie = "__session"
	bearerPrefix       = "bearer "
	// the local cookie outlives the clerk session; clerk is re-checked on every request that carries a token
	barCookieLifetime = 365 * 24 * time.Hour
)

// ClerkAuth trusts Clerk session JWTs and mirrors each Clerk account into
// users.Storage the first time it is seen.
type ClerkAuth struct {
	storage *users.Storage
	jwks    *jwks.Client
	keys    sync.Map // key id -> *clerk.JSONWebKey
	// profile is user.Get outside of tests
	profile func(ctx context.Context, id string) (*clerk.User, error)
}

var _ AuthClient = (*ClerkAuth)(nil)

func NewClerkAuth(cfg config.ClerkConfig, storage *users.Storage) (*ClerkAuth, error) {
	if !cfg.IsEnabled() {
		return nil, errors.New("clerk secret key is not configured")
	}
	clerk.SetKey(cfg.SecretKey)
	return &ClerkAuth{
		storage: storage,
		jwks:    jwks.NewClient(&clerk.ClientConfig{}),
		profile: user.Get,
	}, nil
}

func (a *ClerkAuth) WithAuthHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		token := sessionToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := a.claims(ctx, token)
		if err == nil {
			var u *users.User
			if u, err = a.member(ctx, claims.Subject); err == nil {
				users.SetCookie(w, u.ID, barCookieLifetime)
				ctx = clerk.ContextWithSessionClaims(users.ContextWithUser(ctx, u), claims)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}
		// a bad token degrades to anonymous rather than failing the request
		slog.WarnContext(ctx, "dropping clerk session", "error", err)
		users.ClearCookie(w)
		next.ServeHTTP(w, r)
	})
}

func (a *ClerkAuth) GetUserIDFromRequest(r *http.Request) (string, error) {
	ctx := r.Context()
	if u := users.FromContext(ctx); u != nil {
		return u.ID, nil
	}
	if claims, ok := clerk.SessionClaimsFromContext(ctx); ok && claims.Subject != "" {
		return claims.Subject, nil
	}
	token := sessionToken(r)
	if token == "" {
		return "", ErrNoSession
	}
	claims, err := a.claims(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	return claims.Subject, nil
}

// GetUserEmail prefers the locally stored address and only asks Clerk when
// the profile has none.
func (a *ClerkAuth) GetUserEmail(ctx context.Context, userID string) (string, error) {
	if u, err := a.storage.GetByID(ctx, userID); err == nil && u.PrimaryEmail() != "" {
		return u.PrimaryEmail(), nil
	}
	p, err := a.profile(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("clerk profile %s: %w", userID, err)
	}
	email, ok := lo.First(profileEmails(p))
	if !ok {
		return "", fmt.Errorf("clerk profile %s lists no email", userID)
	}
	return email, nil
}

// sessionToken reads an Authorization bearer token, falling back to the
// Clerk session cookie set by the frontend SDK.
func sessionToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(header[len(bearerPrefix):])
	}
	if c, err := r.Cookie(clerkSessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func (a *ClerkAuth) claims(ctx context.Context, token string) (*clerk.SessionClaims, error) {
	params := &jwt.VerifyParams{Token: token, JWKSClient: a.jwks}
	key, err := a.signingKey(ctx, token)
	if err != nil {
		return nil, err
	}
	if key != nil {
		params.JWK = key
	}
	return jwt.Verify(ctx, params)
}

// signingKey returns the cached JWK for the token's kid. A nil key with no
// error means the token names no kid and Verify should consult JWKS itself.
func (a *ClerkAuth) signingKey(ctx context.Context, token string) (*clerk.JSONWebKey, error) {
	header, err := jwt.Decode(ctx, &jwt.DecodeParams{Token: token})
	if err != nil {
		return nil, fmt.Errorf("decode session token: %w", err)
	}
	if header == nil || header.KeyID == "" {
		return nil, nil
	}
	if cached, ok := a.keys.Load(header.KeyID); ok {
		return cached.(*clerk.JSONWebKey), nil
	}
	key, err := jwt.GetJSONWebKey(ctx, &jwt.GetJSONWebKeyParams{KeyID: header.KeyID, JWKSClient: a.jwks})
	if err != nil {
		return nil, fmt.Errorf("fetch signing key %s: %w", header.KeyID, err)
	}
	if key != nil {
		a.keys.Store(header.KeyID, key)
	}
	return key, nil
}

// member loads the bar profile for a Clerk subject, creating it from the
// Clerk account on first sight.
func (a *ClerkAuth) member(ctx context.Context, subject string) (*users.User, error) {
	if subject == "" {
		return nil, errors.New("session has no subject")
	}
	u, err := a.storage.GetByID(ctx, subject)
	if !errors.Is(err, users.ErrNotFound) {
		return u, err
	}
	p, err := a.profile(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("clerk profile %s: %w", subject, err)
	}
	return a.storage.FindOrCreateByID(ctx, subject, profileEmails(p))
}

// profileEmails lists the primary address first, then the rest without blanks.
func profileEmails(p *clerk.User) []string {
	if p == nil {
		return nil
	}
	var primary string
	if p.PrimaryEmailAddressID != nil {
		if addr, ok := lo.Find(p.EmailAddresses, func(e *clerk.EmailAddress) bool {
			return e != nil && e.ID == *p.PrimaryEmailAddressID
		}); ok {
			primary = addr.EmailAddress
		}
	}
	rest := lo.FilterMap(p.EmailAddresses, func(e *clerk.EmailAddress, _ int) (string, bool) {
		return lo.FromPtr(e).EmailAddress, e != nil && e.EmailAddress != "" && e.EmailAddress != primary
	})
	if primary == "" {
		return rest
	}
	return append([]string{primary}, rest...)
}
