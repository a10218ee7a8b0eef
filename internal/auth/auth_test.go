package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"barkeep/internal/cache"
	"barkeep/internal/config"
	"barkeep/internal/users"

	"github.com/clerk/clerk-sdk-go/v2"
)

func newStorage() *users.Storage {
	return users.NewStorage(cache.NewInMemoryCache())
}

func TestSessionToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := sessionToken(req); got != "" {
		t.Fatalf("expected no token, got %q", got)
	}

	req.AddCookie(&http.Cookie{Name: clerkSessionCookie, Value: "cookie-token"})
	if got := sessionToken(req); got != "cookie-token" {
		t.Fatalf("expected cookie token, got %q", got)
	}

	req.Header.Set("Authorization", "Bearer header-token ")
	if got := sessionToken(req); got != "header-token" {
		t.Fatalf("header should win over cookie, got %q", got)
	}
}

func TestProfileEmailsPrimaryFirst(t *testing.T) {
	primary := "em_2"
	u := &clerk.User{
		PrimaryEmailAddressID: &primary,
		EmailAddresses: []*clerk.EmailAddress{
			{ID: "em_1", EmailAddress: "old@example.com"},
			nil,
			{ID: "em_2", EmailAddress: "main@example.com"},
			{ID: "em_3", EmailAddress: ""},
		},
	}
	got := profileEmails(u)
	want := []string{"main@example.com", "old@example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if profileEmails(nil) != nil {
		t.Fatal("expected nil for nil user")
	}
}

func TestClerkWithoutTokenPassesThrough(t *testing.T) {
	a := &ClerkAuth{storage: newStorage()}
	var sawUser bool
	h := a.WithAuthHTTP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawUser = users.FromContext(r.Context()) != nil
		w.WriteHeader(http.StatusNoContent)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/recipes", nil))
	if rr.Code != http.StatusNoContent || sawUser {
		t.Fatalf("expected anonymous pass through, got %d user=%v", rr.Code, sawUser)
	}
	if _, err := a.GetUserIDFromRequest(httptest.NewRequest(http.MethodGet, "/", nil)); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestClerkMemberCreatedFromProfile(t *testing.T) {
	storage := newStorage()
	calls := 0
	a := &ClerkAuth{
		storage: storage,
		profile: func(_ context.Context, id string) (*clerk.User, error) {
			calls++
			return &clerk.User{EmailAddresses: []*clerk.EmailAddress{{ID: "em", EmailAddress: "Guest@Example.com"}}}, nil
		},
	}
	ctx := context.Background()
	u, err := a.member(ctx, "user_abc")
	if err != nil {
		t.Fatalf("member: %v", err)
	}
	if u.PrimaryEmail() != "guest@example.com" {
		t.Fatalf("unexpected email %q", u.PrimaryEmail())
	}
	if _, err := a.member(ctx, "user_abc"); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("expected clerk to be asked once, got %d", calls)
	}
	email, err := a.GetUserEmail(ctx, "user_abc")
	if err != nil || email != "guest@example.com" {
		t.Fatalf("unexpected email %q %v", email, err)
	}
}

func TestMockSignsInDefaultUser(t *testing.T) {
	storage := newStorage()
	client := Mock(config.MockConfig{Email: "me@example.com"}, storage)

	var got *users.User
	h := client.WithAuthHTTP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = users.FromContext(r.Context())
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil || got.ID != MockUserID || got.PrimaryEmail() != "me@example.com" {
		t.Fatalf("unexpected mock user %+v", got)
	}
	email, err := client.GetUserEmail(context.Background(), MockUserID)
	if err != nil || email != "me@example.com" {
		t.Fatalf("unexpected email %q %v", email, err)
	}
}

func TestMockHonorsCookie(t *testing.T) {
	client := Mock(config.MockConfig{}, newStorage())
	var got *users.User
	h := client.WithAuthHTTP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = users.FromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: users.CookieName, Value: "second"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got == nil || got.ID != "second" || got.PrimaryEmail() != "second@example.com" {
		t.Fatalf("unexpected user %+v", got)
	}
}

func TestRequireUser(t *testing.T) {
	h := RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(users.ContextWithUser(req.Context(), &users.User{ID: "u"}))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
}

func TestNewFromConfig(t *testing.T) {
	if _, err := NewFromConfig(&config.Config{}, newStorage()); err == nil {
		t.Fatal("expected error without clerk key or mocks")
	}
	client, err := NewFromConfig(&config.Config{Mocks: config.MockConfig{Enable: true}}, newStorage())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := client.(*mockClient); !ok {
		t.Fatalf("expected mock client, got %T", client)
	}
}
