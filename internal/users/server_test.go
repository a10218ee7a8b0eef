package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serve(t *testing.T, storage *Storage, u *User, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	NewHandler(storage).Register(mux)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if u != nil {
		req = req.WithContext(ContextWithUser(req.Context(), u))
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestSettingsDefaultsForAnonymous(t *testing.T) {
	rr := serve(t, newTestStorage(t), nil, http.MethodGet, "/user/settings", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var got Settings
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Theme != "system" || got.Units != "oz" {
		t.Fatalf("unexpected defaults %+v", got)
	}
}

func TestSaveSettings(t *testing.T) {
	storage := newTestStorage(t)
	u, err := storage.FindOrCreateByID(context.Background(), "user-1", []string{"user@example.com"})
	if err != nil {
		t.Fatal(err)
	}

	rr := serve(t, storage, u, http.MethodPost, "/user/settings", `{"theme":"dark","units":"ml"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	stored, err := storage.GetByID(context.Background(), "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Settings.Theme != "dark" || stored.Settings.Units != "ml" {
		t.Fatalf("settings not persisted: %+v", stored.Settings)
	}
}

func TestSaveSettingsRejectsUnknownTheme(t *testing.T) {
	storage := newTestStorage(t)
	u := &User{ID: "user-1"}
	rr := serve(t, storage, u, http.MethodPost, "/user/settings", `{"theme":"neon"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "theme must be one of") {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestSaveSettingsRequiresUser(t *testing.T) {
	rr := serve(t, newTestStorage(t), nil, http.MethodPost, "/user/settings", `{"theme":"dark"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
