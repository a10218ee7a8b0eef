package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"barkeep/internal/logsink"
	"barkeep/internal/users"
)

type fakeSeeder struct {
	force bool
	n     int
	err   error
}

func (f *fakeSeeder) Seed(_ context.Context, force bool) (int, error) {
	f.force = force
	return f.n, f.err
}

type fakeUsers []users.User

func (f fakeUsers) List(context.Context) ([]users.User, error) { return f, nil }

type fakeSessions struct {
	cutoff time.Time
}

func (f *fakeSessions) Prune(_ context.Context, cutoff time.Time) int {
	f.cutoff = cutoff
	return 2
}

func (f *fakeSessions) Len() int { return 1 }

func serve(h *handler, method, target string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.Register(mux)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

func TestReseedForcesSeed(t *testing.T) {
	seeder := &fakeSeeder{n: 49}
	rr := serve(NewHandler(seeder, fakeUsers{}, &fakeSessions{}, nil), http.MethodPost, "/admin/reseed")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !seeder.force {
		t.Fatal("reseed must overwrite existing entries")
	}
	var body map[string]int
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["written"] != 49 {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestReseedFailure(t *testing.T) {
	seeder := &fakeSeeder{err: errors.New("blob down")}
	rr := serve(NewHandler(seeder, fakeUsers{}, &fakeSessions{}, nil), http.MethodPost, "/admin/reseed")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestUsersListsSummaries(t *testing.T) {
	list := fakeUsers{{ID: "u1", Email: []string{"a@example.com"}, ShoppingList: []string{"negroni", "daiquiri"}}}
	rr := serve(NewHandler(&fakeSeeder{}, list, &fakeSessions{}, nil), http.MethodGet, "/admin/users")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var got []userSummary
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Email != "a@example.com" || got[0].Shopping != 2 {
		t.Fatalf("unexpected users %+v", got)
	}
}

func TestPruneUsesIdleWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions := &fakeSessions{}
	h := NewHandler(&fakeSeeder{}, fakeUsers{}, sessions, nil)
	h.now = func() time.Time { return now }

	rr := serve(h, http.MethodPost, "/admin/sessions/prune?idle=2h")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if want := now.Add(-2 * time.Hour); !sessions.cutoff.Equal(want) {
		t.Fatalf("cutoff %v, want %v", sessions.cutoff, want)
	}

	rr = serve(h, http.MethodPost, "/admin/sessions/prune?idle=-1h")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative idle, got %d", rr.Code)
	}
}

type fakeLogs struct {
	since time.Time
	level slog.Level
}

func (f *fakeLogs) Logs(_ context.Context, since time.Time, minLevel slog.Level) ([]logsink.Entry, error) {
	f.since, f.level = since, minLevel
	return []logsink.Entry{{Msg: "catalog reseeded", Level: "WARN"}}, nil
}

func TestLogsWithoutSink(t *testing.T) {
	rr := serve(NewHandler(&fakeSeeder{}, fakeUsers{}, &fakeSessions{}, nil), http.MethodGet, "/admin/logs")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestLogsParsesWindowAndLevel(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	logs := &fakeLogs{}
	h := NewHandler(&fakeSeeder{}, fakeUsers{}, &fakeSessions{}, logs)
	h.now = func() time.Time { return now }

	rr := serve(h, http.MethodGet, "/admin/logs?hours=6&level=warn")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !logs.since.Equal(now.Add(-6*time.Hour)) || logs.level != slog.LevelWarn {
		t.Fatalf("unexpected query since=%v level=%v", logs.since, logs.level)
	}
	var got []logsink.Entry
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Msg != "catalog reseeded" {
		t.Fatalf("unexpected entries %+v", got)
	}

	for _, q := range []string{"hours=0", "hours=abc", "level=loud"} {
		if rr := serve(h, http.MethodGet, "/admin/logs?"+q); rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, rr.Code)
		}
	}
}
