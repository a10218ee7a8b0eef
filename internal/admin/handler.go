// Package admin serves operator endpoints behind an email allow list.
package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"barkeep/internal/api"
	"barkeep/internal/logsink"
	"barkeep/internal/users"
)

type Seeder interface {
	Seed(ctx context.Context, force bool) (int, error)
}

type UserLister interface {
	List(ctx context.Context) ([]users.User, error)
}

// SessionPruner drops bartender sessions idle since before cutoff.
type SessionPruner interface {
	Prune(ctx context.Context, cutoff time.Time) int
	Len() int
}

type LogReader interface {
	Logs(ctx context.Context, since time.Time, minLevel slog.Level) ([]logsink.Entry, error)
}

type handler struct {
	seeder   Seeder
	users    UserLister
	sessions SessionPruner
	logs     LogReader
	now      func() time.Time
}

// NewHandler creates a new admin HTTP handler. logs may be nil when no log
// sink is configured.
func NewHandler(seeder Seeder, userList UserLister, sessions SessionPruner, logs LogReader) *handler {
	return &handler{
		seeder:   seeder,
		users:    userList,
		sessions: sessions,
		logs:     logs,
		now:      time.Now,
	}
}

// Register registers the admin handler routes
func (h *handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /admin/reseed", h.handleReseed)
	mux.HandleFunc("GET /admin/users", h.handleUsers)
	mux.HandleFunc("POST /admin/sessions/prune", h.handlePrune)
	mux.HandleFunc("GET /admin/logs", h.handleLogs)
}

type userSummary struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	Shopping  int       `json:"shopping_list_size"`
}

func (h *handler) handleReseed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	written, err := h.seeder.Seed(ctx, true)
	if err != nil {
		api.Error(w, r, http.StatusInternalServerError, "failed to reseed catalog", err)
		return
	}
	slog.InfoContext(ctx, "catalog reseeded", "written", written)
	api.WriteJSON(w, r, http.StatusOK, map[string]int{"written": written})
}

func (h *handler) handleUsers(w http.ResponseWriter, r *http.Request) {
	usersList, err := h.users.List(r.Context())
	if err != nil {
		api.Error(w, r, http.StatusInternalServerError, "unable to list users", err)
		return
	}
	out := make([]userSummary, 0, len(usersList))
	for _, u := range usersList {
		out = append(out, userSummary{
			ID:        u.ID,
			Email:     u.PrimaryEmail(),
			CreatedAt: u.CreatedAt,
			Shopping:  len(u.ShoppingList),
		})
	}
	api.WriteJSON(w, r, http.StatusOK, out)
}

// handlePrune drops sessions idle longer than ?idle= (a Go duration, default 12h).
func (h *handler) handlePrune(w http.ResponseWriter, r *http.Request) {
	idle := 12 * time.Hour
	if raw := r.URL.Query().Get("idle"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			api.Error(w, r, http.StatusBadRequest, "idle must be a positive duration", err)
			return
		}
		idle = d
	}
	pruned := h.sessions.Prune(r.Context(), h.now().Add(-idle))
	slog.InfoContext(r.Context(), "pruned bartender sessions", "pruned", pruned, "idle", idle.String())
	api.WriteJSON(w, r, http.StatusOK, map[string]int{
		"pruned":    pruned,
		"remaining": h.sessions.Len(),
	})
}

// handleLogs serves sink entries from the last ?hours= (default 24) at or
// above ?level= (default INFO).
func (h *handler) handleLogs(w http.ResponseWriter, r *http.Request) {
	if h.logs == nil {
		api.Error(w, r, http.StatusServiceUnavailable, "log sink is not configured", nil)
		return
	}
	hours := 24
	if raw := r.URL.Query().Get("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			api.Error(w, r, http.StatusBadRequest, "hours must be a positive integer", nil)
			return
		}
		hours = n
	}
	level := slog.LevelInfo
	if raw := r.URL.Query().Get("level"); raw != "" {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			api.Error(w, r, http.StatusBadRequest, "unknown level", err)
			return
		}
	}
	entries, err := h.logs.Logs(r.Context(), h.now().Add(-time.Duration(hours)*time.Hour), level)
	if err != nil {
		api.Error(w, r, http.StatusInternalServerError, "failed to read logs", err)
		return
	}
	if entries == nil {
		entries = []logsink.Entry{}
	}
	api.WriteJSON(w, r, http.StatusOK, entries)
}
