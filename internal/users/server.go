package users

import (
	"errors"
	"log/slog"
	"net/http"

	"barkeep/internal/api"
)

type server struct {
	storage *Storage
}

// NewHandler serves the profile and settings routes under /user.
func NewHandler(storage *Storage) *server {
	return &server{storage: storage}
}

func (s *server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /user", s.handleUser)
	mux.HandleFunc("GET /user/settings", s.handleGetSettings)
	mux.HandleFunc("POST /user/settings", s.handleSaveSettings)
}

func (s *server) handleUser(w http.ResponseWriter, r *http.Request) {
	currentUser := FromContext(r.Context())
	if currentUser == nil {
		api.Error(w, r, http.StatusUnauthorized, "sign in required", nil)
		return
	}
	api.WriteJSON(w, r, http.StatusOK, currentUser)
}

func (s *server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	currentUser := FromContext(r.Context())
	if currentUser == nil {
		api.WriteJSON(w, r, http.StatusOK, Settings{}.WithDefaults())
		return
	}
	api.WriteJSON(w, r, http.StatusOK, currentUser.Settings.WithDefaults())
}

func (s *server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	currentUser := FromContext(ctx)
	if currentUser == nil {
		api.Error(w, r, http.StatusUnauthorized, "sign in required", nil)
		return
	}
	var settings Settings
	if err := api.DecodeJSON(w, r, &settings); err != nil {
		api.Error(w, r, http.StatusBadRequest, "invalid settings", err)
		return
	}
	if err := settings.Validate(); err != nil {
		api.Error(w, r, http.StatusBadRequest, "invalid settings", err)
		return
	}

	// reload so a stale context copy does not clobber a concurrent update
	fresh, err := s.storage.GetByID(ctx, currentUser.ID)
	if errors.Is(err, ErrNotFound) {
		fresh = currentUser
	} else if err != nil {
		api.Error(w, r, http.StatusInternalServerError, "unable to load account", err)
		return
	}
	fresh.Settings = settings.WithDefaults()
	if err := s.storage.Update(ctx, fresh); err != nil {
		api.Error(w, r, http.StatusInternalServerError, "unable to save settings", err)
		return
	}
	slog.InfoContext(ctx, "saved settings", "user_id", fresh.ID, "theme", fresh.Settings.Theme, "units", fresh.Settings.Units)
	api.WriteJSON(w, r, http.StatusOK, fresh.Settings)
}
