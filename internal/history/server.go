package history

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"barkeep/internal/api"
	"barkeep/internal/cocktails"
	"barkeep/internal/recipes"
	"barkeep/internal/seasons"
	"barkeep/internal/users"
)

const defaultDays = 30

// Catalog resolves recipe ids to recipes.
type Catalog interface {
	Recipe(ctx context.Context, id string) (*cocktails.Recipe, error)
}

type server struct {
	storage *HistoryStorage
	catalog Catalog
}

func NewHandler(storage *HistoryStorage, catalog Catalog) *server {
	return &server{storage: storage, catalog: catalog}
}

func (s *server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /history", s.handleRecent)
	mux.HandleFunc("POST /history", s.handleRecord)
}

func (s *server) handleRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	currentUser := users.FromContext(ctx)
	if currentUser == nil {
		api.Error(w, r, http.StatusUnauthorized, "sign in required", nil)
		return
	}
	days := defaultDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			api.Error(w, r, http.StatusBadRequest, "days must be a positive integer", nil)
			return
		}
		days = n
	}
	entries, err := s.storage.Recent(ctx, currentUser.ID, days)
	if err != nil {
		api.Error(w, r, http.StatusInternalServerError, "unable to load history", err)
		return
	}
	api.WriteJSON(w, r, http.StatusOK, History{Entries: entries})
}

func (s *server) handleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	currentUser := users.FromContext(ctx)
	if currentUser == nil {
		api.Error(w, r, http.StatusUnauthorized, "sign in required", nil)
		return
	}
	recipeID := strings.TrimSpace(r.FormValue("recipe_id"))
	if recipeID == "" {
		api.Error(w, r, http.StatusBadRequest, "recipe_id is required", nil)
		return
	}
	recipe, err := s.catalog.Recipe(ctx, recipeID)
	if errors.Is(err, recipes.ErrNotFound) {
		api.Error(w, r, http.StatusNotFound, "recipe not found", nil)
		return
	}
	if err != nil {
		api.Error(w, r, http.StatusInternalServerError, "unable to load recipe", err)
		return
	}
	now := s.storage.now()
	entry := Entry{RecipeID: recipe.ID, Name: recipe.Name, Season: seasons.GetSeason(now), MadeAt: now}
	if err := s.storage.Record(ctx, currentUser.ID, entry); err != nil {
		api.Error(w, r, http.StatusInternalServerError, "unable to record history", err)
		return
	}
	slog.InfoContext(ctx, "recorded drink", "user_id", currentUser.ID, "recipe_id", recipe.ID)
	api.WriteJSON(w, r, http.StatusCreated, entry)
}
