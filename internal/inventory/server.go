package inventory

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"barkeep/internal/api"
	"barkeep/internal/barcode"
	"barkeep/internal/cocktails"
	"barkeep/internal/ingredients"
	"barkeep/internal/users"
)

// Lookup resolves a scanned barcode to a product name.
type Lookup interface {
	Lookup(ctx context.Context, code string) (barcode.Product, error)
}

type server struct {
	storage *Storage
	lookup  Lookup
}

// NewHandler serves the virtual bar under /bar.
func NewHandler(storage *Storage, lookup Lookup) *server {
	return &server{storage: storage, lookup: lookup}
}

func (s *server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /bar", s.handleBar)
	mux.HandleFunc("POST /bar/scan", s.handleScan)
	mux.HandleFunc("POST /bar/{id}", s.handleSet)
}

type scanResult struct {
	Product    barcode.Product       `json:"product"`
	Ingredient *cocktails.Ingredient `json:"ingredient,omitempty"`
}

func (s *server) handleBar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	currentUser := users.FromContext(ctx)
	if currentUser == nil {
		api.Error(w, r, http.StatusUnauthorized, "sign in required", nil)
		return
	}
	snapshot, err := s.storage.Snapshot(ctx, currentUser.ID)
	if err != nil {
		api.Error(w, r, http.StatusInternalServerError, "unable to load bar", err)
		return
	}
	api.WriteJSON(w, r, http.StatusOK, snapshot)
}

func (s *server) handleSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	currentUser := users.FromContext(ctx)
	if currentUser == nil {
		api.Error(w, r, http.StatusUnauthorized, "sign in required", nil)
		return
	}
	owned, err := strconv.ParseBool(strings.TrimSpace(r.FormValue("owned")))
	if err != nil {
		api.Error(w, r, http.StatusBadRequest, "owned must be true or false", nil)
		return
	}
	ing, err := s.storage.Set(ctx, currentUser.ID, r.PathValue("id"), owned)
	if errors.Is(err, ErrNotFound) {
		api.Error(w, r, http.StatusNotFound, "ingredient not found", nil)
		return
	}
	if err != nil {
		api.Error(w, r, http.StatusInternalServerError, "unable to update bar", err)
		return
	}
	slog.InfoContext(ctx, "updated bar", "user_id", currentUser.ID, "ingredient", ing.ID, "owned", owned)
	api.WriteJSON(w, r, http.StatusOK, ing)
}

func (s *server) handleScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	currentUser := users.FromContext(ctx)
	if currentUser == nil {
		api.Error(w, r, http.StatusUnauthorized, "sign in required", nil)
		return
	}
	product, err := s.lookup.Lookup(ctx, r.FormValue("code"))
	switch {
	case errors.Is(err, barcode.ErrInvalidCode):
		api.Error(w, r, http.StatusBadRequest, "invalid barcode", err)
		return
	case errors.Is(err, barcode.ErrNotFound):
		api.Error(w, r, http.StatusNotFound, "no product for barcode", nil)
		return
	case err != nil:
		api.Error(w, r, http.StatusBadGateway, "barcode lookup failed", err)
		return
	}

	all, err := s.storage.catalog.Ingredients(ctx)
	if err != nil {
		api.Error(w, r, http.StatusInternalServerError, "unable to load ingredients", err)
		return
	}
	match, ok := ingredients.BestMatch(product.Title, all)
	if !ok {
		slog.InfoContext(ctx, "scanned product matches no ingredient", "code", product.Code, "title", product.Title)
		api.WriteJSON(w, r, http.StatusUnprocessableEntity, scanResult{Product: product})
		return
	}
	ing, err := s.storage.Set(ctx, currentUser.ID, match.ID, true)
	if err != nil {
		api.Error(w, r, http.StatusInternalServerError, "unable to update bar", err)
		return
	}
	slog.InfoContext(ctx, "scanned bottle into bar", "user_id", currentUser.ID, "code", product.Code, "ingredient", ing.ID)
	api.WriteJSON(w, r, http.StatusOK, scanResult{Product: product, Ingredient: &ing})
}
