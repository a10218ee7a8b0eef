package recipes

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"barkeep/internal/api"
	"barkeep/internal/cache"
	"barkeep/internal/cocktails"
	"barkeep/internal/filter"
	"barkeep/internal/ingredients"
	"barkeep/internal/mail"
	"barkeep/internal/seasons"
	"barkeep/internal/users"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("barkeep/internal/recipes")

// Inventory reports which catalog ingredients a user owns.
type Inventory interface {
	Snapshot(ctx context.Context, userID string) ([]cocktails.Ingredient, error)
}

type server struct {
	recipeio
	inventory Inventory
	storage   *users.Storage
	mailer    mail.Sender
	// serializes shopping list read-modify-write
	listMu sync.Mutex
}

// NewHandler returns the catalog, custom recipe and shopping list endpoints.
func NewHandler(c cache.ListCache, inventory Inventory, storage *users.Storage, mailer mail.Sender) *server {
	return &server{
		recipeio:  recipeio{Cache: c},
		inventory: inventory,
		storage:   storage,
		mailer:    mailer,
	}
}

func (s *server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /recipes", s.handleRecipes)
	mux.HandleFunc("POST /recipes", s.handleCreate)
	mux.HandleFunc("GET /recipes/schema", s.handleSchema)
	mux.HandleFunc("GET /recipes/facets", s.handleFacets)
	mux.HandleFunc("GET /recipe/{id}", s.handleSingle)
	mux.HandleFunc("GET /shoppinglist", s.handleShoppingList)
	mux.HandleFunc("POST /shoppinglist", s.handleAddToShoppingList)
	mux.HandleFunc("DELETE /shoppinglist/{id}", s.handleRemoveFromShoppingList)
	mux.HandleFunc("POST /shoppinglist/email", s.handleEmailShoppingList)
}

type listResponse struct {
	Recipes []cocktails.Recipe `json:"recipes"`
	Count   int                `json:"count"`
	Total   int                `json:"total"`
}

type recipeView struct {
	cocktails.Recipe
	Missing []cocktails.RecipeIngredient `json:"missing"`
}

func userID(ctx context.Context) string {
	if u := users.FromContext(ctx); u != nil {
		return u.ID
	}
	return ""
}

// catalogAndBar loads every recipe and the caller's bar at the same time.
func (s *server) catalogAndBar(ctx context.Context) ([]cocktails.Recipe, []cocktails.Ingredient, error) {
	var (
		all []cocktails.Recipe
		bar []cocktails.Ingredient
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		all, err = s.Recipes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		bar, err = s.inventory.Snapshot(gctx, userID(ctx))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return all, bar, nil
}

func (s *server) handleRecipes(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "recipes.list")
	defer span.End()

	cfg, err := filter.ParseQuery(r.URL.Query())
	if err != nil {
		api.Error(w, r, http.StatusBadRequest, "invalid filter", err)
		return
	}
	all, bar, err := s.catalogAndBar(ctx)
	if err != nil {
		api.Error(w, r, http.StatusInternalServerError, "unable to load recipes", err)
		return
	}

	_, fspan := tracer.Start(ctx, "recipes.filter")
	annotated := ingredients.Annotate(all, ingredients.Owned(bar))
	matched := filter.Apply(annotated, cfg)
	fspan.SetAttributes(
		attribute.Int("recipes.total", len(all)),
		attribute.Int("recipes.matched", len(matched)),
		attribute.Bool("recipes.filtered", !cfg.IsZero()),
	)
	fspan.End()

	api.WriteJSON(w, r, http.StatusOK, listResponse{Recipes: matched, Count: len(matched), Total: len(all)})
}

func (s *server) handleSingle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	recipe, err := s.Recipe(ctx, id)
	if errors.Is(err, ErrNotFound) {
		api.Error(w, r, http.StatusNotFound, "recipe not found", nil)
		return
	}
	if err != nil {
		api.Error(w, r, http.StatusInternalServerError, "unable to load recipe", err)
		return
	}
	bar, err := s.inventory.Snapshot(ctx, userID(ctx))
	if err != nil {
		api.Error(w, r, http.StatusInternalServerError, "unable to load bar", err)
		return
	}
	owned := ingredients.Owned(bar)
	recipe.CanMake = ingredients.CanMake(*recipe, owned)
	slog.InfoContext(ctx, "serving recipe", "id", id)
	api.WriteJSON(w, r, http.StatusOK, recipeView{Recipe: *recipe, Missing: ingredients.Missing(*recipe, owned)})
}

func (s *server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	currentUser := users.FromContext(ctx)
	if currentUser == nil {
		api.Error(w, r, http.StatusUnauthorized, "sign in required", nil)
		return
	}
	var recipe cocktails.Recipe
	if err := api.DecodeJSON(w, r, &recipe); err != nil {
		api.Error(w, r, http.StatusBadRequest, "invalid recipe", err)
		return
	}
	recipe.ID = uuid.NewString()
	recipe.Custom = true
	recipe.AuthorID = currentUser.ID
	recipe.CreatedAt = time.Now().UTC()
	recipe.CanMake = false
	if err := recipe.Validate(); err != nil {
		api.Error(w, r, http.StatusBadRequest, "invalid recipe", err)
		return
	}
	if err := s.SaveRecipe(ctx, recipe); err != nil {
		api.Error(w, r, http.StatusInternalServerError, "unable to save recipe", err)
		return
	}
	slog.InfoContext(ctx, "created custom recipe", "id", recipe.ID, "name", recipe.Name, "user_id", currentUser.ID)
	w.Header().Set("Location", "/recipe/"+recipe.ID)
	api.WriteJSON(w, r, http.StatusCreated, recipe)
}

var recipeSchema = sync.OnceValue(func() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		ExpandedStruct:             true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	schema := reflector.Reflect(&cocktails.Recipe{})
	schema.Title = "Custom recipe"
	for name, values := range cocktails.Facets() {
		prop, ok := schema.Properties.Get(name)
		if !ok {
			continue
		}
		enum := make([]any, len(values))
		for i, v := range values {
			enum[i] = v
		}
		if prop.Items != nil {
			prop.Items.Enum = enum
		} else {
			prop.Enum = enum
		}
	}
	return schema
})

func (s *server) handleSchema(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, r, http.StatusOK, recipeSchema())
}

type facetsResponse struct {
	Facets        map[string][]string `json:"facets"`
	CurrentSeason cocktails.Season    `json:"current_season"`
}

func (s *server) handleFacets(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, r, http.StatusOK, facetsResponse{
		Facets:        cocktails.Facets(),
		CurrentSeason: seasons.GetCurrentSeason(),
	})
}
