package bartender

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"barkeep/internal/api"
	"barkeep/internal/cocktails"
	"barkeep/internal/recipes"
	"barkeep/internal/users"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const sessionIdleTimeout = 12 * time.Hour

var tracer = otel.Tracer("barkeep/internal/bartender")

// Catalog is the part of the recipe store the bartender reads.
type Catalog interface {
	Recipes(ctx context.Context) ([]cocktails.Recipe, error)
	Recipe(ctx context.Context, id string) (*cocktails.Recipe, error)
}

type server struct {
	catalog  Catalog
	sessions *MemoryStore
	recent   RecentStore
}

func NewHandler(catalog Catalog, sessions *MemoryStore, recent RecentStore) *server {
	return &server{catalog: catalog, sessions: sessions, recent: recent}
}

func (s *server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /bartender", s.handleStart)
	mux.HandleFunc("GET /bartender/search", s.handleSearch)
	mux.HandleFunc("GET /bartender/{id}", s.handleShow)
	mux.HandleFunc("DELETE /bartender/{id}", s.handleExit)
	mux.HandleFunc("POST /bartender/{id}/select", s.handleSelect)
	mux.HandleFunc("POST /bartender/{id}/next", s.handleNext)
	mux.HandleFunc("POST /bartender/{id}/previous", s.handlePrevious)
}

// view is what clients render: the session plus the step to display.
type view struct {
	Session
	Recipe *cocktails.Recipe `json:"recipe,omitempty"`
	Step   string            `json:"step,omitempty"`
	// StepNumber is 1-indexed for display; 0 when no step is shown.
	StepNumber int  `json:"step_number"`
	StepCount  int  `json:"step_count"`
	NoSteps    bool `json:"no_steps,omitempty"`
}

func render(n *Navigator) view {
	v := view{Session: n.Session()}
	if r, ok := n.Recipe(); ok {
		v.Recipe = &r
		v.StepCount = r.StepCount()
		v.NoSteps = v.StepCount == 0
	}
	if step, ok := n.CurrentStep(); ok {
		v.Step = step
		v.StepNumber = v.CurrentStepIndex + 1
	}
	return v
}

func owner(r *http.Request) string {
	if u := users.FromContext(r.Context()); u != nil {
		return u.ID
	}
	return AnonymousOwner
}

func (s *server) handleStart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "bartender.start")
	defer span.End()

	if pruned := s.sessions.Prune(ctx, time.Now().Add(-sessionIdleTimeout)); pruned > 0 {
		slog.InfoContext(ctx, "pruned idle bartender sessions", "count", pruned)
	}
	n := NewNavigator(ctx, uuid.NewString(), owner(r), s.recent)
	s.sessions.Save(ctx, n)
	span.SetAttributes(attribute.String("bartender.session_id", n.Session().ID))
	slog.InfoContext(ctx, "started bartender session", "session_id", n.Session().ID, "owner", n.Session().Owner)
	api.WriteJSON(w, r, http.StatusCreated, render(n))
}

// load finds the session named in the path and checks it belongs to the
// caller. Someone else's session is reported as missing.
func (s *server) load(w http.ResponseWriter, r *http.Request) (*Navigator, bool) {
	n, err := s.sessions.Load(r.Context(), r.PathValue("id"))
	if err == nil && n.Session().Owner != owner(r) {
		err = ErrSessionNotFound
	}
	if err != nil {
		api.Error(w, r, http.StatusNotFound, "bartender session not found", nil)
		return nil, false
	}
	return n, true
}

func (s *server) handleShow(w http.ResponseWriter, r *http.Request) {
	n, ok := s.load(w, r)
	if !ok {
		return
	}
	api.WriteJSON(w, r, http.StatusOK, render(n))
}

func (s *server) handleExit(w http.ResponseWriter, r *http.Request) {
	n, ok := s.load(w, r)
	if !ok {
		return
	}
	n.Exit()
	if err := s.sessions.Delete(r.Context(), n.Session().ID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		api.Error(w, r, http.StatusInternalServerError, "unable to end session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleSelect(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "bartender.select")
	defer span.End()

	n, ok := s.load(w, r)
	if !ok {
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
	n.Select(ctx, *recipe)
	span.SetAttributes(
		attribute.String("bartender.session_id", n.Session().ID),
		attribute.String("bartender.recipe_id", recipe.ID),
		attribute.Int("bartender.step_count", recipe.StepCount()),
	)
	api.WriteJSON(w, r, http.StatusOK, render(n))
}

func (s *server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, "bartender.next", (*Navigator).Next)
}

func (s *server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, "bartender.previous", (*Navigator).Previous)
}

func (s *server) step(w http.ResponseWriter, r *http.Request, name string, move func(*Navigator) Session) {
	_, span := tracer.Start(r.Context(), name)
	defer span.End()

	n, ok := s.load(w, r)
	if !ok {
		return
	}
	after := move(n)
	recordMode(span, after)
	api.WriteJSON(w, r, http.StatusOK, render(n))
}

func recordMode(span trace.Span, s Session) {
	span.SetAttributes(
		attribute.String("bartender.session_id", s.ID),
		attribute.String("bartender.mode", string(s.Mode)),
		attribute.Int("bartender.step_index", s.CurrentStepIndex),
	)
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "bartender.search")
	defer span.End()

	all, err := s.catalog.Recipes(ctx)
	if err != nil {
		api.Error(w, r, http.StatusInternalServerError, "unable to load recipes", err)
		return
	}
	result := Search(r.URL.Query().Get("q"), all)
	span.SetAttributes(attribute.Int("bartender.results", len(result.Recipes)))
	api.WriteJSON(w, r, http.StatusOK, result)
}
