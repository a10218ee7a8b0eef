package recipes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"barkeep/internal/cache"
	"barkeep/internal/cocktails"
	"barkeep/internal/inventory"
	"barkeep/internal/mail"
	"barkeep/internal/users"
)

type fakeSender struct {
	sent []mail.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type testEnv struct {
	cache     *cache.InMemoryCache
	inventory *inventory.Storage
	users     *users.Storage
	mailer    *fakeSender
	mux       *http.ServeMux
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	c := cache.NewInMemoryCache()
	rio := IO(c)
	if _, err := rio.Seed(t.Context(), false); err != nil {
		t.Fatalf("seed: %v", err)
	}
	env := &testEnv{
		cache:     c,
		inventory: inventory.NewStorage(c, rio),
		users:     users.NewStorage(c),
		mailer:    &fakeSender{},
		mux:       http.NewServeMux(),
	}
	NewHandler(c, env.inventory, env.users, env.mailer).Register(env.mux)
	return env
}

func (e *testEnv) own(t *testing.T, userID string, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if _, err := e.inventory.Set(t.Context(), userID, id, true); err != nil {
			t.Fatalf("own %s: %v", id, err)
		}
	}
}

func (e *testEnv) do(t *testing.T, u *users.User, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if u != nil {
		req = req.WithContext(users.ContextWithUser(req.Context(), u))
	}
	rr := httptest.NewRecorder()
	e.mux.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rr.Body.String(), err)
	}
	return out
}

func TestListRecipesUnfiltered(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, nil, httptest.NewRequest(http.MethodGet, "/recipes", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	got := decode[listResponse](t, rr)
	seeded, _, _ := SeedCatalog()
	if got.Total != len(seeded) || got.Count != got.Total {
		t.Fatalf("expected all %d recipes, got count=%d total=%d", len(seeded), got.Count, got.Total)
	}
	for _, r := range got.Recipes {
		if r.CanMake {
			t.Fatalf("anonymous callers own nothing, but %s is makeable", r.ID)
		}
	}
}

func TestListRecipesCanMakeAndFacets(t *testing.T) {
	env := newTestEnv(t)
	u := &users.User{ID: "u1"}
	env.own(t, u.ID, "white-rum", "lime-juice", "simple-syrup", "gin", "campari")

	rr := env.do(t, u, httptest.NewRequest(http.MethodGet, "/recipes?can_make=true", nil))
	got := decode[listResponse](t, rr)
	if got.Count != 1 || got.Recipes[0].ID != "daiquiri" || !got.Recipes[0].CanMake {
		t.Fatalf("expected only the daiquiri, got %+v", got.Recipes)
	}

	rr = env.do(t, u, httptest.NewRequest(http.MethodGet, "/recipes?style=Sour&contains_eggs=false", nil))
	got = decode[listResponse](t, rr)
	for _, r := range got.Recipes {
		if r.Style != cocktails.StyleSour || r.Dietary.ContainsEggs {
			t.Fatalf("unexpected recipe %s in sour filter", r.ID)
		}
	}
	if got.Count != 2 {
		t.Fatalf("expected daiquiri and margarita, got %d", got.Count)
	}

	rr = env.do(t, u, httptest.NewRequest(http.MethodGet, "/recipes?primary_spirit=gin&flavor_profiles=Bitter", nil))
	got = decode[listResponse](t, rr)
	if got.Count != 2 {
		t.Fatalf("expected negroni and gin and tonic, got %+v", got.Recipes)
	}
}

func TestListRecipesRejectsUnknownFacet(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, nil, httptest.NewRequest(http.MethodGet, "/recipes?style=Crunchy", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "style") {
		t.Fatalf("expected the facet named in the error, got %s", rr.Body.String())
	}
}

func TestSingleRecipe(t *testing.T) {
	env := newTestEnv(t)
	u := &users.User{ID: "u1"}
	env.own(t, u.ID, "gin", "tonic-water")

	rr := env.do(t, u, httptest.NewRequest(http.MethodGet, "/recipe/gin-and-tonic", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	got := decode[recipeView](t, rr)
	if got.CanMake || len(got.Missing) != 1 || got.Missing[0].Name != "Lime" {
		t.Fatalf("expected lime missing, got %+v", got)
	}

	rr = env.do(t, u, httptest.NewRequest(http.MethodGet, "/recipe/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestCreateCustomRecipe(t *testing.T) {
	env := newTestEnv(t)
	body := `{"name":"House Sour","ingredients":["Gin",{"name":"Lemon Juice","amount":"1 oz"}],"style":"Sour","preparation_steps":["Shake","Strain"]}`

	rr := env.do(t, nil, httptest.NewRequest(http.MethodPost, "/recipes", strings.NewReader(body)))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	u := &users.User{ID: "u1"}
	rr = env.do(t, u, httptest.NewRequest(http.MethodPost, "/recipes", strings.NewReader(body)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	created := decode[cocktails.Recipe](t, rr)
	if created.ID == "" || !created.Custom || created.AuthorID != "u1" || created.CreatedAt.IsZero() {
		t.Fatalf("unexpected created recipe %+v", created)
	}
	if loc := rr.Header().Get("Location"); loc != "/recipe/"+created.ID {
		t.Fatalf("unexpected location %q", loc)
	}
	stored, err := IO(env.cache).Recipe(t.Context(), created.ID)
	if err != nil {
		t.Fatalf("expected stored recipe: %v", err)
	}
	if stored.Ingredients[0].Name != "Gin" {
		t.Fatalf("unexpected ingredients %+v", stored.Ingredients)
	}
}

func TestCreateCustomRecipeValidation(t *testing.T) {
	env := newTestEnv(t)
	u := &users.User{ID: "u1"}
	tests := []struct {
		name, body, want string
	}{
		{"empty body", ``, "request body is empty"},
		{"no ingredients", `{"name":"Nothing","ingredients":[]}`, "ingredients"},
		{"bad style", `{"name":"X","ingredients":["Gin"],"style":"Crunchy"}`, "style"},
		{"unknown field", `{"name":"X","ingredients":["Gin"],"abv":40}`, "abv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, u, httptest.NewRequest(http.MethodPost, "/recipes", strings.NewReader(tt.body)))
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), tt.want) {
				t.Fatalf("expected %q in %s", tt.want, rr.Body.String())
			}
		})
	}
}

func TestSchemaListsFacetValues(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, nil, httptest.NewRequest(http.MethodGet, "/recipes/schema", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var schema struct {
		Required   []string `json:"required"`
		Properties map[string]struct {
			Enum  []string `json:"enum"`
			Items *struct {
				Enum []string `json:"enum"`
			} `json:"items"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &schema); err != nil {
		t.Fatal(err)
	}
	if _, ok := schema.Properties["can_make"]; ok {
		t.Fatal("derived fields must not be in the schema")
	}
	if got := len(schema.Properties["style"].Enum); got != len(cocktails.Styles) {
		t.Fatalf("expected %d styles, got %d", len(cocktails.Styles), got)
	}
	if flavors := schema.Properties["flavor_profiles"].Items; flavors == nil || len(flavors.Enum) != len(cocktails.Flavors) {
		t.Fatalf("expected flavor enum on items, got %+v", flavors)
	}
	if !strings.Contains(strings.Join(schema.Required, ","), "ingredients") {
		t.Fatalf("expected ingredients to be required, got %v", schema.Required)
	}
}

func TestFacets(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, nil, httptest.NewRequest(http.MethodGet, "/recipes/facets", nil))
	got := decode[facetsResponse](t, rr)
	if len(got.Facets["season"]) != len(cocktails.Seasons) || got.CurrentSeason == "" {
		t.Fatalf("unexpected facets %+v", got)
	}
}

func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}
