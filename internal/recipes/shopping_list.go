package recipes

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"sort"
	"strings"

	"barkeep/internal/api"
	"barkeep/internal/cocktails"
	"barkeep/internal/ingredients"
	"barkeep/internal/mail"
	"barkeep/internal/users"

	"github.com/samber/lo"
)

const otherCategory = "Other"

type ShoppingItem struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Amounts  []string `json:"amounts,omitempty"`
	Recipes  []string `json:"recipes"`
}

type ShoppingGroup struct {
	Category string         `json:"category"`
	Items    []ShoppingItem `json:"items"`
}

type ShoppingList struct {
	RecipeIDs []string        `json:"recipe_ids"`
	Groups    []ShoppingGroup `json:"groups"`
}

// IsEmpty is true when nothing needs buying.
func (l ShoppingList) IsEmpty() bool {
	return len(l.Groups) == 0
}

// BuildShoppingList collects what the bar is missing for recipes, grouped by
// catalog category. bar is a full inventory snapshot; its unowned entries
// still supply names and categories.
func BuildShoppingList(recipes []cocktails.Recipe, bar []cocktails.Ingredient) ShoppingList {
	owned := ingredients.Owned(bar)
	items := map[string]*ShoppingItem{}
	for _, recipe := range recipes {
		for _, ri := range ingredients.Missing(recipe, owned) {
			key, item := "name:"+ingredients.Normalize(ri.Name), ShoppingItem{Name: ri.Name, Category: otherCategory}
			if match, ok := ingredients.BestMatch(ri.Name, bar); ok {
				key = "id:" + match.ID
				item.Name = match.Name
				item.Category = lo.CoalesceOrEmpty(match.Category, otherCategory)
			}
			existing, ok := items[key]
			if !ok {
				existing = &item
				items[key] = existing
			}
			if ri.Amount != "" {
				existing.Amounts = append(existing.Amounts, ri.Amount)
			}
			existing.Recipes = lo.Uniq(append(existing.Recipes, recipe.Name))
		}
	}

	groups := map[string][]ShoppingItem{}
	for _, item := range items {
		groups[item.Category] = append(groups[item.Category], *item)
	}
	categories := lo.Keys(groups)
	sort.Strings(categories)

	list := ShoppingList{
		RecipeIDs: lo.Map(recipes, func(r cocktails.Recipe, _ int) string { return r.ID }),
		Groups:    make([]ShoppingGroup, 0, len(categories)),
	}
	for _, category := range categories {
		group := groups[category]
		slices.SortFunc(group, func(a, b ShoppingItem) int {
			return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
		list.Groups = append(list.Groups, ShoppingGroup{Category: category, Items: group})
	}
	return list
}

// shoppingListFor loads the user's saved recipes and builds their list.
// Recipes that have since disappeared are skipped.
func (s *server) shoppingListFor(ctx context.Context, u *users.User) (ShoppingList, error) {
	saved := make([]cocktails.Recipe, 0, len(u.ShoppingList))
	for _, id := range u.ShoppingList {
		recipe, err := s.Recipe(ctx, id)
		if errors.Is(err, ErrNotFound) {
			slog.WarnContext(ctx, "shopping list recipe no longer exists", "recipe_id", id, "user_id", u.ID)
			continue
		}
		if err != nil {
			return ShoppingList{}, err
		}
		saved = append(saved, *recipe)
	}
	bar, err := s.inventory.Snapshot(ctx, u.ID)
	if err != nil {
		return ShoppingList{}, err
	}
	return BuildShoppingList(saved, bar), nil
}

// freshUser rereads the signed in user so list edits start from the stored
// record rather than the request's copy.
func (s *server) freshUser(ctx context.Context, u *users.User) (*users.User, error) {
	fresh, err := s.storage.GetByID(ctx, u.ID)
	if errors.Is(err, users.ErrNotFound) {
		return u, nil
	}
	return fresh, err
}

func (s *server) handleShoppingList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	currentUser := users.FromContext(ctx)
	if currentUser == nil {
		api.Error(w, r, http.StatusUnauthorized, "sign in required", nil)
		return
	}
	currentUser, err := s.freshUser(ctx, currentUser)
	if err != nil {
		api.Error(w, r, http.StatusInternalServerError, "unable to load account", err)
		return
	}
	list, err := s.shoppingListFor(ctx, currentUser)
	if err != nil {
		api.Error(w, r, http.StatusInternalServerError, "unable to build shopping list", err)
		return
	}
	api.WriteJSON(w, r, http.StatusOK, list)
}

func (s *server) handleAddToShoppingList(w http.ResponseWriter, r *http.Request) {
	recipeID := strings.TrimSpace(r.FormValue("recipe_id"))
	if recipeID == "" {
		api.Error(w, r, http.StatusBadRequest, "recipe_id is required", nil)
		return
	}
	s.editShoppingList(w, r, func(ctx context.Context, u *users.User) (int, error) {
		if _, err := s.Recipe(ctx, recipeID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return http.StatusNotFound, err
			}
			return http.StatusInternalServerError, err
		}
		if !u.HasShoppingListRecipe(recipeID) {
			u.ShoppingList = append(u.ShoppingList, recipeID)
			slog.InfoContext(ctx, "added recipe to shopping list", "recipe_id", recipeID, "user_id", u.ID)
		}
		return http.StatusOK, nil
	})
}

func (s *server) handleRemoveFromShoppingList(w http.ResponseWriter, r *http.Request) {
	recipeID := r.PathValue("id")
	s.editShoppingList(w, r, func(_ context.Context, u *users.User) (int, error) {
		u.ShoppingList = lo.Without(u.ShoppingList, recipeID)
		return http.StatusOK, nil
	})
}

func (s *server) editShoppingList(w http.ResponseWriter, r *http.Request, edit func(context.Context, *users.User) (int, error)) {
	ctx := r.Context()
	currentUser := users.FromContext(ctx)
	if currentUser == nil {
		api.Error(w, r, http.StatusUnauthorized, "sign in required", nil)
		return
	}

	s.listMu.Lock()
	defer s.listMu.Unlock()
	fresh, err := s.freshUser(ctx, currentUser)
	if err != nil {
		api.Error(w, r, http.StatusInternalServerError, "unable to load account", err)
		return
	}
	if status, err := edit(ctx, fresh); err != nil {
		if status == http.StatusNotFound {
			api.Error(w, r, status, "recipe not found", nil)
			return
		}
		api.Error(w, r, status, "unable to update shopping list", err)
		return
	}
	if err := s.storage.Update(ctx, fresh); err != nil {
		api.Error(w, r, http.StatusInternalServerError, "unable to save shopping list", err)
		return
	}
	list, err := s.shoppingListFor(ctx, fresh)
	if err != nil {
		api.Error(w, r, http.StatusInternalServerError, "unable to build shopping list", err)
		return
	}
	api.WriteJSON(w, r, http.StatusOK, list)
}

func (s *server) handleEmailShoppingList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	currentUser := users.FromContext(ctx)
	if currentUser == nil {
		api.Error(w, r, http.StatusUnauthorized, "sign in required", nil)
		return
	}
	currentUser, err := s.freshUser(ctx, currentUser)
	if err != nil {
		api.Error(w, r, http.StatusInternalServerError, "unable to load account", err)
		return
	}
	if len(currentUser.Email) == 0 {
		api.Error(w, r, http.StatusBadRequest, "no email address on file", nil)
		return
	}
	list, err := s.shoppingListFor(ctx, currentUser)
	if err != nil {
		api.Error(w, r, http.StatusInternalServerError, "unable to build shopping list", err)
		return
	}
	if list.IsEmpty() {
		api.Error(w, r, http.StatusBadRequest, "shopping list is empty", nil)
		return
	}
	msg, err := shoppingListMessage(currentUser.Email, list)
	if err != nil {
		api.Error(w, r, http.StatusInternalServerError, "unable to render shopping list", err)
		return
	}
	err = s.mailer.Send(ctx, msg)
	if errors.Is(err, mail.ErrDisabled) {
		api.Error(w, r, http.StatusServiceUnavailable, "email is not available", nil)
		return
	}
	if err != nil {
		api.Error(w, r, http.StatusBadGateway, "unable to send shopping list", err)
		return
	}
	slog.InfoContext(ctx, "emailed shopping list", "user_id", currentUser.ID, "recipes", len(list.RecipeIDs))
	w.WriteHeader(http.StatusNoContent)
}

var shoppingListHTML = template.Must(template.New("shoppinglist").Funcs(template.FuncMap{"join": strings.Join}).Parse(`<!DOCTYPE html>
<html><body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;">
<h1>Your shopping list</h1>
{{range .Groups}}<h2>{{.Category}}</h2>
<ul>{{range .Items}}<li><strong>{{.Name}}</strong>{{if .Amounts}} ({{join .Amounts ", "}}){{end}} for {{join .Recipes ", "}}</li>{{end}}</ul>
{{end}}</body></html>
`))

func shoppingListMessage(to []string, list ShoppingList) (mail.Message, error) {
	var text strings.Builder
	text.WriteString("Your shopping list\n")
	for _, group := range list.Groups {
		fmt.Fprintf(&text, "\n%s\n", group.Category)
		for _, item := range group.Items {
			fmt.Fprintf(&text, "- %s", item.Name)
			if len(item.Amounts) > 0 {
				fmt.Fprintf(&text, " (%s)", strings.Join(item.Amounts, ", "))
			}
			fmt.Fprintf(&text, " for %s\n", strings.Join(item.Recipes, ", "))
		}
	}
	var html bytes.Buffer
	if err := shoppingListHTML.Execute(&html, list); err != nil {
		return mail.Message{}, err
	}
	return mail.Message{
		To:      to,
		Subject: "Your Barkeep shopping list",
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
