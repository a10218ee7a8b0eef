package ingredients

import (
	"strings"

	"barkeep/internal/cocktails"

	"github.com/samber/lo"
)

// IsAvailable reports whether ingredientName is covered by anything in inventory.
// Callers pass only the owned ingredients; InInventory is not consulted here.
func IsAvailable(ingredientName string, inventory []cocktails.Ingredient) bool {
	query := Normalize(ingredientName)
	if query == "" {
		return false
	}
	for _, item := range inventory {
		if matchNormalized(query, Normalize(item.Name)) {
			return true
		}
	}
	return false
}

// Matches applies the availability rule to a single pair of names.
func Matches(a, b string) bool {
	return matchNormalized(Normalize(a), Normalize(b))
}

func matchNormalized(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if !strings.Contains(a, b) && !strings.Contains(b, a) {
		return false
	}
	shorter, longer := strings.Split(a, " "), strings.Split(b, " ")
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	for _, w := range shorter {
		if !lo.ContainsBy(longer, func(x string) bool { return wordMatches(w, x) }) {
			return false
		}
	}
	return true
}

// wordMatches allows "orange" to pair with "orange-peel" and "orange-peel"
// with "orange", but never "gin" with "ginger".
func wordMatches(w, x string) bool {
	return w == x || strings.HasPrefix(x, w+"-") || strings.HasPrefix(w, x+"-")
}

// CanMake is true when every ingredient of the recipe is available. A recipe
// with no ingredients is invalid and never makeable.
func CanMake(recipe cocktails.Recipe, inventory []cocktails.Ingredient) bool {
	if len(recipe.Ingredients) == 0 {
		return false
	}
	return lo.EveryBy(recipe.Ingredients, func(ri cocktails.RecipeIngredient) bool {
		return IsAvailable(ri.Name, inventory)
	})
}

// Missing lists the recipe ingredients the inventory does not cover, in recipe order.
func Missing(recipe cocktails.Recipe, inventory []cocktails.Ingredient) []cocktails.RecipeIngredient {
	return lo.Reject(recipe.Ingredients, func(ri cocktails.RecipeIngredient, _ int) bool {
		return IsAvailable(ri.Name, inventory)
	})
}

// Owned filters a catalog snapshot down to the ingredients flagged in inventory.
func Owned(all []cocktails.Ingredient) []cocktails.Ingredient {
	return lo.Filter(all, func(i cocktails.Ingredient, _ int) bool { return i.InInventory })
}

// Annotate returns copies of recipes with CanMake derived from inventory.
func Annotate(recipes []cocktails.Recipe, inventory []cocktails.Ingredient) []cocktails.Recipe {
	return lo.Map(recipes, func(r cocktails.Recipe, _ int) cocktails.Recipe {
		r.CanMake = CanMake(r, inventory)
		return r
	})
}

// BestMatch finds the catalog ingredient that a free-form product name
// refers to. Longer, more specific names win ("Lime Juice" over "Lime").
func BestMatch(name string, catalog []cocktails.Ingredient) (cocktails.Ingredient, bool) {
	query := Normalize(name)
	var best cocktails.Ingredient
	found := false
	for _, candidate := range catalog {
		normalized := Normalize(candidate.Name)
		if !matchNormalized(query, normalized) {
			continue
		}
		if !found || len(normalized) > len(Normalize(best.Name)) {
			best, found = candidate, true
		}
	}
	return best, found
}
