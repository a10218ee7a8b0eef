package bartender

import (
	"strings"

	"barkeep/internal/cocktails"

	"github.com/samber/lo"
)

type SearchResult struct {
	Query   string             `json:"query"`
	Recipes []cocktails.Recipe `json:"recipes"`
	// NoResults marks a query that matched nothing, so clients can show an
	// empty state. It is not a navigator mode.
	NoResults bool `json:"no_results"`
}

// Search matches query case-insensitively against recipe names and the raw
// ingredient names. An empty query returns every recipe.
func Search(query string, recipes []cocktails.Recipe) SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	matched := recipes
	if q != "" {
		matched = lo.Filter(recipes, func(r cocktails.Recipe, _ int) bool {
			return strings.Contains(strings.ToLower(r.Name), q) ||
				lo.ContainsBy(r.Ingredients, func(ri cocktails.RecipeIngredient) bool {
					return strings.Contains(strings.ToLower(ri.Name), q)
				})
		})
	}
	if matched == nil {
		matched = []cocktails.Recipe{}
	}
	return SearchResult{Query: query, Recipes: matched, NoResults: len(matched) == 0}
}
