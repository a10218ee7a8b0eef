package recipes

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"barkeep/internal/cache"
	"barkeep/internal/cocktails"
)

var (
	//go:embed seed/recipes.json
	seedRecipes []byte
	//go:embed seed/ingredients.json
	seedIngredients []byte
)

// SeedCatalog decodes the embedded starter catalog.
func SeedCatalog() ([]cocktails.Recipe, []cocktails.Ingredient, error) {
	var recipes []cocktails.Recipe
	if err := json.Unmarshal(seedRecipes, &recipes); err != nil {
		return nil, nil, fmt.Errorf("failed to decode seed recipes: %w", err)
	}
	var ingredients []cocktails.Ingredient
	if err := json.Unmarshal(seedIngredients, &ingredients); err != nil {
		return nil, nil, fmt.Errorf("failed to decode seed ingredients: %w", err)
	}
	return recipes, ingredients, nil
}

// Seed writes the starter catalog and returns how many entries it wrote.
// Existing entries are kept unless force is set, so edits made after the
// first run survive restarts.
func (rio recipeio) Seed(ctx context.Context, force bool) (int, error) {
	recipes, ingredients, err := SeedCatalog()
	if err != nil {
		return 0, err
	}
	opts := cache.IfNoneMatch()
	if force {
		opts = cache.Unconditional()
	}

	written := 0
	var errs []error
	for _, ing := range ingredients {
		err := rio.saveIngredient(ctx, ing, opts)
		switch {
		case err == nil:
			written++
		case !errors.Is(err, ErrAlreadyExists):
			errs = append(errs, fmt.Errorf("ingredient %s: %w", ing.ID, err))
		}
	}
	for _, r := range recipes {
		if err := r.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("recipe %s: %w", r.ID, err))
			continue
		}
		err := rio.saveRecipe(ctx, r, opts)
		switch {
		case err == nil:
			written++
		case !errors.Is(err, ErrAlreadyExists):
			errs = append(errs, fmt.Errorf("recipe %s: %w", r.ID, err))
		}
	}
	slog.InfoContext(ctx, "seeded catalog", "written", written, "recipes", len(recipes), "ingredients", len(ingredients), "force", force)
	return written, errors.Join(errs...)
}

// Ready reports whether the catalog has any recipes to serve.
func (rio recipeio) Ready(ctx context.Context) error {
	keys, err := rio.Cache.List(ctx, recipeCachePrefix, "")
	if err != nil {
		return fmt.Errorf("failed to list recipes: %w", err)
	}
	if len(keys) == 0 {
		return errors.New("recipe catalog is empty")
	}
	return nil
}
