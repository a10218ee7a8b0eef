// Package recipes stores the cocktail catalog and serves it over HTTP.
package recipes

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"barkeep/internal/cache"
	"barkeep/internal/cocktails"

	"golang.org/x/sync/errgroup"
)

const (
	recipeCachePrefix     = "recipe/"
	ingredientCachePrefix = "ingredient/"
	// loads at most this many blobs at once
	loadConcurrency = 16
)

var (
	ErrNotFound      = errors.New("recipe not found")
	ErrAlreadyExists = errors.New("already exists")
)

type recipeio struct {
	Cache cache.ListCache
}

func IO(c cache.ListCache) *recipeio {
	return &recipeio{c}
}

// Recipe loads one recipe by id.
func (rio recipeio) Recipe(ctx context.Context, id string) (*cocktails.Recipe, error) {
	if id == "" || strings.Contains(id, "/") {
		return nil, ErrNotFound
	}
	recipe, err := cache.GetJSON[cocktails.Recipe](ctx, rio.Cache, recipeCachePrefix+id)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe %s: %w", id, err)
	}
	// ids come from the key so renamed blobs stay addressable
	recipe.ID = id
	return &recipe, nil
}

// Recipes loads the whole catalog sorted by name.
func (rio recipeio) Recipes(ctx context.Context) ([]cocktails.Recipe, error) {
	all, err := loadAll[cocktails.Recipe](ctx, rio.Cache, recipeCachePrefix, func(r *cocktails.Recipe, id string) { r.ID = id })
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(all, func(a, b cocktails.Recipe) int {
		return cmp.Or(cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)), cmp.Compare(a.ID, b.ID))
	})
	return all, nil
}

// Ingredients loads the ingredient catalog sorted by name. InInventory is
// always false here; see the inventory package.
func (rio recipeio) Ingredients(ctx context.Context) ([]cocktails.Ingredient, error) {
	all, err := loadAll[cocktails.Ingredient](ctx, rio.Cache, ingredientCachePrefix, func(i *cocktails.Ingredient, id string) {
		i.ID = id
		i.InInventory = false
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(all, func(a, b cocktails.Ingredient) int {
		return cmp.Or(cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)), cmp.Compare(a.ID, b.ID))
	})
	return all, nil
}

func loadAll[T any](ctx context.Context, c cache.ListCache, prefix string, setID func(*T, string)) ([]T, error) {
	keys, err := c.List(ctx, prefix, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}
	out := make([]T, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for i, key := range keys {
		g.Go(func() error {
			v, err := cache.GetJSON[T](gctx, c, prefix+key)
			if err != nil {
				return fmt.Errorf("failed to load %s%s: %w", prefix, key, err)
			}
			setID(&v, key)
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveRecipe stores a new recipe. An existing id is left alone and reported
// as ErrAlreadyExists.
func (rio recipeio) SaveRecipe(ctx context.Context, recipe cocktails.Recipe) error {
	return rio.saveRecipe(ctx, recipe, cache.IfNoneMatch())
}

func (rio recipeio) saveRecipe(ctx context.Context, recipe cocktails.Recipe, opts cache.PutOptions) error {
	if recipe.ID == "" || strings.Contains(recipe.ID, "/") {
		return fmt.Errorf("invalid recipe id %q", recipe.ID)
	}
	// derived from inventory, never stored
	recipe.CanMake = false
	slog.InfoContext(ctx, "storing recipe", "name", recipe.Name, "id", recipe.ID)
	if err := cache.PutJSON(ctx, rio.Cache, recipeCachePrefix+recipe.ID, recipe, opts); err != nil {
		if errors.Is(err, cache.ErrAlreadyExists) {
			return ErrAlreadyExists
		}
		slog.ErrorContext(ctx, "failed to cache recipe", "id", recipe.ID, "error", err)
		return err
	}
	return nil
}

func (rio recipeio) saveIngredient(ctx context.Context, ing cocktails.Ingredient, opts cache.PutOptions) error {
	if ing.ID == "" || strings.Contains(ing.ID, "/") {
		return fmt.Errorf("invalid ingredient id %q", ing.ID)
	}
	ing.InInventory = false
	if err := cache.PutJSON(ctx, rio.Cache, ingredientCachePrefix+ing.ID, ing, opts); err != nil {
		if errors.Is(err, cache.ErrAlreadyExists) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}
