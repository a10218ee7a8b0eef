// Package inventory tracks which catalog ingredients each user has in their
// bar.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"barkeep/internal/cache"
	"barkeep/internal/cocktails"

	"github.com/samber/lo"
)

const inventoryPrefix = "inventory/"

var ErrNotFound = errors.New("ingredient not found")

// Catalog supplies the full ingredient list.
type Catalog interface {
	Ingredients(ctx context.Context) ([]cocktails.Ingredient, error)
}

type Storage struct {
	cache   cache.Cache
	catalog Catalog
	// serializes read-modify-write of a user's owned set
	mu sync.Mutex
}

func NewStorage(c cache.Cache, catalog Catalog) *Storage {
	return &Storage{cache: c, catalog: catalog}
}

func (s *Storage) owned(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, nil
	}
	ids, err := cache.GetJSON[[]string](ctx, s.cache, inventoryPrefix+userID)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory for %s: %w", userID, err)
	}
	return ids, nil
}

// Snapshot returns every catalog ingredient with InInventory set for the
// ones userID owns. An empty userID owns nothing.
func (s *Storage) Snapshot(ctx context.Context, userID string) ([]cocktails.Ingredient, error) {
	all, err := s.catalog.Ingredients(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := s.owned(ctx, userID)
	if err != nil {
		return nil, err
	}
	return lo.Map(all, func(i cocktails.Ingredient, _ int) cocktails.Ingredient {
		i.InInventory = slices.Contains(ids, i.ID)
		return i
	}), nil
}

// Set marks one catalog ingredient as owned or not and returns it.
func (s *Storage) Set(ctx context.Context, userID, ingredientID string, owned bool) (cocktails.Ingredient, error) {
	if userID == "" {
		return cocktails.Ingredient{}, errors.New("user id is required")
	}
	all, err := s.catalog.Ingredients(ctx)
	if err != nil {
		return cocktails.Ingredient{}, err
	}
	ing, ok := lo.Find(all, func(i cocktails.Ingredient) bool { return i.ID == ingredientID })
	if !ok {
		return cocktails.Ingredient{}, fmt.Errorf("%w: %s", ErrNotFound, ingredientID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ids, err := s.owned(ctx, userID)
	if err != nil {
		return cocktails.Ingredient{}, err
	}
	if owned {
		ids = append(ids, ingredientID)
	} else {
		ids = lo.Without(ids, ingredientID)
	}
	ids = lo.Uniq(ids)
	slices.Sort(ids)
	if err := cache.PutJSON(ctx, s.cache, inventoryPrefix+userID, ids, cache.Unconditional()); err != nil {
		return cocktails.Ingredient{}, fmt.Errorf("failed to save inventory for %s: %w", userID, err)
	}
	ing.InInventory = owned
	return ing, nil
}
