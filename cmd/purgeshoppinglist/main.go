package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"barkeep/internal/cache"
	"barkeep/internal/config"
	"barkeep/internal/recipes"
	"barkeep/internal/users"

	"github.com/samber/lo"
)

type purgeStats struct {
	Users        int
	Checked      int
	Stale        int
	WouldRemove  int
	Removed      int
	UpdateErrors int
}

func main() {
	var apply bool
	flag.BoolVar(&apply, "apply", false, "Remove stale recipe ids from shopping lists. Default is dry-run.")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	cacheStore, err := cache.MakeCache(cfg.Storage)
	if err != nil {
		log.Fatalf("failed to create cache: %v", err)
	}

	stats, err := purgeStaleShoppingLists(ctx, cacheStore, apply, os.Stdout)
	if err != nil {
		log.Fatalf("purge failed: %v", err)
	}

	fmt.Printf(
		"done: users=%d checked=%d stale=%d would_remove=%d removed=%d update_errors=%d mode=%s\n",
		stats.Users,
		stats.Checked,
		stats.Stale,
		stats.WouldRemove,
		stats.Removed,
		stats.UpdateErrors,
		mode(apply),
	)
}

// purgeStaleShoppingLists drops shopping list entries whose recipe is no
// longer in the catalog.
func purgeStaleShoppingLists(ctx context.Context, c cache.ListCache, apply bool, out io.Writer) (purgeStats, error) {
	var stats purgeStats

	userStorage := users.NewStorage(c)
	userList, err := userStorage.List(ctx)
	if err != nil {
		return stats, fmt.Errorf("list users: %w", err)
	}
	stats.Users = len(userList)

	rio := recipes.IO(c)
	for _, u := range userList {
		var stale []string
		for _, id := range u.ShoppingList {
			stats.Checked++
			_, err := rio.Recipe(ctx, id)
			if err == nil {
				continue
			}
			if !errors.Is(err, recipes.ErrNotFound) {
				return stats, fmt.Errorf("load recipe %s: %w", id, err)
			}
			stale = append(stale, id)
		}
		if len(stale) == 0 {
			continue
		}
		stats.Stale += len(stale)

		if !apply {
			stats.WouldRemove += len(stale)
			_, _ = fmt.Fprintf(out, "would remove %v from %s\n", stale, u.ID)
			continue
		}

		u.ShoppingList = lo.Without(u.ShoppingList, stale...)
		if err := userStorage.Update(ctx, &u); err != nil {
			stats.UpdateErrors++
			_, _ = fmt.Fprintf(out, "failed update %s: %v\n", u.ID, err)
			continue
		}
		stats.Removed += len(stale)
		_, _ = fmt.Fprintf(out, "removed %v from %s\n", stale, u.ID)
	}

	return stats, nil
}

func mode(apply bool) string {
	if apply {
		return "apply"
	}
	return "dry-run"
}
