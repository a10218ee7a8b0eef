// Package history keeps a per-user log of drinks made.
package history

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"barkeep/internal/cache"
	"barkeep/internal/cocktails"

	"github.com/samber/lo"
)

const historyPrefix = "history/"

type Entry struct {
	RecipeID string           `json:"recipe_id"`
	Name     string           `json:"name"`
	Season   cocktails.Season `json:"season,omitempty"`
	MadeAt   time.Time        `json:"made_at"`
}

type History struct {
	Entries []Entry `json:"entries"`
}

type HistoryStorage struct {
	cache         cache.Cache
	retentionDays int
	now           func() time.Time
	mu            sync.Mutex
}

func NewHistoryStorage(c cache.Cache, retentionDays int) *HistoryStorage {
	return &HistoryStorage{
		cache:         c,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// Record appends entry to the user's history and drops anything past the
// retention window. A zero MadeAt is stamped with the current time.
func (hs *HistoryStorage) Record(ctx context.Context, userID string, entry Entry) error {
	if userID == "" {
		return errors.New("user id is required")
	}
	if entry.MadeAt.IsZero() {
		entry.MadeAt = hs.now()
	}

	hs.mu.Lock()
	defer hs.mu.Unlock()
	history, err := hs.loadHistory(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load existing history: %w", err)
	}
	history.Entries = append(history.Entries, entry)
	hs.cleanOldEntries(&history)
	return hs.saveHistory(ctx, userID, history)
}

// Recent returns entries from the last days days, newest first.
func (hs *HistoryStorage) Recent(ctx context.Context, userID string, days int) ([]Entry, error) {
	history, err := hs.loadHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	cutoff := hs.now().AddDate(0, 0, -days)
	recent := lo.Filter(history.Entries, func(e Entry, _ int) bool { return e.MadeAt.After(cutoff) })
	slices.SortStableFunc(recent, func(a, b Entry) int { return b.MadeAt.Compare(a.MadeAt) })
	return recent, nil
}

// HasRecipe reports whether recipeID was made in the last days days.
func (hs *HistoryStorage) HasRecipe(ctx context.Context, userID, recipeID string, days int) (bool, error) {
	recent, err := hs.Recent(ctx, userID, days)
	if err != nil {
		return false, err
	}
	return lo.ContainsBy(recent, func(e Entry) bool { return e.RecipeID == recipeID }), nil
}

func (hs *HistoryStorage) loadHistory(ctx context.Context, userID string) (History, error) {
	history, err := cache.GetJSON[History](ctx, hs.cache, historyPrefix+userID)
	if errors.Is(err, cache.ErrNotFound) {
		return History{}, nil
	}
	return history, err
}

func (hs *HistoryStorage) saveHistory(ctx context.Context, userID string, history History) error {
	if err := cache.PutJSON(ctx, hs.cache, historyPrefix+userID, history, cache.Unconditional()); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

func (hs *HistoryStorage) cleanOldEntries(history *History) {
	if hs.retentionDays <= 0 {
		return
	}
	cutoff := hs.now().AddDate(0, 0, -hs.retentionDays)
	history.Entries = lo.Filter(history.Entries, func(e Entry, _ int) bool { return e.MadeAt.After(cutoff) })
}
