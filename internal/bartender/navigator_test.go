package bartender

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"barkeep/internal/cache"
	"barkeep/internal/cocktails"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeStep() cocktails.Recipe {
	return cocktails.Recipe{
		ID:          "daiquiri",
		Name:        "Daiquiri",
		Ingredients: []cocktails.RecipeIngredient{{Name: "White Rum"}, {Name: "Lime Juice"}, {Name: "Simple Syrup"}},
		Steps:       []string{"Add everything to a shaker", "Shake hard with ice", "Double strain into a coupe"},
	}
}

type failingStore struct{ saves int }

func (f *failingStore) Load(context.Context, string) ([]string, error) {
	return nil, errors.New("storage offline")
}

func (f *failingStore) Save(context.Context, string, []string) error {
	f.saves++
	return errors.New("storage offline")
}

func TestNavigatorWalksSteps(t *testing.T) {
	ctx := context.Background()
	n := NewNavigator(ctx, "s1", "u1", nil)
	assert.Equal(t, ModeSelecting, n.Session().Mode)

	s := n.Select(ctx, threeStep())
	assert.Equal(t, ModeViewing, s.Mode)
	assert.Equal(t, 0, s.CurrentStepIndex)
	step, ok := n.CurrentStep()
	require.True(t, ok)
	assert.Equal(t, "Add everything to a shaker", step)

	n.Next()
	s = n.Next()
	assert.Equal(t, 2, s.CurrentStepIndex)
	step, _ = n.CurrentStep()
	assert.Equal(t, "Double strain into a coupe", step)

	s = n.Next()
	assert.Equal(t, ModeSelecting, s.Mode, "next from the last step finishes")
	assert.Empty(t, s.SelectedRecipeID)
	_, ok = n.CurrentStep()
	assert.False(t, ok)
}

func TestNavigatorPreviousFromFirstStep(t *testing.T) {
	ctx := context.Background()
	n := NewNavigator(ctx, "s1", "u1", nil)
	n.Select(ctx, threeStep())

	n.Next()
	s := n.Previous()
	assert.Equal(t, ModeViewing, s.Mode)
	assert.Equal(t, 0, s.CurrentStepIndex)

	s = n.Previous()
	assert.Equal(t, ModeSelecting, s.Mode)
	assert.Equal(t, 0, s.CurrentStepIndex, "never goes to step -1")
	assert.Empty(t, s.SelectedRecipeID)
	_, ok := n.Recipe()
	assert.False(t, ok, "selection is discarded")
}

func TestNavigatorZeroSteps(t *testing.T) {
	ctx := context.Background()
	n := NewNavigator(ctx, "s1", "u1", nil)
	r := threeStep()
	r.Steps = nil

	s := n.Select(ctx, r)
	assert.Equal(t, ModeViewing, s.Mode)
	_, ok := n.CurrentStep()
	assert.False(t, ok, "no preparation steps to show")

	s = n.Next()
	assert.Equal(t, ModeSelecting, s.Mode, "next finishes immediately")
}

func TestNavigatorIgnoresMovesWhileSelecting(t *testing.T) {
	n := NewNavigator(context.Background(), "s1", "u1", nil)
	assert.Equal(t, ModeSelecting, n.Next().Mode)
	assert.Equal(t, ModeSelecting, n.Previous().Mode)
}

func TestNavigatorSwallowsStoreErrors(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{}
	n := NewNavigator(ctx, "s1", "u1", store)
	assert.Empty(t, n.Session().Recent)

	s := n.Select(ctx, threeStep())
	assert.Equal(t, ModeViewing, s.Mode)
	assert.Equal(t, []string{"daiquiri"}, s.Recent)
	assert.Equal(t, 1, store.saves)
}

func TestRecentCapAndDedupe(t *testing.T) {
	ctx := context.Background()
	store := NewCacheRecentStore(cache.NewInMemoryCache())
	n := NewNavigator(ctx, "s1", "u1", store)

	for i := 1; i <= 6; i++ {
		r := threeStep()
		r.ID = fmt.Sprintf("r%d", i)
		n.Select(ctx, r)
	}
	want := []string{"r6", "r5", "r4", "r3", "r2"}
	assert.Equal(t, want, n.Session().Recent)

	stored, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, want, stored)

	r := threeStep()
	r.ID = "r4"
	n.Select(ctx, r)
	assert.Equal(t, []string{"r4", "r6", "r5", "r3", "r2"}, n.Session().Recent)

	again := NewNavigator(ctx, "s2", "u1", store)
	assert.Equal(t, []string{"r4", "r6", "r5", "r3", "r2"}, again.Session().Recent, "recent list survives sessions")
}

func TestPushRecent(t *testing.T) {
	tests := []struct {
		name string
		list []string
		id   string
		want []string
	}{
		{"empty", nil, "a", []string{"a"}},
		{"front", []string{"b", "c"}, "a", []string{"a", "b", "c"}},
		{"dedupe", []string{"b", "a", "c"}, "a", []string{"a", "b", "c"}},
		{"cap", []string{"b", "c", "d", "e", "f"}, "a", []string{"a", "b", "c", "d", "e"}},
		{"blank id", []string{"b"}, "", []string{"b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := append([]string(nil), tt.list...)
			assert.Equal(t, tt.want, PushRecent(tt.list, tt.id))
			assert.Equal(t, orig, tt.list, "input untouched")
		})
	}
}

func TestRecentStoreAnonymousOwner(t *testing.T) {
	ctx := context.Background()
	c := cache.NewInMemoryCache()
	store := NewCacheRecentStore(c)
	require.NoError(t, store.Save(ctx, "", []string{"a"}))
	ok, err := c.Exists(ctx, "bartender/recent/anonymous")
	require.NoError(t, err)
	assert.True(t, ok)
}

// blockingStore holds the first Save until release is closed.
type blockingStore struct {
	mu      sync.Mutex
	calls   int
	last    []string
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) Load(context.Context, string) ([]string, error) { return nil, nil }

func (b *blockingStore) Save(_ context.Context, _ string, ids []string) error {
	b.mu.Lock()
	b.calls++
	first := b.calls == 1
	b.mu.Unlock()
	if first {
		close(b.entered)
		<-b.release
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = ids
	return nil
}

func TestConcurrentSelectsPersistNewestRecent(t *testing.T) {
	ctx := context.Background()
	store := &blockingStore{entered: make(chan struct{}), release: make(chan struct{})}
	n := NewNavigator(ctx, "s1", "u1", store)

	first, second := threeStep(), threeStep()
	first.ID, second.ID = "r1", "r2"

	var wg sync.WaitGroup
	wg.Go(func() { n.Select(ctx, first) })
	<-store.entered
	wg.Go(func() { n.Select(ctx, second) })

	require.Eventually(t, func() bool { return len(n.Session().Recent) == 2 }, time.Second, time.Millisecond)
	close(store.release)
	wg.Wait()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, []string{"r2", "r1"}, n.Session().Recent)
	assert.Equal(t, n.Session().Recent, store.last)
	assert.Equal(t, 2, store.calls)
}
