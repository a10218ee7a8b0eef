// Package bartender walks a user through one recipe's preparation steps.
package bartender

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"barkeep/internal/cocktails"
)

type Mode string

const (
	// ModeSelecting is both the initial state and where finishing or backing
	// out of the first step lands.
	ModeSelecting Mode = "selecting"
	ModeViewing   Mode = "viewing"
)

// MaxRecent caps the recently viewed list.
const MaxRecent = 5

type Session struct {
	ID               string    `json:"id"`
	Owner            string    `json:"owner"`
	Mode             Mode      `json:"mode"`
	SelectedRecipeID string    `json:"selected_recipe_id,omitempty"`
	CurrentStepIndex int       `json:"current_step_index"`
	Recent           []string  `json:"recent"`
	StartedAt        time.Time `json:"started_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Navigator is the state machine for one bartender session. It is safe for
// concurrent use so HTTP handlers can share it.
type Navigator struct {
	mu      sync.Mutex
	session Session
	recipe  *cocktails.Recipe
	recent  RecentStore
	// saveMu orders writes to recent; the list is re-read while held so the
	// last write is always the newest state
	saveMu sync.Mutex
}

// NewNavigator starts a session in ModeSelecting. The recently viewed list
// is loaded from store; a failing store leaves it empty.
func NewNavigator(ctx context.Context, id, owner string, store RecentStore) *Navigator {
	now := time.Now()
	n := &Navigator{
		session: Session{ID: id, Owner: owner, Mode: ModeSelecting, StartedAt: now, UpdatedAt: now},
		recent:  store,
	}
	if store != nil {
		ids, err := store.Load(ctx, owner)
		if err != nil {
			slog.ErrorContext(ctx, "failed to load recently viewed", "owner", owner, "error", err)
		}
		n.session.Recent = capRecent(ids)
	}
	return n
}

// Session returns a copy of the current state.
func (n *Navigator) Session() Session {
	n.mu.Lock()
	defer n.mu.Unlock()
	s := n.session
	s.Recent = append([]string{}, n.session.Recent...)
	return s
}

// Recipe returns the recipe being viewed, if any.
func (n *Navigator) Recipe() (cocktails.Recipe, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.recipe == nil {
		return cocktails.Recipe{}, false
	}
	return *n.recipe, true
}

// Select moves to the first step of recipe and records it as recently
// viewed. Persisting the recent list never blocks navigation; failures are
// only logged.
func (n *Navigator) Select(ctx context.Context, recipe cocktails.Recipe) Session {
	n.mu.Lock()
	n.recipe = &recipe
	n.session.Mode = ModeViewing
	n.session.SelectedRecipeID = recipe.ID
	n.session.CurrentStepIndex = 0
	n.session.Recent = PushRecent(n.session.Recent, recipe.ID)
	n.session.UpdatedAt = time.Now()
	n.mu.Unlock()

	n.saveRecent(ctx, recipe.ID)
	return n.Session()
}

func (n *Navigator) saveRecent(ctx context.Context, recipeID string) {
	if n.recent == nil {
		return
	}
	n.saveMu.Lock()
	defer n.saveMu.Unlock()

	n.mu.Lock()
	owner, recent := n.session.Owner, append([]string(nil), n.session.Recent...)
	n.mu.Unlock()

	if err := n.recent.Save(ctx, owner, recent); err != nil {
		slog.ErrorContext(ctx, "failed to save recently viewed", "owner", owner, "recipe_id", recipeID, "error", err)
	}
}

// Next advances one step. From the last step, or from a recipe with no
// steps, it finishes back to ModeSelecting. It does nothing while selecting.
func (n *Navigator) Next() Session {
	n.mu.Lock()
	if n.session.Mode == ModeViewing {
		if n.session.CurrentStepIndex < n.recipe.StepCount()-1 {
			n.session.CurrentStepIndex++
		} else {
			n.deselect()
		}
		n.session.UpdatedAt = time.Now()
	}
	n.mu.Unlock()
	return n.Session()
}

// Previous goes back one step. From the first step it returns to
// ModeSelecting and drops the selection rather than going to step -1.
func (n *Navigator) Previous() Session {
	n.mu.Lock()
	if n.session.Mode == ModeViewing {
		if n.session.CurrentStepIndex > 0 {
			n.session.CurrentStepIndex--
		} else {
			n.deselect()
		}
		n.session.UpdatedAt = time.Now()
	}
	n.mu.Unlock()
	return n.Session()
}

// Exit abandons any selection.
func (n *Navigator) Exit() Session {
	n.mu.Lock()
	n.deselect()
	n.mu.Unlock()
	return n.Session()
}

// CurrentStep is the text of the step being viewed. It reports false while
// selecting and for recipes without preparation steps.
func (n *Navigator) CurrentStep() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.session.Mode != ModeViewing || n.recipe == nil {
		return "", false
	}
	i := n.session.CurrentStepIndex
	if i < 0 || i >= len(n.recipe.Steps) {
		return "", false
	}
	return n.recipe.Steps[i], true
}

// caller holds mu
func (n *Navigator) deselect() {
	n.session.Mode = ModeSelecting
	n.session.SelectedRecipeID = ""
	n.session.CurrentStepIndex = 0
	n.recipe = nil
}

// PushRecent puts id at the front of list, removing any earlier occurrence
// and keeping at most MaxRecent entries. list is not modified.
func PushRecent(list []string, id string) []string {
	if id == "" {
		return capRecent(list)
	}
	out := make([]string, 0, MaxRecent)
	out = append(out, id)
	for _, existing := range list {
		if existing != id && existing != "" {
			out = append(out, existing)
		}
	}
	return capRecent(out)
}

func capRecent(list []string) []string {
	if len(list) > MaxRecent {
		return list[:MaxRecent:MaxRecent]
	}
	return list
}
