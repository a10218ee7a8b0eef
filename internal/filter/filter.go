package filter

import (
	"strings"

	"barkeep/internal/cocktails"
	"barkeep/internal/ingredients"

	"github.com/samber/lo"
)

// Apply keeps the recipes that pass every configured facet, in input order.
// An empty Config returns recipes itself.
func Apply(recipes []cocktails.Recipe, cfg Config) []cocktails.Recipe {
	if cfg.IsZero() {
		return recipes
	}
	m := cfg.matcher()
	return lo.Filter(recipes, func(r cocktails.Recipe, _ int) bool {
		return m.match(r)
	})
}

// Match reports whether a single recipe passes cfg.
func Match(r cocktails.Recipe, cfg Config) bool {
	return cfg.matcher().match(r)
}

// matcher holds the query-side values that only need normalizing once per pass.
type matcher struct {
	cfg       Config
	search    string
	spirit    string // lowercased and space collapsed, no synonyms
	canonical string // spirit with each word through ingredients.Normalize
	secondary []string
}

func (c Config) matcher() matcher {
	return matcher{
		cfg:       c,
		search:    strings.ToLower(strings.TrimSpace(c.Search)),
		spirit:    foldSpace(c.PrimarySpirit),
		canonical: canonicalWords(c.PrimarySpirit),
		secondary: lo.FilterMap(c.SecondarySpirits, func(s string, _ int) (string, bool) {
			n := ingredients.Normalize(s)
			return n, n != ""
		}),
	}
}

func (m matcher) match(r cocktails.Recipe) bool {
	c := m.cfg
	return m.matchSearch(r) &&
		m.matchSpirit(r) &&
		single(c.Style, r.Style) &&
		single(c.Method, r.Method) &&
		single(c.GlassType, r.GlassType) &&
		single(c.Strength, r.Strength) &&
		single(c.Color, r.Color) &&
		single(c.ServingTemperature, r.ServingTemperature) &&
		single(c.Season, r.Season) &&
		single(c.Occasion, r.Occasion) &&
		single(c.TimeOfDay, r.TimeOfDay) &&
		single(c.SugarLevel, r.SugarLevel) &&
		m.matchSecondary(r) &&
		intersects(c.FlavorProfiles, r.FlavorProfiles) &&
		flag(c.ContainsEggs, r.Dietary.ContainsEggs) &&
		flag(c.ContainsDairy, r.Dietary.ContainsDairy) &&
		flag(c.ContainsNuts, r.Dietary.ContainsNuts) &&
		flag(c.Vegan, r.Dietary.Vegan) &&
		flag(c.GlutenFree, r.Dietary.GlutenFree) &&
		(!c.CanMake || r.CanMake)
}

func (m matcher) matchSearch(r cocktails.Recipe) bool {
	if m.search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Name), m.search) ||
		strings.Contains(strings.ToLower(r.Description), m.search)
}

func (m matcher) matchSpirit(r cocktails.Recipe) bool {
	if m.spirit == "" {
		return true
	}
	return lo.ContainsBy(r.Ingredients, func(ri cocktails.RecipeIngredient) bool {
		return strings.Contains(foldSpace(ri.Name), m.spirit) ||
			strings.Contains(canonicalWords(ri.Name), m.canonical)
	})
}

// canonicalWords normalizes word by word, so "Irish Whiskey" becomes
// "irish whisky" and still contains the spirit word.
func canonicalWords(s string) string {
	return strings.Join(lo.Map(strings.Fields(s), func(w string, _ int) string {
		return ingredients.Normalize(w)
	}), " ")
}

// foldSpace lowercases s and collapses runs of whitespace.
func foldSpace(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func (m matcher) matchSecondary(r cocktails.Recipe) bool {
	if len(m.secondary) == 0 {
		return true
	}
	return lo.ContainsBy(r.SecondarySpirits, func(s string) bool {
		return lo.Contains(m.secondary, ingredients.Normalize(s))
	})
}

// single passes when the facet is unset or equal, case-sensitively.
func single[T ~string](want, got T) bool {
	return want == "" || want == got
}

// intersects passes when want is empty or shares a value with got.
func intersects[T comparable](want, got []T) bool {
	if len(want) == 0 {
		return true
	}
	return lo.Some(got, want)
}

func flag(want *bool, got bool) bool {
	return want == nil || *want == got
}
