// Package filter narrows a recipe list down to the ones matching a set of
// facet selections.
package filter

import "barkeep/internal/cocktails"

// Config is one filter pass worth of selections. The zero value selects
// nothing and lets every recipe through. Dietary flags are tri-state: nil
// means no constraint, which is different from false.
type Config struct {
	Search        string `json:"search,omitempty"`
	PrimarySpirit string `json:"primary_spirit,omitempty"`

	Style              cocktails.Style              `json:"style,omitempty"`
	Method             cocktails.Method             `json:"method,omitempty"`
	GlassType          cocktails.Glass              `json:"glass_type,omitempty"`
	Strength           cocktails.Strength           `json:"strength,omitempty"`
	Color              cocktails.Color              `json:"color,omitempty"`
	ServingTemperature cocktails.ServingTemperature `json:"serving_temperature,omitempty"`
	Season             cocktails.Season             `json:"season,omitempty"`
	Occasion           cocktails.Occasion           `json:"occasion,omitempty"`
	TimeOfDay          cocktails.TimeOfDay          `json:"time_of_day,omitempty"`
	SugarLevel         cocktails.SugarLevel         `json:"sugar_level,omitempty"`

	SecondarySpirits []string                  `json:"secondary_spirits,omitempty"`
	FlavorProfiles   []cocktails.FlavorProfile `json:"flavor_profiles,omitempty"`

	ContainsEggs  *bool `json:"contains_eggs,omitempty"`
	ContainsDairy *bool `json:"contains_dairy,omitempty"`
	ContainsNuts  *bool `json:"contains_nuts,omitempty"`
	Vegan         *bool `json:"vegan,omitempty"`
	GlutenFree    *bool `json:"gluten_free,omitempty"`

	CanMake bool `json:"can_make,omitempty"`
}

// IsZero reports whether no facet is constrained.
func (c Config) IsZero() bool {
	return c.Search == "" && c.PrimarySpirit == "" &&
		c.Style == "" && c.Method == "" && c.GlassType == "" && c.Strength == "" &&
		c.Color == "" && c.ServingTemperature == "" && c.Season == "" &&
		c.Occasion == "" && c.TimeOfDay == "" && c.SugarLevel == "" &&
		len(c.SecondarySpirits) == 0 && len(c.FlavorProfiles) == 0 &&
		c.ContainsEggs == nil && c.ContainsDairy == nil && c.ContainsNuts == nil &&
		c.Vegan == nil && c.GlutenFree == nil &&
		!c.CanMake
}

// Bool is a convenience for setting tri-state dietary flags.
func Bool(b bool) *bool { return &b }
