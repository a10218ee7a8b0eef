// Package cocktails holds the catalog types shared by every other package.
package cocktails

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Ingredient is a catalog ingredient. InInventory is true when the current
// user has it in their bar.
type Ingredient struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	InInventory bool   `json:"in_inventory,omitempty"`
}

// RecipeIngredient is one line of a recipe's ingredient list.
type RecipeIngredient struct {
	Name   string `json:"name" validate:"required"`
	Amount string `json:"amount,omitempty"`
}

// UnmarshalJSON accepts both {"name","amount"} objects and the older bare
// string form ("2 oz gin" stored as just "Gin").
func (ri *RecipeIngredient) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*ri = RecipeIngredient{Name: strings.TrimSpace(name)}
		return nil
	}
	type plain RecipeIngredient
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return errors.New("ingredient must be a string or an object with a name")
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Amount = strings.TrimSpace(p.Amount)
	*ri = RecipeIngredient(p)
	return nil
}

// DietaryFlags describe what a recipe contains. They are plain booleans on
// the recipe; filters treat them as tri-state.
type DietaryFlags struct {
	ContainsEggs  bool `json:"contains_eggs,omitempty"`
	ContainsDairy bool `json:"contains_dairy,omitempty"`
	ContainsNuts  bool `json:"contains_nuts,omitempty"`
	Vegan         bool `json:"vegan,omitempty"`
	GlutenFree    bool `json:"gluten_free,omitempty"`
}

type Recipe struct {
	ID          string             `json:"id" jsonschema:"-"`
	Name        string             `json:"name" validate:"required,max=120" jsonschema:"required"`
	Description string             `json:"description,omitempty" validate:"max=2000"`
	Image       string             `json:"image,omitempty" validate:"omitempty,url"`
	Ingredients []RecipeIngredient `json:"ingredients" validate:"required,min=1,dive" jsonschema:"required,minItems=1"`
	Steps       []string           `json:"preparation_steps,omitempty" validate:"dive,required"`

	Style              Style              `json:"style,omitempty" validate:"omitempty,style"`
	Method             Method             `json:"method,omitempty" validate:"omitempty,method"`
	GlassType          Glass              `json:"glass_type,omitempty" validate:"omitempty,glass"`
	Strength           Strength           `json:"strength,omitempty" validate:"omitempty,strength"`
	Color              Color              `json:"color,omitempty" validate:"omitempty,color"`
	ServingTemperature ServingTemperature `json:"serving_temperature,omitempty" validate:"omitempty,temperature"`
	SecondarySpirits   []string           `json:"secondary_spirits,omitempty" validate:"dive,required"`
	FlavorProfiles     []FlavorProfile    `json:"flavor_profiles,omitempty" validate:"dive,flavor"`
	Season             Season             `json:"season,omitempty" validate:"omitempty,season"`
	Occasion           Occasion           `json:"occasion,omitempty" validate:"omitempty,occasion"`
	TimeOfDay          TimeOfDay          `json:"time_of_day,omitempty" validate:"omitempty,timeofday"`
	SugarLevel         SugarLevel         `json:"sugar_level,omitempty" validate:"omitempty,sugar"`
	Dietary            DietaryFlags       `json:"dietary,omitempty"`

	Custom    bool      `json:"custom,omitempty" jsonschema:"-"`
	AuthorID  string    `json:"author_id,omitempty" jsonschema:"-"`
	CreatedAt time.Time `json:"created_at,omitzero" jsonschema:"-"`

	// CanMake is derived from the current inventory and never persisted.
	CanMake bool `json:"can_make" jsonschema:"-"`
}

// IngredientNames returns the name of every ingredient line in order.
func (r Recipe) IngredientNames() []string {
	names := make([]string, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		names[i] = ing.Name
	}
	return names
}

// StepCount is the number of preparation steps, zero when none are recorded.
func (r Recipe) StepCount() int {
	return len(r.Steps)
}
