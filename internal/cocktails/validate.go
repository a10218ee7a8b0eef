package cocktails

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidRecipe wraps every validation failure so handlers can map it to 400.
var ErrInvalidRecipe = errors.New("invalid recipe")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator with the facet tags registered.
// validator.Validate caches struct metadata and is safe for concurrent use.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		register(v, "style", Styles)
		register(v, "method", Methods)
		register(v, "glass", Glasses)
		register(v, "strength", Strengths)
		register(v, "color", Colors)
		register(v, "temperature", Temperatures)
		register(v, "flavor", Flavors)
		register(v, "season", Seasons)
		register(v, "occasion", Occasions)
		register(v, "timeofday", TimesOfDay)
		register(v, "sugar", SugarLevels)
		validate = v
	})
	return validate
}

func register[T ~string](v *validator.Validate, tag string, values []T) {
	// only fails on an empty tag or a nil func
	_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return Valid(values, T(fl.Field().String()))
	})
}

// Validate checks a recipe before it is stored. Recipes without ingredients
// are rejected here rather than treated as trivially makeable.
func (r *Recipe) Validate() error {
	if err := Validator().Struct(r); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRecipe, describe(err))
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.TrimPrefix(e.Namespace(), "Recipe.")
		switch e.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s needs at least %s entries", field, e.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must not exceed %s characters", field, e.Param()))
		case "url":
			msgs = append(msgs, field+" must be a valid URL")
		default:
			msgs = append(msgs, fmt.Sprintf("%s has unknown value %q", field, e.Value()))
		}
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}
