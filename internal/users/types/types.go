// Package types holds the persisted user profile.
package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"

	UnitsOunces      = "oz"
	UnitsMilliliters = "ml"
)

// Settings are the display preferences a client used to keep in local
// storage. They now live on the profile so they follow the user.
type Settings struct {
	Theme string `json:"theme" validate:"omitempty,oneof=light dark system"`
	Units string `json:"units" validate:"omitempty,oneof=oz ml"`
}

// WithDefaults fills unset fields.
func (s Settings) WithDefaults() Settings {
	s.Theme = lo.CoalesceOrEmpty(s.Theme, ThemeSystem)
	s.Units = lo.CoalesceOrEmpty(s.Units, UnitsOunces)
	return s
}

type User struct {
	ID           string    `json:"id" validate:"required"`
	Email        []string  `json:"email" validate:"dive,email"`
	CreatedAt    time.Time `json:"created_at"`
	ShoppingList []string  `json:"shopping_list,omitempty" validate:"dive,required"`
	Settings     Settings  `json:"settings"`
}

// PrimaryEmail is the first address on file, or "".
func (u User) PrimaryEmail() string {
	return lo.FirstOrEmpty(u.Email)
}

// HasShoppingListRecipe reports whether id is already on the list.
func (u User) HasShoppingListRecipe(id string) bool {
	return lo.Contains(u.ShoppingList, id)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			return name
		})
	})
	return validate
}

func (s Settings) Validate() error {
	return describe(validatorInstance().Struct(s))
}

// Validate also dedupes the shopping list, keeping first occurrences.
func (u *User) Validate() error {
	u.ShoppingList = lo.Uniq(u.ShoppingList)
	return describe(validatorInstance().Struct(u))
}

func describe(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := lo.Map(verrs, func(e validator.FieldError, _ int) string {
		field := e.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		switch e.Tag() {
		case "required":
			return field + " is required"
		case "email":
			return fmt.Sprintf("invalid email address: %v", e.Value())
		case "oneof":
			return fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(e.Param(), " ", ", "))
		default:
			return fmt.Sprintf("%s is invalid", field)
		}
	})
	return errors.New(strings.Join(msgs, "; "))
}
