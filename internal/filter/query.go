package filter

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"barkeep/internal/cocktails"
	"barkeep/internal/seasons"

	"github.com/samber/lo"
)

// ErrInvalidFacet is returned by ParseQuery for a value outside a facet's enum.
var ErrInvalidFacet = errors.New("invalid facet value")

var nowFn = time.Now

// ParseQuery reads a Config from URL query parameters. Keys match the JSON
// names on Config, plus "q" as a shorthand for search. Multi-value facets
// take repeated keys or comma separated values. season=current resolves to
// the season of today's date.
func ParseQuery(q url.Values) (Config, error) {
	var errs []error
	cfg := Config{
		Search:        strings.TrimSpace(lo.CoalesceOrEmpty(q.Get("search"), q.Get("q"))),
		PrimarySpirit: strings.TrimSpace(q.Get("primary_spirit")),
	}

	cfg.Style = enum(q, "style", cocktails.Styles, &errs)
	cfg.Method = enum(q, "method", cocktails.Methods, &errs)
	cfg.GlassType = enum(q, "glass_type", cocktails.Glasses, &errs)
	cfg.Strength = enum(q, "strength", cocktails.Strengths, &errs)
	cfg.Color = enum(q, "color", cocktails.Colors, &errs)
	cfg.ServingTemperature = enum(q, "serving_temperature", cocktails.Temperatures, &errs)
	cfg.Occasion = enum(q, "occasion", cocktails.Occasions, &errs)
	cfg.TimeOfDay = enum(q, "time_of_day", cocktails.TimesOfDay, &errs)
	cfg.SugarLevel = enum(q, "sugar_level", cocktails.SugarLevels, &errs)
	if strings.EqualFold(strings.TrimSpace(q.Get("season")), "current") {
		cfg.Season = seasons.GetSeason(nowFn())
	} else {
		cfg.Season = enum(q, "season", cocktails.Seasons, &errs)
	}

	cfg.SecondarySpirits = multi(q, "secondary_spirits")
	for _, v := range multi(q, "flavor_profiles") {
		f := cocktails.FlavorProfile(v)
		if !cocktails.Valid(cocktails.Flavors, f) {
			errs = append(errs, fmt.Errorf("%w: flavor_profiles=%q", ErrInvalidFacet, v))
			continue
		}
		cfg.FlavorProfiles = append(cfg.FlavorProfiles, f)
	}

	cfg.ContainsEggs = tristate(q, "contains_eggs", &errs)
	cfg.ContainsDairy = tristate(q, "contains_dairy", &errs)
	cfg.ContainsNuts = tristate(q, "contains_nuts", &errs)
	cfg.Vegan = tristate(q, "vegan", &errs)
	cfg.GlutenFree = tristate(q, "gluten_free", &errs)
	if canMake := tristate(q, "can_make", &errs); canMake != nil {
		cfg.CanMake = *canMake
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func enum[T ~string](q url.Values, key string, values []T, errs *[]error) T {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return ""
	}
	v := T(raw)
	if !cocktails.Valid(values, v) {
		*errs = append(*errs, fmt.Errorf("%w: %s=%q", ErrInvalidFacet, key, raw))
		return ""
	}
	return v
}

func multi(q url.Values, key string) []string {
	return lo.Uniq(lo.FlatMap(q[key], func(v string, _ int) []string {
		return lo.FilterMap(strings.Split(v, ","), func(s string, _ int) (string, bool) {
			s = strings.TrimSpace(s)
			return s, s != ""
		})
	}))
}

func tristate(q url.Values, key string, errs *[]error) *bool {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%w: %s=%q", ErrInvalidFacet, key, raw))
		return nil
	}
	return &b
}
