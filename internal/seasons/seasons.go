// Package seasons maps calendar dates onto the catalog's season facet.
package seasons

import (
	"time"

	"barkeep/internal/cocktails"
)

var byMonth = [...]cocktails.Season{
	time.January:   cocktails.SeasonWinter,
	time.February:  cocktails.SeasonWinter,
	time.March:     cocktails.SeasonSpring,
	time.April:     cocktails.SeasonSpring,
	time.May:       cocktails.SeasonSpring,
	time.June:      cocktails.SeasonSummer,
	time.July:      cocktails.SeasonSummer,
	time.August:    cocktails.SeasonSummer,
	time.September: cocktails.SeasonFall,
	time.October:   cocktails.SeasonFall,
	time.November:  cocktails.SeasonFall,
	time.December:  cocktails.SeasonWinter,
}

// GetSeason determines the northern hemisphere season for t's month.
func GetSeason(t time.Time) cocktails.Season {
	return byMonth[t.Month()]
}

// GetCurrentSeason returns the season for time.Now.
func GetCurrentSeason() cocktails.Season {
	return GetSeason(time.Now())
}

// InSeason reports whether a recipe tagged with s is appropriate at t.
// Recipes tagged "All Year" are always in season; untagged ones never are.
func InSeason(s cocktails.Season, t time.Time) bool {
	return s == cocktails.SeasonAllYear || (s != "" && s == GetSeason(t))
}
