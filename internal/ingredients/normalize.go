// Package ingredients decides whether a bar can cover a recipe's ingredients.
package ingredients

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// synonyms maps a full normalized name to its canonical spelling. No value
// may appear as a key or Normalize stops being idempotent.
var synonyms = map[string]string{
	"whiskey":           "whisky",
	"rum (white)":       "white rum",
	"light rum":         "white rum",
	"silver rum":        "white rum",
	"rum (dark)":        "dark rum",
	"orange liqueur":    "triple sec",
	"cointreau":         "triple sec",
	"simple":            "simple syrup",
	"sugar syrup":       "simple syrup",
	"angostura":         "angostura bitters",
	"fresh lime juice":  "lime juice",
	"fresh lemon juice": "lemon juice",
	"soda":              "soda water",
	"club soda":         "soda water",
	"sweet vermouth":    "vermouth rosso",
	"london dry gin":    "gin",
	"bourbon whiskey":   "bourbon",
	"rye whiskey":       "rye",
	"egg whites":        "egg white",
	"grenadine syrup":   "grenadine",
	"coffee liqueur":    "kahlua",
	"creme de cassis":   "cassis",
}

// Normalize canonicalizes an ingredient name for comparison: trimmed,
// lowercased, NFC composed, single-spaced, then mapped through synonyms on an
// exact match. It never fails; blank input yields "".
func Normalize(name string) string {
	if name == "" {
		return ""
	}
	// cases.Caser keeps state, so one per call
	lowered := cases.Lower(language.Und).String(norm.NFC.String(name))
	collapsed := strings.Join(strings.Fields(lowered), " ")
	if canonical, ok := synonyms[collapsed]; ok {
		return canonical
	}
	return collapsed
}
