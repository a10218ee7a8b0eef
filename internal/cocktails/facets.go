package cocktails

import "github.com/samber/lo"

type Style string

const (
	StyleClassic      Style = "Classic"
	StyleModern       Style = "Modern"
	StyleTiki         Style = "Tiki"
	StyleSour         Style = "Sour"
	StyleHighball     Style = "Highball"
	StyleMartini      Style = "Martini"
	StyleFizz         Style = "Fizz"
	StyleHotDrink     Style = "Hot Drink"
	StyleShot         Style = "Shot"
	StyleMocktail     Style = "Mocktail"
	StyleDessert      Style = "Dessert"
	StyleSignature    Style = "Signature"
	StyleExperiment   Style = "Experimental"
	StylePunch        Style = "Punch"
	StyleAperitif     Style = "Aperitif"
	StyleDigestif     Style = "Digestif"
	StyleSpritz       Style = "Spritz"
	StyleFlip         Style = "Flip"
	StyleJulep        Style = "Julep"
	StyleOldFashioned Style = "Old Fashioned"
)

type Method string

const (
	MethodShaken  Method = "Shaken"
	MethodStirred Method = "Stirred"
	MethodBuilt   Method = "Built"
	MethodBlended Method = "Blended"
	MethodMuddled Method = "Muddled"
	MethodLayered Method = "Layered"
	MethodThrown  Method = "Thrown"
)

type Glass string

const (
	GlassCoupe       Glass = "Coupe"
	GlassMartini     Glass = "Martini"
	GlassRocks       Glass = "Rocks"
	GlassHighball    Glass = "Highball"
	GlassCollins     Glass = "Collins"
	GlassNickAndNora Glass = "Nick & Nora"
	GlassHurricane   Glass = "Hurricane"
	GlassTiki        Glass = "Tiki Mug"
	GlassCopperMug   Glass = "Copper Mug"
	GlassWine        Glass = "Wine"
	GlassFlute       Glass = "Flute"
	GlassShot        Glass = "Shot"
	GlassIrishCoffee Glass = "Irish Coffee"
	GlassJulepCup    Glass = "Julep Cup"
)

type Strength string

const (
	StrengthNone   Strength = "Non-Alcoholic"
	StrengthLight  Strength = "Light"
	StrengthMedium Strength = "Medium"
	StrengthStrong Strength = "Strong"
)

type Color string

const (
	ColorClear  Color = "Clear"
	ColorAmber  Color = "Amber"
	ColorRed    Color = "Red"
	ColorPink   Color = "Pink"
	ColorOrange Color = "Orange"
	ColorYellow Color = "Yellow"
	ColorGreen  Color = "Green"
	ColorBlue   Color = "Blue"
	ColorBrown  Color = "Brown"
	ColorWhite  Color = "White"
	ColorPurple Color = "Purple"
)

type ServingTemperature string

const (
	TemperatureCold   ServingTemperature = "Cold"
	TemperatureFrozen ServingTemperature = "Frozen"
	TemperatureRoom   ServingTemperature = "Room Temperature"
	TemperatureHot    ServingTemperature = "Hot"
)

type FlavorProfile string

const (
	FlavorSweet  FlavorProfile = "Sweet"
	FlavorSour   FlavorProfile = "Sour"
	FlavorBitter FlavorProfile = "Bitter"
	FlavorFruity FlavorProfile = "Fruity"
	FlavorHerbal FlavorProfile = "Herbal"
	FlavorSpicy  FlavorProfile = "Spicy"
	FlavorSmoky  FlavorProfile = "Smoky"
	FlavorCreamy FlavorProfile = "Creamy"
	FlavorCitrus FlavorProfile = "Citrus"
	FlavorDry    FlavorProfile = "Dry"
	FlavorFloral FlavorProfile = "Floral"
	FlavorSavory FlavorProfile = "Savory"
)

// Season, Occasion, TimeOfDay and SugarLevel come from catalog data that
// never pinned their values down, so the sets below are the canonical ones.
type Season string

const (
	SeasonSpring  Season = "Spring"
	SeasonSummer  Season = "Summer"
	SeasonFall    Season = "Fall"
	SeasonWinter  Season = "Winter"
	SeasonAllYear Season = "All Year"
)

type Occasion string

const (
	OccasionCasual      Occasion = "Casual"
	OccasionParty       Occasion = "Party"
	OccasionBrunch      Occasion = "Brunch"
	OccasionDinner      Occasion = "Dinner"
	OccasionNightcap    Occasion = "Nightcap"
	OccasionCelebration Occasion = "Celebration"
	OccasionHoliday     Occasion = "Holiday"
)

type TimeOfDay string

const (
	TimeMorning   TimeOfDay = "Morning"
	TimeAfternoon TimeOfDay = "Afternoon"
	TimeEvening   TimeOfDay = "Evening"
	TimeLateNight TimeOfDay = "Late Night"
	TimeAnytime   TimeOfDay = "Anytime"
)

type SugarLevel string

const (
	SugarNone   SugarLevel = "None"
	SugarLow    SugarLevel = "Low"
	SugarMedium SugarLevel = "Medium"
	SugarHigh   SugarLevel = "High"
)

var (
	Styles = []Style{
		StyleClassic, StyleModern, StyleTiki, StyleSour, StyleHighball, StyleMartini,
		StyleFizz, StyleHotDrink, StyleShot, StyleMocktail, StyleDessert, StyleSignature,
		StyleExperiment, StylePunch, StyleAperitif, StyleDigestif, StyleSpritz, StyleFlip,
		StyleJulep, StyleOldFashioned,
	}
	Methods      = []Method{MethodShaken, MethodStirred, MethodBuilt, MethodBlended, MethodMuddled, MethodLayered, MethodThrown}
	Glasses      = []Glass{GlassCoupe, GlassMartini, GlassRocks, GlassHighball, GlassCollins, GlassNickAndNora, GlassHurricane, GlassTiki, GlassCopperMug, GlassWine, GlassFlute, GlassShot, GlassIrishCoffee, GlassJulepCup}
	Strengths    = []Strength{StrengthNone, StrengthLight, StrengthMedium, StrengthStrong}
	Colors       = []Color{ColorClear, ColorAmber, ColorRed, ColorPink, ColorOrange, ColorYellow, ColorGreen, ColorBlue, ColorBrown, ColorWhite, ColorPurple}
	Temperatures = []ServingTemperature{TemperatureCold, TemperatureFrozen, TemperatureRoom, TemperatureHot}
	Flavors      = []FlavorProfile{FlavorSweet, FlavorSour, FlavorBitter, FlavorFruity, FlavorHerbal, FlavorSpicy, FlavorSmoky, FlavorCreamy, FlavorCitrus, FlavorDry, FlavorFloral, FlavorSavory}
	Seasons      = []Season{SeasonSpring, SeasonSummer, SeasonFall, SeasonWinter, SeasonAllYear}
	Occasions    = []Occasion{OccasionCasual, OccasionParty, OccasionBrunch, OccasionDinner, OccasionNightcap, OccasionCelebration, OccasionHoliday}
	TimesOfDay   = []TimeOfDay{TimeMorning, TimeAfternoon, TimeEvening, TimeLateNight, TimeAnytime}
	SugarLevels  = []SugarLevel{SugarNone, SugarLow, SugarMedium, SugarHigh}
)

// Facets lists the allowed values of every enumerated facet keyed by its
// query parameter name. Clients use it to build filter controls.
func Facets() map[string][]string {
	return map[string][]string{
		"style":               toStrings(Styles),
		"method":              toStrings(Methods),
		"glass_type":          toStrings(Glasses),
		"strength":            toStrings(Strengths),
		"color":               toStrings(Colors),
		"serving_temperature": toStrings(Temperatures),
		"flavor_profiles":     toStrings(Flavors),
		"season":              toStrings(Seasons),
		"occasion":            toStrings(Occasions),
		"time_of_day":         toStrings(TimesOfDay),
		"sugar_level":         toStrings(SugarLevels),
	}
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// Valid reports whether v is one of values. The empty string is never valid.
func Valid[T ~string](values []T, v T) bool {
	return v != "" && lo.Contains(values, v)
}
