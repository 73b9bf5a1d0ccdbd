package conditions

// Icon is the path of an icon resource served from the static directory
type Icon string

const (
	IconClear      Icon = "images/clear.png"
	IconSunCloud   Icon = "images/sun-cloud.png"
	IconNightCloud Icon = "images/night-cloud.png"
	IconRain       Icon = "images/rain.png"
	IconSnow       Icon = "images/snow.png"
	IconDrizzle    Icon = "images/drizzle.png"
	IconMist       Icon = "images/mist.png"
)

// Provider condition categories (weather[0].main)
const (
	CategoryClear   = "Clear"
	CategoryClouds  = "Clouds"
	CategoryRain    = "Rain"
	CategoryDrizzle = "Drizzle"
	CategorySnow    = "Snow"
	CategoryMist    = "Mist"
	CategoryFog     = "Fog"
	CategoryHaze    = "Haze"
)

// Label maps a provider category to its display label.
// Unknown categories are returned unchanged.
func Label(category string) string {
	switch category {
	case CategoryClouds:
		return "Cloudy"
	case CategoryRain:
		return "Rain"
	case CategoryClear:
		return "Clear Sky"
	case CategoryDrizzle:
		return "Drizzle"
	case CategoryMist, CategoryFog, CategoryHaze:
		return "Mist"
	case CategorySnow:
		return "Snow"
	default:
		return category
	}
}

// IconFor picks the icon for a category in the given day/night phase.
// Unknown categories fall back to the phase's cloudy icon.
func IconFor(category string, night bool) Icon {
	switch category {
	case CategoryClear:
		return IconClear
	case CategoryRain:
		return IconRain
	case CategorySnow:
		return IconSnow
	case CategoryDrizzle:
		return IconDrizzle
	case CategoryMist, CategoryFog, CategoryHaze:
		return IconMist
	}
	if night {
		return IconNightCloud
	}
	return IconSunCloud
}

// IsNight reports whether observedAt lies strictly before sunrise or strictly
// after sunset. All three are unix seconds; the boundaries count as day.
func IsNight(observedAt, sunrise, sunset int64) bool {
	return observedAt < sunrise || observedAt > sunset
}
