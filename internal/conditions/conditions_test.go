package conditions

import "testing"

func TestLabel(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{"Clouds", "Cloudy"},
		{"Rain", "Rain"},
		{"Clear", "Clear Sky"},
		{"Drizzle", "Drizzle"},
		{"Mist", "Mist"},
		{"Fog", "Mist"},
		{"Haze", "Mist"},
		{"Snow", "Snow"},
		{"Thunderstorm", "Thunderstorm"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Label(tt.category); got != tt.want {
			t.Errorf("Label(%q) = %q, want %q", tt.category, got, tt.want)
		}
	}
}

func TestIconFor(t *testing.T) {
	tests := []struct {
		category string
		night    bool
		want     Icon
	}{
		{"Clear", false, IconClear},
		{"Clear", true, IconClear},
		{"Clouds", false, IconSunCloud},
		{"Clouds", true, IconNightCloud},
		{"Rain", true, IconRain},
		{"Snow", false, IconSnow},
		{"Drizzle", true, IconDrizzle},
		{"Haze", true, IconMist},
		{"Tornado", false, IconSunCloud},
		{"Tornado", true, IconNightCloud},
	}

	for _, tt := range tests {
		if got := IconFor(tt.category, tt.night); got != tt.want {
			t.Errorf("IconFor(%q, %v) = %q, want %q", tt.category, tt.night, got, tt.want)
		}
	}
}

func TestMistEquivalence(t *testing.T) {
	for _, night := range []bool{false, true} {
		mistLabel, mistIcon := Label("Mist"), IconFor("Mist", night)
		for _, c := range []string{"Fog", "Haze"} {
			if Label(c) != mistLabel {
				t.Errorf("Label(%q) = %q, want %q", c, Label(c), mistLabel)
			}
			if IconFor(c, night) != mistIcon {
				t.Errorf("IconFor(%q, %v) = %q, want %q", c, night, IconFor(c, night), mistIcon)
			}
		}
	}
}

func TestIsNight(t *testing.T) {
	const sunrise, sunset = 1000, 2000

	tests := []struct {
		name string
		at   int64
		want bool
	}{
		{"before sunrise", 999, true},
		{"at sunrise", 1000, false},
		{"midday", 1500, false},
		{"at sunset", 2000, false},
		{"after sunset", 2001, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNight(tt.at, sunrise, sunset); got != tt.want {
				t.Errorf("IsNight(%d) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}
