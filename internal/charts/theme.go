package charts

import (
	"fmt"
	"strconv"
	"strings"
)

// Theme selects a palette.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// ParseTheme accepts "light" or "dark"; anything else is light.
func ParseTheme(s string) Theme {
	if strings.EqualFold(strings.TrimSpace(s), string(Dark)) {
		return Dark
	}
	return Light
}

// Palette holds the colours used for datasets and chart chrome.
type Palette struct {
	Primary    string
	Secondary  string
	Tertiary   string
	Quaternary string
	Quinary    string
	Grid       string
	Text       string
	Background string
}

var palettes = map[Theme]Palette{
	Light: {
		Primary:    "#1a73e8",
		Secondary:  "#34a853",
		Tertiary:   "#fbbc04",
		Quaternary: "#ea4335",
		Quinary:    "#4285f4",
		Grid:       "#e0e0e0",
		Text:       "#202124",
		Background: "#ffffff",
	},
	Dark: {
		Primary:    "#8ab4f8",
		Secondary:  "#81c995",
		Tertiary:   "#fdd663",
		Quaternary: "#f28b82",
		Quinary:    "#aecbfa",
		Grid:       "#5f6368",
		Text:       "#e8eaed",
		Background: "#202124",
	},
}

func (t Theme) Palette() Palette {
	if p, ok := palettes[t]; ok {
		return p
	}
	return palettes[Light]
}

func (p Palette) series() [5]string {
	return [5]string{p.Primary, p.Secondary, p.Tertiary, p.Quaternary, p.Quinary}
}

// DatasetColor picks a stable series colour for a chart id.
func (p Palette) DatasetColor(id string) string {
	h := int64(hashString(id))
	if h < 0 {
		h = -h
	}
	colors := p.series()
	return colors[h%int64(len(colors))]
}

// hashString is the 32-bit "h*31 + c" string hash.
func hashString(s string) int32 {
	var h int32
	for _, r := range s {
		h = (h << 5) - h + int32(r)
	}
	return h
}

// RGBA converts "#rrggbb" to a css rgba() string.
func RGBA(hex string, alpha float64) string {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return fmt.Sprintf("rgba(0, 0, 0, %g)", alpha)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return fmt.Sprintf("rgba(0, 0, 0, %g)", alpha)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %g)", v>>16&0xff, v>>8&0xff, v&0xff, alpha)
}

// BarColor grades a bar by value: percentages against 20/50, currency against
// 30%/70% of maxValue (10000 when unset). Other units use the primary colour.
func (p Palette) BarColor(value float64, unit string, maxValue float64) string {
	switch unit {
	case "%":
		switch {
		case value < 20:
			return p.Quaternary
		case value < 50:
			return p.Tertiary
		default:
			return p.Secondary
		}
	case "R$":
		if maxValue <= 0 {
			maxValue = 10000
		}
		n := value / maxValue
		switch {
		case n < 0.3:
			return p.Quaternary
		case n < 0.7:
			return p.Tertiary
		default:
			return p.Secondary
		}
	default:
		return p.Primary
	}
}
