// Package mock generates placeholder category data for when the analytics API
// is unreachable.
package mock

import (
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"dashmetrics/internal/api"
	"dashmetrics/internal/insights"
	"dashmetrics/internal/series"
)

type field struct {
	key      string
	min, max float64
	suffix   string
}

// Currency fields carry plain numbers; a "R$ " prefix would not parse back.
var profiles = map[string][]field{
	"email": {
		{key: "taxa_abertura", min: 10, max: 40, suffix: "%"},
		{key: "taxa_cliques", min: 1, max: 6, suffix: "%"},
		{key: "taxa_conversao", min: 0.5, max: 3.5, suffix: "%"},
		{key: "taxa_rejeicao", min: 0, max: 10, suffix: "%"},
		{key: "investimento", min: 1000, max: 6000},
	},
	"social": {
		{key: "engajamento", min: 100, max: 1100},
		{key: "alcance", min: 1000, max: 11000},
		{key: "seguidores", min: 500, max: 5500},
		{key: "taxa_roas", min: 1, max: 11, suffix: "x"},
		{key: "investimento", min: 800, max: 5800},
	},
	"ads": {
		{key: "cpc", min: 0.5, max: 5.5},
		{key: "ctr", min: 0.5, max: 5.5, suffix: "%"},
		{key: "conversoes", min: 10, max: 110},
		{key: "roas", min: 1, max: 11, suffix: "x"},
		{key: "investimento", min: 1500, max: 6500},
	},
}

// Profile returns the profile name used for category.
func Profile(category string) string {
	switch {
	case category == "social":
		return "social"
	case category == "ads" || strings.HasSuffix(category, "-ads"):
		return "ads"
	default:
		return "email"
	}
}

// NewRand returns a generator seeded with seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Generate returns six months of rows for each category, keyed by category.
func Generate(categories []string, rng *rand.Rand) map[string]any {
	out := make(map[string]any, len(categories))
	for _, c := range categories {
		out[c] = Category(c, rng)
	}
	return out
}

// Category returns six rows shaped {"Mês": month, "data": {...}}.
func Category(category string, rng *rand.Rand) []any {
	fields := profiles[Profile(category)]
	rows := make([]any, 0, len(series.FallbackLabels))
	for _, month := range series.FallbackLabels {
		data := make(map[string]any, len(fields))
		for _, f := range fields {
			v := math.Round((rng.Float64()*(f.max-f.min)+f.min)*100) / 100
			if f.suffix != "" {
				data[f.key] = strconv.FormatFloat(v, 'f', -1, 64) + f.suffix
			} else {
				data[f.key] = v
			}
		}
		rows = append(rows, map[string]any{"Mês": month, "data": data})
	}
	return rows
}

// Response builds a complete process-data response with offline insights.
func Response(categories []string, rng *rand.Rand) *api.ProcessResponse {
	ai := make(map[string]any, len(categories))
	for _, c := range categories {
		ai[c] = insights.Fallback()
	}
	return &api.ProcessResponse{
		Status:     "success",
		Data:       Generate(categories, rng),
		AIInsights: ai,
	}
}
