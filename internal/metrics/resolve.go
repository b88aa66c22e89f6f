package metrics

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/samber/lo"
)

// Candidates lists the field names a metric may appear under, in lookup priority:
// the key itself, its snake_case form, backend keys reverse-mapped from a display
// name, then the key without spaces and its lowercase form.
func Candidates(key string) []string {
	keys := []string{key, SnakeCase(key)}
	keys = append(keys, backendKeys(key)...)
	noSpaces := strings.ReplaceAll(key, " ", "")
	keys = append(keys, noSpaces, strings.ToLower(noSpaces))

	return lo.Uniq(lo.Compact(keys))
}

// Resolve returns the numeric value of key on row. The first candidate present
// wins; otherwise the generic "value" field, then row["data"][key]. Absent
// values resolve to 0.
func Resolve(row map[string]any, key string) float64 {
	for _, c := range Candidates(key) {
		if v, ok := row[c]; ok && v != nil {
			return ParseNumber(v)
		}
	}
	if v, ok := row["value"]; ok && v != nil {
		return ParseNumber(v)
	}
	if nested, ok := row["data"].(map[string]any); ok {
		if v, ok := nested[key]; ok && v != nil {
			return ParseNumber(v)
		}
	}
	return 0
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber coerces a decoded JSON value to a float. Strings are parsed by
// their leading numeric prefix ("25.5%" is 25.5). Anything unparseable,
// NaN or infinite is 0.
func ParseNumber(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		f = parsePrefix(n.String())
	case string:
		f = parsePrefix(n)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parsePrefix(s string) float64 {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}

// SnakeCase converts "Valor X" and "valorX" to "valor_x".
func SnakeCase(s string) string {
	runes := []rune(strings.TrimSpace(s))
	var b strings.Builder
	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
				b.WriteRune('_')
			}
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return strings.Trim(out, "_")
}
