package kpi

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// Format renders a KPI value by unit: percentages, currency (R$), multipliers,
// then K/M abbreviations and pt-BR grouping for plain counts. When unit is empty
// it is inferred from the metric key.
func Format(value float64, unit, key string) string {
	if unit == "" {
		unit = inferUnit(key)
	}
	switch unit {
	case "%":
		return fmt.Sprintf("%.1f%%", value)
	case "R$":
		return fmt.Sprintf("R$ %.2f", value)
	case "x":
		return fmt.Sprintf("%.1fx", value)
	}
	switch {
	case value >= 1_000_000:
		return fmt.Sprintf("%.1fM", value/1_000_000)
	case value >= 1_000:
		return fmt.Sprintf("%.1fK", value/1_000)
	default:
		return printer.Sprint(number.Decimal(value, number.MaxFractionDigits(1)))
	}
}

func inferUnit(key string) string {
	k := strings.ToLower(key)
	switch {
	case strings.Contains(k, "taxa"), strings.Contains(k, "ctr"), strings.Contains(k, "%"):
		return "%"
	case strings.Contains(k, "roas"):
		return "x"
	case strings.Contains(k, "r$"), strings.Contains(k, "custo"), strings.Contains(k, "cpc"),
		strings.Contains(k, "cpm"), strings.Contains(k, "investimento"), strings.Contains(k, "receita"),
		strings.Contains(k, "ticket"), k == "cac":
		return "R$"
	}
	return ""
}
