// Package insights turns backend analysis results into a prioritized list of
// typed insights and keeps a bounded history of what was shown.
package insights

import (
	"fmt"
	"sort"
	"strings"

	"dashmetrics/internal/metrics"
)

// Type is the severity class of an insight.
type Type string

const (
	Danger  Type = "danger"
	Warning Type = "warning"
	Success Type = "success"
	Info    Type = "info"
)

var priority = map[Type]int{Danger: 0, Warning: 1, Success: 2, Info: 3}

// Priority orders types for display; lower sorts first.
func (t Type) Priority() int {
	if p, ok := priority[t]; ok {
		return p
	}
	return len(priority)
}

// Insight is a display-ready analysis item.
type Insight struct {
	Metric      string   `json:"metric"`
	Value       string   `json:"value"`
	RawValue    *float64 `json:"raw_value,omitempty"`
	Type        Type     `json:"type"`
	Message     string   `json:"message"`
	Advice      string   `json:"advice"`
	Actions     []string `json:"actions"`
	Description string   `json:"description"`
}

// Format projects the backend collections (trends, predictions, anomalies and
// general_insights) into insights sorted by type priority. A non-empty backend
// object that yields nothing produces a single "analysis complete" insight.
func Format(backend map[string]any) []Insight {
	var out []Insight
	for _, t := range objects(backend["trends"]) {
		out = append(out, fromTrend(t))
	}
	for _, p := range objects(backend["predictions"]) {
		out = append(out, fromPrediction(p))
	}
	for _, a := range objects(backend["anomalies"]) {
		out = append(out, fromAnomaly(a))
	}
	for _, g := range objects(backend["general_insights"]) {
		out = append(out, fromGeneral(g))
	}

	if len(out) == 0 && len(backend) > 0 {
		out = append(out, Insight{
			Metric:      "Análise Completa",
			Value:       "✅",
			Type:        Success,
			Message:     "Análise realizada com sucesso",
			Advice:      "O servidor processou os dados e não encontrou problemas críticos.",
			Actions:     []string{},
			Description: "Processamento por machine learning",
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Type.Priority() < out[j].Type.Priority()
	})
	return out
}

// SeverityType maps the backend severity vocabulary onto insight types.
func SeverityType(severity string) Type {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "critical", "high", "danger":
		return Danger
	case "medium", "low", "warning", "negative":
		return Warning
	case "positive", "success":
		return Success
	default:
		return Info
	}
}

func fromTrend(t map[string]any) Insight {
	severity := str(t, "severity")
	if severity == "" {
		severity = str(t, "type")
	}
	return Insight{
		Metric:      strOr(t, "metric", "Tendência"),
		Value:       str(t, "value"),
		RawValue:    num(t, "raw_value"),
		Type:        SeverityType(severity),
		Message:     str(t, "message"),
		Advice:      str(t, "advice"),
		Actions:     strs(t, "recommendations"),
		Description: strOr(t, "description", "Análise de tendência"),
	}
}

func fromPrediction(p map[string]any) Insight {
	trend := strings.ToLower(str(p, "trend"))
	change := 0.0
	if c := num(p, "change_percentage"); c != nil {
		change = *c
	}
	positive := trend == "up" || trend == "upward" || trend == "positive" || change > 0

	in := Insight{
		Metric:      strOr(p, "metric", "Previsão"),
		Value:       predictionValue(p),
		RawValue:    num(p, "value"),
		Type:        Warning,
		Message:     "Previsão: Baixa 📉",
		Advice:      "Baseado em análise histórica",
		Actions:     strs(p, "actions"),
		Description: "Previsão baseada em modelo de machine learning",
	}
	if in.RawValue == nil {
		in.RawValue = num(p, "next_month_value")
	}
	if positive {
		in.Type = Success
		in.Message = "Previsão: Alta 📈"
	}
	if c := num(p, "confidence"); c != nil && *c != 0 {
		in.Advice = fmt.Sprintf("Confiança: %s%%", trimFloat(*c))
	}
	return in
}

func predictionValue(p map[string]any) string {
	v := num(p, "value")
	if v == nil {
		if next := num(p, "next_month_value"); next != nil {
			return fmt.Sprintf("R$ %.2f", *next)
		}
		return str(p, "value")
	}
	switch str(p, "unit") {
	case "%":
		return fmt.Sprintf("%.1f%%", *v)
	case "R$":
		return fmt.Sprintf("R$ %.2f", *v)
	case "x":
		return fmt.Sprintf("%.1fx", *v)
	default:
		return trimFloat(*v)
	}
}

func fromAnomaly(a map[string]any) Insight {
	actions := []string{"Investigar causa raiz"}
	if _, ok := a["suggestions"].([]any); ok {
		actions = strs(a, "suggestions")
	}
	return Insight{
		Metric:      strOr(a, "metric", "Anomalia"),
		Value:       str(a, "value"),
		RawValue:    num(a, "raw_value"),
		Type:        Danger,
		Message:     strOr(a, "message", "Anomalia Detectada"),
		Advice:      strOr(a, "explanation", "Valor fora do padrão esperado"),
		Actions:     actions,
		Description: "Detecção de outliers",
	}
}

func fromGeneral(g map[string]any) Insight {
	return Insight{
		Metric:      "Insight da IA",
		Value:       "",
		Type:        Info,
		Message:     str(g, "insight"),
		Advice:      str(g, "implication"),
		Actions:     strs(g, "next_steps"),
		Description: "Análise de inteligência artificial",
	}
}

func objects(v any) []map[string]any {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func str(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return trimFloat(v)
	default:
		return fmt.Sprint(v)
	}
}

func strOr(m map[string]any, key, fallback string) string {
	if s := str(m, key); s != "" {
		return s
	}
	return fallback
}

func num(m map[string]any, key string) *float64 {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return nil
	}
	f := metrics.ParseNumber(v)
	return &f
}

func strs(m map[string]any, key string) []string {
	items, _ := m[key].([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func trimFloat(f float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}
