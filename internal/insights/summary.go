package insights

import "github.com/samber/lo"

// Summary counts insights per type.
type Summary struct {
	Total   int `json:"total"`
	Danger  int `json:"danger"`
	Warning int `json:"warning"`
	Success int `json:"success"`
	Info    int `json:"info"`
}

func Summarize(list []Insight) Summary {
	byType := func(t Type) int {
		return lo.CountBy(list, func(in Insight) bool { return in.Type == t })
	}
	return Summary{
		Total:   len(list),
		Danger:  byType(Danger),
		Warning: byType(Warning),
		Success: byType(Success),
		Info:    byType(Info),
	}
}

// Fallback is the backend-shaped result used when the analysis service is unreachable.
func Fallback() map[string]any {
	return map[string]any{
		"general_insights": []any{
			map[string]any{
				"insight":     "Análise limitada (modo offline)",
				"implication": "Os insights detalhados estarão disponíveis quando o servidor responder.",
				"next_steps":  []any{"Verificar conexão com o servidor", "Tentar novamente mais tarde"},
			},
		},
	}
}
