package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"dashmetrics/internal/api"
	"dashmetrics/internal/insights"
	"dashmetrics/internal/metrics"
	"dashmetrics/internal/mock"
)

type GeneratorConfig struct {
	Categories []string
	Scenario   string // "mild", "chaos" or "drift"
	Shape      string // "rows", "wrapped", "chart" or "map"
	Seed       uint64
}

// Generate builds a process-data response. Scenarios distort the mild mock
// rows (spikes for chaos, a steady decline for drift) and add matching
// backend insights; shapes re-encode each category in one of the payload
// layouts the dashboard understands.
func Generate(cfg GeneratorConfig) (*api.ProcessResponse, error) {
	rng := mock.NewRand(cfg.Seed)
	resp := &api.ProcessResponse{
		Status:     "success",
		Data:       make(map[string]any, len(cfg.Categories)),
		AIInsights: make(map[string]any, len(cfg.Categories)),
	}

	for _, c := range cfg.Categories {
		rows := mock.Category(c, rng)
		var backend map[string]any

		switch cfg.Scenario {
		case "", "mild":
			backend = insights.Fallback()
		case "chaos":
			backend = chaos(rows, rng)
		case "drift":
			backend = drift(rows)
		default:
			return nil, fmt.Errorf("unknown scenario %q", cfg.Scenario)
		}

		payload, err := reshape(rows, cfg.Shape)
		if err != nil {
			return nil, err
		}
		resp.Data[c] = payload
		resp.AIInsights[c] = backend
	}
	return resp, nil
}

// chaos multiplies one metric of one month by 3 to 5 and reports it as an anomaly.
func chaos(rows []any, rng *rand.Rand) map[string]any {
	i := rng.IntN(len(rows))
	row := rows[i].(map[string]any)
	data := row["data"].(map[string]any)
	keys := sortedKeys(data)
	key := keys[rng.IntN(len(keys))]
	data[key] = scale(data[key], 3+2*rng.Float64())

	return map[string]any{
		"anomalies": []any{map[string]any{
			"metric":      metrics.DisplayName(key),
			"value":       fmt.Sprint(data[key]),
			"raw_value":   metrics.ParseNumber(data[key]),
			"message":     fmt.Sprintf("Pico fora do padrão em %s", row["Mês"]),
			"explanation": "Valor muito acima da média dos demais meses",
			"suggestions": []any{"Verificar a origem do dado", "Comparar com o mês anterior"},
		}},
	}
}

// drift makes every metric fall 8% per month and reports the decline as trends.
func drift(rows []any) map[string]any {
	for i, r := range rows {
		data := r.(map[string]any)["data"].(map[string]any)
		for k, v := range data {
			data[k] = scale(v, 1-0.08*float64(i))
		}
	}

	first := rows[0].(map[string]any)["data"].(map[string]any)
	var trends []any
	for _, k := range sortedKeys(first) {
		trends = append(trends, map[string]any{
			"metric":   metrics.DisplayName(k),
			"severity": "high",
			"message":  "Queda contínua nos últimos meses",
			"value":    "-40%",
		})
	}
	return map[string]any{"trends": trends}
}

func reshape(rows []any, shape string) (any, error) {
	switch shape {
	case "", "rows":
		return rows, nil
	case "wrapped":
		return map[string]any{"data": rows}, nil
	case "chart":
		labels := make([]any, 0, len(rows))
		var data []any
		key := sortedKeys(rows[0].(map[string]any)["data"].(map[string]any))[0]
		for _, r := range rows {
			row := r.(map[string]any)
			labels = append(labels, row["Mês"])
			data = append(data, metrics.ParseNumber(row["data"].(map[string]any)[key]))
		}
		return map[string]any{
			"labels":   labels,
			"datasets": []any{map[string]any{"label": metrics.DisplayName(key), "data": data}},
		}, nil
	case "map":
		out := map[string]any{}
		for _, r := range rows {
			row := r.(map[string]any)
			for k, v := range row["data"].(map[string]any) {
				seq, _ := out[k].([]any)
				out[k] = append(seq, map[string]any{"Mês": row["Mês"], k: v})
			}
		}
		return map[string]any{"metrics": out}, nil
	default:
		return nil, fmt.Errorf("unknown shape %q", shape)
	}
}

// scale multiplies a mock value, keeping the unit suffix of string values.
func scale(v any, f float64) any {
	n := math.Round(metrics.ParseNumber(v)*f*100) / 100
	s, ok := v.(string)
	if !ok {
		return n
	}
	suffix := strings.TrimLeft(s, "+-0123456789.")
	return strconv.FormatFloat(n, 'f', -1, 64) + suffix
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Save writes the response as indented JSON to outDir/<name>.json and
// returns the path.
func Save(outDir, name string, resp *api.ProcessResponse) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, fmt.Sprintf("%s.json", name))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return "", err
	}
	return path, f.Close()
}
