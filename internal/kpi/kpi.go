// Package kpi computes the headline numbers shown above the charts.
package kpi

import (
	"fmt"
	"math"

	"dashmetrics/internal/metrics"
)

// Direction of a trailing-window trend.
type Direction string

const (
	Up      Direction = "up"
	Down    Direction = "down"
	Neutral Direction = "neutral"
)

const (
	trendWindow    = 3
	trendThreshold = 5.0
)

// Trend compares the mean of the last three points with the three before.
type Trend struct {
	Direction Direction `json:"direction"`
	Change    float64   `json:"change"`
	Label     string    `json:"label"`
}

var neutral = Trend{Direction: Neutral, Change: 0, Label: "0%"}

// TrendOf computes the trend of a series. Changes within ±5% are neutral,
// as are series with fewer than two points or a zero previous mean.
func TrendOf(points []float64) Trend {
	if len(points) < 2 {
		return neutral
	}
	recentStart := max(0, len(points)-trendWindow)
	previousStart := max(0, len(points)-2*trendWindow)

	recent := Mean(points[recentStart:])
	previous := Mean(points[previousStart:recentStart])
	if recentStart == 0 || previous == 0 {
		return neutral
	}

	change := (recent - previous) / previous * 100
	abs := fmt.Sprintf("%.1f", math.Abs(change))
	switch {
	case change > trendThreshold:
		return Trend{Direction: Up, Change: change, Label: "+" + abs + "%"}
	case change < -trendThreshold:
		return Trend{Direction: Down, Change: change, Label: abs + "%"}
	default:
		return Trend{Direction: Neutral, Change: change, Label: abs + "%"}
	}
}

// KPI is a headline card for one metric.
type KPI struct {
	Title     string  `json:"title"`
	DataKey   string  `json:"data_key"`
	Unit      string  `json:"unit,omitempty"`
	Value     float64 `json:"value"`
	Formatted string  `json:"formatted"`
	Trend     Trend   `json:"trend"`
}

// Compute builds the KPI card for a metric from its series points.
func Compute(title, dataKey, unit string, points []float64) KPI {
	v := Mean(points)
	return KPI{
		Title:     title,
		DataKey:   dataKey,
		Unit:      unit,
		Value:     v,
		Formatted: Format(v, unit, dataKey),
		Trend:     TrendOf(points),
	}
}

// MetricSummary holds the aggregate columns of the export summary sheet.
type MetricSummary struct {
	Metric      string  `json:"metric"`
	Label       string  `json:"label"`
	Mean        float64 `json:"mean"`
	Median      float64 `json:"median"`
	Max         float64 `json:"max"`
	Min         float64 `json:"min"`
	Last        float64 `json:"last"`
	TrendAbs    float64 `json:"trend_abs"`
	TrendPct    float64 `json:"trend_pct"`
	Description string  `json:"description"`
}

// Summarize aggregates a metric. The trend columns compare the last point with the first.
func Summarize(metric string, points []float64) MetricSummary {
	s := MetricSummary{
		Metric:      metric,
		Label:       metrics.DisplayName(metric),
		Mean:        Mean(points),
		Median:      Median(points),
		Description: Description(metric),
	}
	s.Min, s.Max = Bounds(points)
	if len(points) == 0 {
		return s
	}
	first, last := points[0], points[len(points)-1]
	s.Last = last
	s.TrendAbs = last - first
	if first != 0 {
		s.TrendPct = (last - first) / first * 100
	}
	return s
}

var descriptions = map[string]string{
	"taxa_abertura":       "Percentual de e-mails abertos",
	"taxa_cliques":        "Percentual de cliques nos links",
	"taxa_conversao":      "Percentual de conversões",
	"taxa_rejeicao":       "Percentual de rejeição",
	"alcance":             "Número de pessoas alcançadas",
	"engajamento":         "Interações com o conteúdo",
	"seguidores":          "Total de seguidores",
	"ctr":                 "Taxa de cliques",
	"cpc":                 "Custo por clique",
	"cpm":                 "Custo por mil impressões",
	"roas":                "Retorno sobre investimento em anúncios",
	"conversoes":          "Número de conversões",
	"receita":             "Receita total",
	"ticket_medio":        "Valor médio por pedido",
	"cac":                 "Custo de aquisição de cliente",
	"investimento":        "Valor investido",
	"sessoes":             "Número de sessões",
	"page_views":          "Visualizações de página",
	"tempo_medio_pagina":  "Tempo médio de permanência",
	"leads_convertidos":   "Leads convertidos em clientes",
	"crescimento_trafego": "Crescimento do tráfego orgânico",
}

// Description returns the export description of a metric.
func Description(metric string) string {
	if d, ok := descriptions[metric]; ok {
		return d
	}
	return "Métrica de performance"
}
