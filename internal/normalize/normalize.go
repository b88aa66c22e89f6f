// Package normalize turns the heterogeneous payloads returned by the analytics
// API into canonical series.
package normalize

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"dashmetrics/internal/metrics"
	"dashmetrics/internal/series"

	"github.com/rs/zerolog/log"
)

// Result is the outcome of normalizing one metric out of a payload.
type Result struct {
	Series series.Series
	// Chart and Payload are set when the payload was already chart-ready.
	// Payload is the object exactly as received, including keys ChartData
	// does not model such as options.
	Chart      *series.ChartData
	Payload    map[string]any
	Shape      Shape
	Diagnostic string
}

// Fallback reports whether the result is the placeholder series.
func (r Result) Fallback() bool { return r.Diagnostic != "" }

// Normalize extracts the series for metricKey. It never fails: payloads it
// cannot interpret produce the six-period zero series and a diagnostic.
func Normalize(payload any, metricKey string) Result {
	shape := Classify(payload)
	switch shape {
	case RowArray:
		return Result{Series: fromRows(asRows(payload), metricKey), Shape: shape}
	case ChartReady:
		p := payload.(map[string]any)
		chart := decodeChart(p)
		return Result{Series: chart.Primary(), Chart: &chart, Payload: p, Shape: shape}
	case Wrapped:
		rows := payload.(map[string]any)["data"].([]any)
		return Result{Series: fromRows(rows, metricKey), Shape: shape}
	case CategoryMap:
		groups := metricGroups(payload.(map[string]any))
		for _, c := range metrics.Candidates(metricKey) {
			if seq, ok := groups[c].([]any); ok {
				return Result{Series: fromSequence(seq, c), Shape: shape}
			}
		}
		return fallback(shape, metricKey, fmt.Sprintf("no sequence for metric %q in category map", metricKey))
	default:
		return fallback(shape, metricKey, fmt.Sprintf("unrecognized payload of type %T", payload))
	}
}

// Named is one series out of a multi-metric payload.
type Named struct {
	Name   string        `json:"name"`
	Series series.Series `json:"series"`
}

// NormalizeMulti returns one series per sequence-valued key, sorted by name.
func NormalizeMulti(payload any) []Named {
	m, ok := payload.(map[string]any)
	if !ok {
		return nil
	}
	groups := metricGroups(m)
	names := make([]string, 0, len(groups))
	for name, v := range groups {
		if _, ok := v.([]any); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]Named, 0, len(names))
	for _, name := range names {
		out = append(out, Named{Name: name, Series: fromSequence(groups[name].([]any), name)})
	}
	return out
}

// Rows returns the row objects of a row-array or wrapped payload, skipping
// anything that is not an object.
func Rows(payload any) []map[string]any {
	var items []any
	switch Classify(payload) {
	case RowArray:
		items = asRows(payload)
	case Wrapped:
		items = payload.(map[string]any)["data"].([]any)
	default:
		return nil
	}
	rows := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if row, ok := it.(map[string]any); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

func fallback(shape Shape, metricKey, diagnostic string) Result {
	log.Warn().Str("shape", shape.String()).Str("metric", metricKey).Msg("Using fallback series: " + diagnostic)
	return Result{Series: series.Fallback(), Shape: shape, Diagnostic: diagnostic}
}

func asRows(payload any) []any {
	switch p := payload.(type) {
	case []any:
		return p
	case []map[string]any:
		rows := make([]any, len(p))
		for i, r := range p {
			rows[i] = r
		}
		return rows
	}
	return nil
}

// fromRows keeps every row so labels and points stay aligned with the input.
func fromRows(rows []any, metricKey string) series.Series {
	b := series.NewBuilder(len(rows))
	for i, r := range rows {
		row, ok := r.(map[string]any)
		if !ok {
			b.Add(SynthLabel(i), metrics.ParseNumber(r))
			continue
		}
		b.Add(RowLabel(row, i), metrics.Resolve(row, metricKey))
	}
	return b.Series()
}

func fromSequence(items []any, name string) series.Series {
	b := series.NewBuilder(len(items))
	for i, it := range items {
		if row, ok := it.(map[string]any); ok {
			b.Add(RowLabel(row, i), metrics.Resolve(row, name))
			continue
		}
		b.Add(SynthLabel(i), metrics.ParseNumber(it))
	}
	return b.Series()
}

var (
	periodKeys = []string{"periodo", "period", "Período"}
	monthKeys  = []string{"mes", "month", "Mês", "mes_ano"}
)

// RowLabel picks the period label of a row: period, month, formatted date,
// label, then a synthesized "Mês N".
func RowLabel(row map[string]any, index int) string {
	for _, k := range periodKeys {
		if s := stringField(row, k); s != "" {
			return s
		}
	}
	for _, k := range monthKeys {
		if s := stringField(row, k); s != "" {
			return s
		}
	}
	if s := stringField(row, "date"); s != "" {
		return FormatDate(s)
	}
	if s := stringField(row, "label"); s != "" {
		return s
	}
	return SynthLabel(index)
}

func SynthLabel(index int) string {
	return fmt.Sprintf("Mês %d", index+1)
}

func stringField(row map[string]any, key string) string {
	v, ok := row[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

var shortMonths = [...]string{"jan.", "fev.", "mar.", "abr.", "mai.", "jun.", "jul.", "ago.", "set.", "out.", "nov.", "dez."}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "2006-01", "02/01/2006"}

// FormatDate renders a date as a pt-BR short month and year ("jan. de 2024").
// Unparseable input is returned as is.
func FormatDate(raw string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return fmt.Sprintf("%s de %d", shortMonths[t.Month()-1], t.Year())
		}
	}
	return raw
}

func decodeChart(p map[string]any) series.ChartData {
	var c series.ChartData
	if labels, ok := p["labels"].([]any); ok {
		for _, l := range labels {
			c.Labels = append(c.Labels, fmt.Sprint(l))
		}
	}
	datasets, _ := p["datasets"].([]any)
	for _, d := range datasets {
		m, ok := d.(map[string]any)
		if !ok {
			continue
		}
		ds := series.Dataset{}
		ds.Type, _ = m["type"].(string)
		ds.Label, _ = m["label"].(string)
		ds.BorderColor, _ = m["borderColor"].(string)
		ds.BorderWidth = int(metrics.ParseNumber(m["borderWidth"]))
		ds.PointRadius = int(metrics.ParseNumber(m["pointRadius"]))
		ds.Tension = metrics.ParseNumber(m["tension"])
		ds.Fill = truthy(m["fill"])
		if data, ok := m["data"].([]any); ok {
			for _, v := range data {
				ds.Data = append(ds.Data, metrics.ParseNumber(v))
			}
		}
		switch bg := m["backgroundColor"].(type) {
		case string:
			ds.BackgroundColor = []string{bg}
		case []any:
			for _, v := range bg {
				if s, ok := v.(string); ok {
					ds.BackgroundColor = append(ds.BackgroundColor, s)
				}
			}
		}
		c.Datasets = append(c.Datasets, ds)
	}
	return c
}
