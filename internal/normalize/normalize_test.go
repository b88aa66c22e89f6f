package normalize

import (
	"encoding/json"
	"testing"

	"dashmetrics/internal/series"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSeries(t *testing.T, labels []string, points []float64) series.Series {
	t.Helper()
	s, err := series.New(labels, points)
	require.NoError(t, err)
	return s
}

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		key       string
		want      series.Series
		wantShape Shape
	}{
		{
			name:      "RowArray",
			payload:   `[{"periodo":"2024-01","taxa_abertura":25.5}]`,
			key:       "taxa_abertura",
			want:      mustSeries(t, []string{"2024-01"}, []float64{25.5}),
			wantShape: RowArray,
		},
		{
			name:      "RowArrayLabelPriority",
			payload:   `[{"mes":"Jan","label":"x","v":1},{"date":"2024-02-10","v":"2%"},{"label":"Q3","v":3},{"v":4}]`,
			key:       "v",
			want:      mustSeries(t, []string{"Jan", "fev. de 2024", "Q3", "Mês 4"}, []float64{1, 2, 3, 4}),
			wantShape: RowArray,
		},
		{
			name:      "MissingMetricKeepsRow",
			payload:   `[{"periodo":"a","x":1},{"periodo":"b"},{"periodo":"c","x":"oops"}]`,
			key:       "x",
			want:      mustSeries(t, []string{"a", "b", "c"}, []float64{1, 0, 0}),
			wantShape: RowArray,
		},
		{
			name:      "NonObjectRows",
			payload:   `[1, "2.5", null]`,
			key:       "x",
			want:      mustSeries(t, []string{"Mês 1", "Mês 2", "Mês 3"}, []float64{1, 2.5, 0}),
			wantShape: RowArray,
		},
		{
			name:      "Wrapped",
			payload:   `{"data":[{"Mês":"Jan","data":{"roas":"3.5x"}},{"Mês":"Fev","data":{"roas":"4x"}}]}`,
			key:       "roas",
			want:      mustSeries(t, []string{"Jan", "Fev"}, []float64{3.5, 4}),
			wantShape: Wrapped,
		},
		{
			name:      "CategoryMap",
			payload:   `{"metrics":{"alcance":[{"periodo":"Jan","value":100},{"periodo":"Fev","value":200}]}}`,
			key:       "Alcance",
			want:      mustSeries(t, []string{"Jan", "Fev"}, []float64{100, 200}),
			wantShape: CategoryMap,
		},
		{
			name:      "Unrecognized",
			payload:   `{"unexpectedShape":true}`,
			key:       "x",
			want:      series.Fallback(),
			wantShape: Unrecognized,
		},
		{
			name:      "Scalar",
			payload:   `42`,
			key:       "x",
			want:      series.Fallback(),
			wantShape: Unrecognized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(decode(t, tt.payload), tt.key)
			if diff := cmp.Diff(tt.want, got.Series); diff != "" {
				t.Errorf("Normalize() series mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.wantShape, got.Shape)
		})
	}
}

func TestNormalizeFallbackCarriesDiagnostic(t *testing.T) {
	got := Normalize(map[string]any{"unexpectedShape": true}, "x")
	assert.True(t, got.Fallback())
	assert.NotEmpty(t, got.Diagnostic)

	ok := Normalize([]any{map[string]any{"x": 1.0}}, "x")
	assert.False(t, ok.Fallback())
}

func TestNormalizeChartReadyPassThrough(t *testing.T) {
	raw := `{"labels":["Q1","Q2"],"datasets":[{"label":"Receita","data":[10,"20"],"type":"line","borderColor":"#fff","backgroundColor":["#a","#b"],"tension":0.4,"fill":true,"borderWidth":3,"pointRadius":4}],"options":{"x":1}}`
	payload := decode(t, raw)
	got := Normalize(payload, "anything")

	require.NotNil(t, got.Chart)
	assert.Equal(t, ChartReady, got.Shape)
	want := series.ChartData{
		Labels: []string{"Q1", "Q2"},
		Datasets: []series.Dataset{{
			Type:            "line",
			Label:           "Receita",
			Data:            []float64{10, 20},
			BorderColor:     "#fff",
			BackgroundColor: []string{"#a", "#b"},
			BorderWidth:     3,
			Tension:         0.4,
			Fill:            true,
			PointRadius:     4,
		}},
	}
	if diff := cmp.Diff(want, *got.Chart); diff != "" {
		t.Errorf("chart mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, mustSeries(t, []string{"Q1", "Q2"}, []float64{10, 20}).Equal(got.Series))

	encoded, err := json.Marshal(got.Payload)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(encoded))
}

func TestNullChartKeysFallThroughToRows(t *testing.T) {
	got := Normalize(decode(t, `{"labels":null,"datasets":null,"data":[{"periodo":"Jan","v":7}]}`), "v")
	assert.Equal(t, Wrapped, got.Shape)
	assert.Nil(t, got.Payload)
	assert.True(t, mustSeries(t, []string{"Jan"}, []float64{7}).Equal(got.Series))
}

func TestRowPreservation(t *testing.T) {
	for n := 0; n < 30; n += 7 {
		rows := make([]any, n)
		for i := range rows {
			if i%2 == 0 {
				rows[i] = map[string]any{"periodo": "p", "m": float64(i)}
			} else {
				rows[i] = map[string]any{"other": true}
			}
		}
		got := Normalize(rows, "m").Series
		assert.Equal(t, n, got.Len())
		assert.Len(t, got.Points(), n)
	}
}

func TestNormalizeMulti(t *testing.T) {
	payload := decode(t, `{"metrics":{"ctr":[1,2],"alcance":[{"periodo":"Jan","value":5}]}}`)
	got := NormalizeMulti(payload)

	require.Len(t, got, 2)
	assert.Equal(t, "alcance", got[0].Name)
	assert.True(t, mustSeries(t, []string{"Jan"}, []float64{5}).Equal(got[0].Series))
	assert.Equal(t, "ctr", got[1].Name)
	assert.True(t, mustSeries(t, []string{"Mês 1", "Mês 2"}, []float64{1, 2}).Equal(got[1].Series))

	assert.Nil(t, NormalizeMulti([]any{}))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		payload string
		want    Shape
	}{
		{`[]`, RowArray},
		{`{"labels":[],"datasets":[]}`, ChartReady},
		{`{"labels":null,"datasets":[],"data":[]}`, Wrapped},
		{`{"data":[]}`, Wrapped},
		{`{"data":{"x":[1]}}`, CategoryMap},
		{`{"email":[{"x":1}]}`, CategoryMap},
		{`{"data":"nope"}`, Unrecognized},
		{`null`, Unrecognized},
	}
	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			if got := Classify(decode(t, tt.payload)); got != tt.want {
				t.Errorf("Classify(%s) = %v, want %v", tt.payload, got, tt.want)
			}
		})
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "dez. de 2023", FormatDate("2023-12-05"))
	assert.Equal(t, "mar. de 2024", FormatDate("2024-03"))
	assert.Equal(t, "ontem", FormatDate("ontem"))
}

func TestRows(t *testing.T) {
	rows := Rows(decode(t, `{"data":[{"a":1},2,{"b":3}]}`))
	assert.Len(t, rows, 2)
	assert.Nil(t, Rows(decode(t, `{"x":1}`)))
}
