package export

import (
	"fmt"
	"io"
	"sort"

	"dashmetrics/internal/metrics"

	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"
)

const (
	sheetData     = "Dados"
	sheetSummary  = "Resumo"
	sheetInsights = "Insights"
	sheetMetrics  = "Métricas"
	sheetRaw      = "Bruto"
)

var (
	dataHeader     = []any{"Categoria", "Período", "Métrica", "Chave", "Valor"}
	summaryHeader  = []any{"Categoria", "Métrica", "Média", "Mediana", "Máximo", "Mínimo", "Último", "Variação", "Variação %", "Descrição"}
	insightsHeader = []any{"Categoria", "Tipo", "Métrica", "Valor", "Mensagem", "Recomendação", "Ações"}
	metricsHeader  = []any{"Categoria", "Métrica", "Período", "Valor"}
)

// Excel writes a workbook with the Dados, Resumo and Insights sheets, plus
// Métricas when a category carried a metric map and Bruto when it carried rows.
func Excel(w io.Writer, b Bundle) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetData); err != nil {
		return err
	}
	named := metricRows(b)
	rawHeader, raw := rawRows(b)
	names := []string{sheetSummary, sheetInsights}
	if len(named) > 0 {
		names = append(names, sheetMetrics)
	}
	if len(raw) > 0 {
		names = append(names, sheetRaw)
	}
	for _, name := range names {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#2563EB"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	type sheet struct {
		name   string
		header []any
		rows   [][]any
		widths []float64
	}
	sheets := []sheet{
		{sheetData, dataHeader, dataRows(b), []float64{16, 14, 28, 24, 12}},
		{sheetSummary, summaryHeader, summaryRows(b), []float64{16, 28, 12, 12, 12, 12, 12, 12, 12, 40}},
		{sheetInsights, insightsHeader, insightRows(b), []float64{16, 10, 24, 14, 40, 40, 50}},
	}
	if len(named) > 0 {
		sheets = append(sheets, sheet{sheetMetrics, metricsHeader, named, []float64{16, 28, 14, 12}})
	}
	if len(raw) > 0 {
		sheets = append(sheets, sheet{sheetRaw, rawHeader, raw, nil})
	}
	for _, sh := range sheets {
		if err := writeSheet(f, sh.name, sh.header, sh.rows, header); err != nil {
			return err
		}
		for i, width := range sh.widths {
			col, _ := excelize.ColumnNumberToName(i + 1)
			if err := f.SetColWidth(sh.name, col, col, width); err != nil {
				return err
			}
		}
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func dataRows(b Bundle) [][]any {
	var rows [][]any
	for _, v := range b.Views {
		for _, c := range v.Charts {
			for i := 0; i < c.Series.Len(); i++ {
				label, point := c.Series.At(i)
				rows = append(rows, []any{v.CategoryName, label, c.Config.Title, c.Config.DataKey, point})
			}
		}
	}
	return rows
}

func summaryRows(b Bundle) [][]any {
	var rows [][]any
	for _, v := range b.Views {
		for _, c := range v.Charts {
			s := c.Summary
			rows = append(rows, []any{
				v.CategoryName, metrics.DisplayName(s.Metric),
				round2(s.Mean), round2(s.Median), round2(s.Max), round2(s.Min), round2(s.Last),
				round2(s.TrendAbs), round2(s.TrendPct), s.Description,
			})
		}
	}
	return rows
}

func insightRows(b Bundle) [][]any {
	var rows [][]any
	for _, v := range b.Views {
		for _, in := range v.Insights {
			rows = append(rows, []any{
				v.CategoryName, string(in.Type), in.Metric, in.Value, in.Message, in.Advice, joinActions(in.Actions),
			})
		}
	}
	return rows
}

func metricRows(b Bundle) [][]any {
	var rows [][]any
	for _, v := range b.Views {
		for _, m := range v.Metrics {
			for i := 0; i < m.Series.Len(); i++ {
				label, point := m.Series.At(i)
				rows = append(rows, []any{v.CategoryName, metrics.DisplayName(m.Name), label, point})
			}
		}
	}
	return rows
}

// rawRows lays the source rows of every category out under the union of
// their keys. Nested objects are flattened one level as "parent.key".
func rawRows(b Bundle) ([]any, [][]any) {
	var flat []map[string]any
	var cats []string
	seen := map[string]bool{}
	var keys []string
	for _, v := range b.Views {
		for _, r := range v.Rows {
			m := flatten(r)
			for k := range m {
				if !seen[k] {
					seen[k] = true
					keys = append(keys, k)
				}
			}
			flat = append(flat, m)
			cats = append(cats, v.CategoryName)
		}
	}
	if len(flat) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	header := append([]any{"Categoria"}, lo.ToAnySlice(keys)...)
	rows := make([][]any, len(flat))
	for i, m := range flat {
		row := make([]any, 0, len(header))
		row = append(row, cats[i])
		for _, k := range keys {
			row = append(row, m[k])
		}
		rows[i] = row
	}
	return header, rows
}

func flatten(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		switch t := v.(type) {
		case map[string]any:
			for sk, sv := range t {
				out[k+"."+sk] = cellValue(sv)
			}
		default:
			out[k] = cellValue(v)
		}
	}
	return out
}

func cellValue(v any) any {
	switch v.(type) {
	case nil, string, float64, bool:
		return v
	default:
		return fmt.Sprint(v)
	}
}
