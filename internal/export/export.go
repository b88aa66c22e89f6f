// Package export writes loaded dashboards as files: Excel workbooks, CSV,
// PNG charts, plain-text insight reports, Markdown with Mermaid charts and
// standalone HTML pages.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"dashmetrics/internal/charts"
	"dashmetrics/internal/dashboard"
	"dashmetrics/internal/project"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Format is an export file type.
type Format string

const (
	FormatExcel    Format = "xlsx"
	FormatCSV      Format = "csv"
	FormatPNG      Format = "png"
	FormatText     Format = "txt"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "md"
)

var formats = []Format{FormatExcel, FormatCSV, FormatPNG, FormatText, FormatHTML, FormatMarkdown}

// Formats lists the supported formats.
func Formats() []Format { return append([]Format(nil), formats...) }

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	if f == "excel" {
		return FormatExcel, nil
	}
	for _, known := range formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Bundle is what gets exported: the loaded categories of one project.
type Bundle struct {
	Project     project.Project
	Views       []dashboard.View
	Theme       charts.Theme
	GeneratedAt time.Time
}

func (b Bundle) categoryLabel() string {
	if len(b.Views) == 1 {
		return b.Views[0].Category
	}
	return "completo"
}

// Write exports b to dir in format f and returns the written paths.
func Write(f Format, dir string, b Bundle) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	if f == FormatPNG {
		return ChartsPNG(dir, b)
	}

	path := filepath.Join(dir, FileName(b.Project.Name, b.categoryLabel(), string(f), b.GeneratedAt))
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	switch f {
	case FormatExcel:
		err = Excel(file, b)
	case FormatCSV:
		err = CSV(file, b)
	case FormatText:
		err = InsightsText(file, b)
	case FormatHTML:
		err = HTML(file, b)
	case FormatMarkdown:
		err = Markdown(file, b)
	default:
		err = fmt.Errorf("unsupported export format %q", f)
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	log.Info().Str("format", string(f)).Str("path", path).Msg("Export written")
	return []string{path}, nil
}

var slugStrip = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FileName builds "name-category-YYYY-MM-DD.ext" with the name reduced to
// lowercase ASCII words joined by dashes.
func FileName(name, category, ext string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s.%s", slug(name), slug(category), now.Format("2006-01-02"), strings.TrimPrefix(ext, "."))
}

func slug(s string) string {
	plain, _, err := transform.String(slugStrip, s)
	if err != nil {
		plain = s
	}
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(plain) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(sb.String(), "-")
	if out == "" {
		return "dashboard"
	}
	return out
}
