// Package project keeps the registry of analytics projects: a spreadsheet
// URL plus the marketing categories to load from it.
package project

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Project is a registered spreadsheet and its categories.
type Project struct {
	ID             string    `json:"id"`
	RemoteID       int       `json:"remote_id,omitempty"`
	Name           string    `json:"name"`
	SpreadsheetURL string    `json:"spreadsheet_url"`
	SheetID        string    `json:"sheet_id"`
	Categories     []string  `json:"categories"`
	Archived       bool      `json:"archived"`
	CreatedAt      time.Time `json:"created_at"`
}

// HasCategory reports whether the project loads category.
func (p Project) HasCategory(category string) bool {
	for _, c := range p.Categories {
		if c == category {
			return true
		}
	}
	return false
}

type Filter string

const (
	FilterAll      Filter = "all"
	FilterActive   Filter = "active"
	FilterArchived Filter = "archived"
)

type SortBy string

const (
	SortByDate SortBy = "date"
	SortByName SortBy = "name"
)

// Query selects and orders projects.
type Query struct {
	Filter Filter
	Search string
	Sort   SortBy
}

// Apply returns the projects matching q, ordered by q.Sort. Date order is
// newest first; name order follows Portuguese collation ignoring case and
// accents.
func Apply(list []Project, q Query) []Project {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]Project, 0, len(list))
	for _, p := range list {
		switch q.Filter {
		case FilterActive:
			if p.Archived {
				continue
			}
		case FilterArchived:
			if !p.Archived {
				continue
			}
		}
		if search != "" && !matches(p, search) {
			continue
		}
		out = append(out, p)
	}

	if q.Sort == SortByName {
		col := collate.New(language.BrazilianPortuguese, collate.IgnoreCase, collate.IgnoreDiacritics)
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(out[i].Name, out[j].Name) < 0
		})
	} else {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	}
	return out
}

func matches(p Project, search string) bool {
	if strings.Contains(strings.ToLower(p.Name), search) {
		return true
	}
	for _, c := range p.Categories {
		if strings.Contains(strings.ToLower(c), search) {
			return true
		}
	}
	return false
}
