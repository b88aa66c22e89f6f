package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dashmetrics/internal/api"
	"dashmetrics/internal/charts"
	"dashmetrics/internal/dashboard"
	"dashmetrics/internal/export"
	"dashmetrics/internal/insights"
	"dashmetrics/internal/kpi"
	"dashmetrics/internal/project"
)

const defaultHistoryLimit = 20

func (s *Server) handleListProjects(ctx context.Context, in listProjectsArgs) (any, error) {
	q := project.Query{Filter: project.FilterAll, Search: in.Search, Sort: project.SortByDate}
	if in.Filter != "" {
		q.Filter = project.Filter(strings.ToLower(in.Filter))
	}
	if in.Sort != "" {
		q.Sort = project.SortBy(strings.ToLower(in.Sort))
	}
	list, err := s.projects.List(ctx, q)
	if err != nil {
		return nil, err
	}

	type row struct {
		ID         string   `json:"id"`
		Name       string   `json:"name"`
		Categories []string `json:"categories"`
		Archived   bool     `json:"archived"`
		URL        string   `json:"spreadsheet_url"`
	}
	out := make([]row, 0, len(list))
	for _, p := range list {
		out = append(out, row{ID: p.ID, Name: p.Name, Categories: p.Categories, Archived: p.Archived, URL: p.SpreadsheetURL})
	}
	return map[string]any{"projects": out, "count": len(out)}, nil
}

type chartResult struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Unit     string    `json:"unit,omitempty"`
	Labels   []string  `json:"labels"`
	Points   []float64 `json:"points"`
	Fallback string    `json:"fallback,omitempty"`
	Mermaid  string    `json:"mermaid"`
}

type categoryResult struct {
	Project  string           `json:"project"`
	Category string           `json:"category"`
	Name     string           `json:"name"`
	State    dashboard.State  `json:"state"`
	Source   dashboard.Source `json:"source,omitempty"`
	Error    string           `json:"error,omitempty"`
	KPIs     []kpi.KPI        `json:"kpis"`
	Charts   []chartResult    `json:"charts"`
	Summary  insights.Summary `json:"insight_summary"`
	Notices  []string         `json:"notices,omitempty"`
}

func (s *Server) handleLoadCategory(ctx context.Context, in categoryArgs) (any, error) {
	v, err := s.selectView(ctx, in)
	if err != nil {
		return nil, err
	}

	res := categoryResult{
		Project:  v.Project.Name,
		Category: v.Category,
		Name:     v.CategoryName,
		State:    v.State,
		Source:   v.Source,
		Error:    v.Err,
		KPIs:     v.KPIs,
		Summary:  v.Summary,
		Notices:  s.noticeMessages(),
	}
	for _, c := range v.Charts {
		res.Charts = append(res.Charts, chartResult{
			ID:       c.Config.ID,
			Title:    c.Config.Title,
			Unit:     c.Config.Unit,
			Labels:   c.Series.Labels(),
			Points:   c.Series.Points(),
			Fallback: c.Diagnostic,
			Mermaid:  charts.Mermaid(c.Series, c.Config),
		})
	}
	return res, nil
}

func (s *Server) handleGetInsights(ctx context.Context, in categoryArgs) (any, error) {
	v, err := s.selectView(ctx, in)
	if err != nil {
		return nil, err
	}
	list := v.Insights
	if list == nil {
		list = []insights.Insight{}
	}
	return map[string]any{
		"project":  v.Project.Name,
		"category": v.Category,
		"source":   v.Source,
		"summary":  v.Summary,
		"insights": list,
		"report":   insights.Report(v.Insights, v.CategoryName, v.UpdatedAt),
	}, nil
}

func (s *Server) handleExportReport(ctx context.Context, in exportArgs) (any, error) {
	format, err := export.ParseFormat(in.Format)
	if err != nil {
		return nil, err
	}
	p, err := s.projects.Get(in.Project)
	if err != nil {
		return nil, err
	}

	var views []dashboard.View
	if in.Category != "" {
		v, err := s.dash.Select(ctx, p, in.Category)
		if err != nil {
			return nil, err
		}
		views = []dashboard.View{v}
	} else {
		if views, err = s.dash.LoadAll(ctx, p); err != nil {
			return nil, err
		}
	}

	b := export.Bundle{Project: p, Views: views, Theme: s.dash.Theme(), GeneratedAt: s.now()}
	paths, err := export.Write(format, s.cfg.ExportDir, b)
	if err != nil {
		return nil, err
	}
	if s.exports != nil {
		if err := export.Log(s.exports, b, format, paths, s.cfg.ExportHistoryLimit); err != nil {
			return nil, fmt.Errorf("export written but not logged: %w", err)
		}
	}
	return map[string]any{"format": format, "paths": paths}, nil
}

func (s *Server) handleInsightHistory(ctx context.Context, in historyArgs) (any, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	var out []insights.HistoryEntry
	entries := s.dash.History().Entries()
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		if in.Category == "" || entries[i].Category == in.Category {
			out = append(out, entries[i])
		}
	}
	if out == nil {
		out = []insights.HistoryEntry{}
	}
	return map[string]any{"entries": out, "count": len(out)}, nil
}

func (s *Server) handleClearCache(ctx context.Context, _ noArgs) (any, error) {
	n := s.dash.Cache().Len()
	s.dash.Cache().Clear()
	return map[string]any{"cleared": n}, nil
}

// selectView loads the requested category. A fetch failure without mock
// fallback still yields the error-state view.
func (s *Server) selectView(ctx context.Context, in categoryArgs) (dashboard.View, error) {
	p, err := s.projects.Get(in.Project)
	if err != nil {
		return dashboard.View{}, err
	}
	category := in.Category
	if category == "" {
		if len(p.Categories) == 0 {
			return dashboard.View{}, project.ErrNoCategories
		}
		category = p.Categories[0]
	}
	v, err := s.dash.Select(ctx, p, category)
	if err != nil && (v.State != dashboard.StateError || api.IsAuthExpired(err)) {
		return dashboard.View{}, err
	}
	return v, nil
}

func (s *Server) noticeMessages() []string {
	var out []string
	for _, n := range s.dash.Notices() {
		out = append(out, n.Message)
	}
	return out
}

func toolError(err error) string {
	switch {
	case errors.Is(err, dashboard.ErrClosed):
		return "Sessão encerrada. Faça login novamente com `dashmetrics login`."
	case errors.Is(err, project.ErrNotFound), errors.Is(err, dashboard.ErrUnknownCategory):
		return err.Error()
	default:
		return api.UserMessage(err)
	}
}
