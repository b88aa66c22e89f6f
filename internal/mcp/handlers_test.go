package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dashmetrics/internal/api"
	"dashmetrics/internal/charts"
	"dashmetrics/internal/dashboard"
	"dashmetrics/internal/export"
	"dashmetrics/internal/project"
	"dashmetrics/internal/storage"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	api.Client
	err error
}

func (f *fakeClient) ProcessData(ctx context.Context, url string, cats []string) (*api.ProcessResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &api.ProcessResponse{
		Status: "success",
		Data: map[string]any{
			"email": map[string]any{"data": []any{
				map[string]any{"month": "Jan", "taxa_abertura": "21.5%"},
				map[string]any{"month": "Fev", "taxa_abertura": "24%"},
			}},
			"social": []any{map[string]any{"periodo": "Jan", "alcance": 1000.0}},
		},
		AIInsights: map[string]any{"email": map[string]any{
			"anomalies": []any{map[string]any{"metric": "Taxa de Rejeição", "value": "12%"}},
		}},
	}, nil
}

type fixture struct {
	srv    *Server
	client *fakeClient
	store  *storage.Store
	dir    string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	st, err := storage.Open(filepath.Join(dir, "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	reg := charts.DefaultRegistry()
	projects := project.NewManager(st, nil, reg.Known)
	_, err = projects.Create(context.Background(), "Loja", "https://docs.google.com/spreadsheets/d/loja", []string{"email", "social"})
	require.NoError(t, err)

	client := &fakeClient{}
	dash := dashboard.New(client, nil, reg, dashboard.Options{Seed: 1})
	srv := NewServer(projects, dash, st, Config{ExportDir: filepath.Join(dir, "exports"), ExportHistoryLimit: 5})
	srv.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	return &fixture{srv: srv, client: client, store: st, dir: dir}
}

func TestListProjects(t *testing.T) {
	f := setup(t)
	out, err := f.srv.handleListProjects(context.Background(), listProjectsArgs{Search: "loj"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.(map[string]any)["count"])

	out, err = f.srv.handleListProjects(context.Background(), listProjectsArgs{Filter: "ARCHIVED"})
	require.NoError(t, err)
	assert.Equal(t, 0, out.(map[string]any)["count"])
}

func TestLoadCategory(t *testing.T) {
	f := setup(t)
	out, err := f.srv.handleLoadCategory(context.Background(), categoryArgs{Project: "Loja"})
	require.NoError(t, err)

	res := out.(categoryResult)
	assert.Equal(t, "email", res.Category)
	assert.Equal(t, dashboard.StateRendered, res.State)
	assert.Equal(t, dashboard.SourceLive, res.Source)
	require.NotEmpty(t, res.Charts)
	assert.Equal(t, []string{"Jan", "Fev"}, res.Charts[0].Labels)
	assert.Equal(t, []float64{21.5, 24}, res.Charts[0].Points)
	assert.Contains(t, res.Charts[0].Mermaid, "xychart-beta")
	assert.Equal(t, 1, res.Summary.Danger)
}

func TestLoadCategoryErrors(t *testing.T) {
	f := setup(t)
	_, err := f.srv.handleLoadCategory(context.Background(), categoryArgs{Project: "nada"})
	assert.ErrorIs(t, err, project.ErrNotFound)

	_, err = f.srv.handleLoadCategory(context.Background(), categoryArgs{Project: "Loja", Category: "fax"})
	assert.ErrorIs(t, err, dashboard.ErrUnknownCategory)

	f.client.err = &api.HTTPError{Status: 503, Kind: api.KindConnection}
	out, err := f.srv.handleLoadCategory(context.Background(), categoryArgs{Project: "Loja"})
	require.NoError(t, err)
	res := out.(categoryResult)
	assert.Equal(t, dashboard.StateError, res.State)
	assert.Equal(t, "Erro 503 na comunicação com o servidor.", res.Error)
	assert.Len(t, res.Notices, 1)
}

func TestGetInsights(t *testing.T) {
	f := setup(t)
	out, err := f.srv.handleGetInsights(context.Background(), categoryArgs{Project: "Loja", Category: "email"})
	require.NoError(t, err)
	m := out.(map[string]any)
	assert.Len(t, m["insights"], 1)
	assert.Contains(t, m["report"], "CRÍTICOS (1)")

	hist, err := f.srv.handleInsightHistory(context.Background(), historyArgs{Category: "email"})
	require.NoError(t, err)
	assert.Equal(t, 1, hist.(map[string]any)["count"])
}

func TestExportReport(t *testing.T) {
	f := setup(t)
	out, err := f.srv.handleExportReport(context.Background(), exportArgs{Project: "Loja", Format: "csv"})
	require.NoError(t, err)
	paths := out.(map[string]any)["paths"].([]string)
	require.Len(t, paths, 1)
	assert.Equal(t, "loja-completo-2024-06-01.csv", filepath.Base(paths[0]))
	_, err = os.Stat(paths[0])
	require.NoError(t, err)

	log, err := export.History(f.store)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, export.FormatCSV, log[0].Format)

	_, err = f.srv.handleExportReport(context.Background(), exportArgs{Project: "Loja", Format: "pdf"})
	assert.Error(t, err)
}

func TestClearCache(t *testing.T) {
	f := setup(t)
	_, err := f.srv.handleLoadCategory(context.Background(), categoryArgs{Project: "Loja"})
	require.NoError(t, err)

	out, err := f.srv.handleClearCache(context.Background(), noArgs{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.(map[string]any)["cleared"])
	assert.Zero(t, f.srv.dash.Cache().Len())
}

func TestToolError(t *testing.T) {
	assert.Equal(t, "Autenticação expirada. Faça login novamente.", toolError(&api.HTTPError{Status: 401, Kind: api.KindAuthExpired}))
	assert.Contains(t, toolError(dashboard.ErrClosed), "dashmetrics login")
	assert.Equal(t, "boom", toolError(errors.New("boom")))
}

func TestServerOverInMemoryTransport(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	clientTransport, serverTransport := sdk.NewInMemoryTransports()
	ss, err := f.srv.build().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer ss.Close()

	client := sdk.NewClient(&sdk.Implementation{Name: "test", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer cs.Close()

	tools, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tl := range tools.Tools {
		names = append(names, tl.Name)
	}
	assert.ElementsMatch(t, []string{"list_projects", "load_category", "get_insights", "export_report", "insight_history", "clear_cache"}, names)

	res, err := cs.CallTool(ctx, &sdk.CallToolParams{Name: "list_projects", Arguments: map[string]any{"sort": "name"}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	text := res.Content[0].(*sdk.TextContent).Text
	var payload struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	assert.Equal(t, 1, payload.Count)

	res, err = cs.CallTool(ctx, &sdk.CallToolParams{Name: "load_category", Arguments: map[string]any{"project": "missing"}})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
