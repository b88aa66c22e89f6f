package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"dashmetrics/internal/api"
	"dashmetrics/internal/charts"
	"dashmetrics/internal/dashboard"
	"dashmetrics/internal/project"
	"dashmetrics/internal/storage"

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
		Data: map[string]any{"email": []any{
			map[string]any{"periodo": "Jan", "taxa_abertura": 20.0},
			map[string]any{"periodo": "Fev", "taxa_abertura": 30.0},
		}},
		AIInsights: map[string]any{"email": map[string]any{
			"general_insights": []any{map[string]any{"insight": "Boa evolução"}},
		}},
	}, nil
}

type env struct {
	srv      *Server
	projects *project.Manager
	client   *fakeClient
	loja     project.Project
}

func setup(t *testing.T) *env {
	t.Helper()
	st, err := storage.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	reg := charts.DefaultRegistry()
	projects := project.NewManager(st, nil, reg.Known)
	loja, err := projects.Create(context.Background(), "Loja", "https://docs.google.com/spreadsheets/d/loja", []string{"email"})
	require.NoError(t, err)

	client := &fakeClient{}
	dash := dashboard.New(client, nil, reg, dashboard.Options{Seed: 1})
	return &env{srv: New(projects, dash, false), projects: projects, client: client, loja: loja}
}

func (e *env) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)

	var resp Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestProjectRoutes(t *testing.T) {
	e := setup(t)

	w, resp := e.do(t, http.MethodGet, "/api/projects", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, codeOK, resp.Code)
	assert.Len(t, resp.Data, 1)

	w, resp = e.do(t, http.MethodPost, "/api/projects", `{"name":"Blog","spreadsheet_url":"https://docs.google.com/spreadsheets/d/blog","categories":["blog"]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Blog", resp.Data.(map[string]any)["name"])

	w, resp = e.do(t, http.MethodPost, "/api/projects", `{"name":"X","spreadsheet_url":"nope!","categories":["blog"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, codeBadRequest, resp.Code)

	w, _ = e.do(t, http.MethodPatch, "/api/projects/Blog", `{"archived":true}`)
	assert.Equal(t, http.StatusOK, w.Code)
	_, resp = e.do(t, http.MethodGet, "/api/projects?filter=archived", "")
	assert.Len(t, resp.Data, 1)

	w, _ = e.do(t, http.MethodPatch, "/api/projects/Blog", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = e.do(t, http.MethodDelete, "/api/projects/Blog", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, resp = e.do(t, http.MethodDelete, "/api/projects/Blog", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, codeNotFound, resp.Code)
}

func TestSelectCategory(t *testing.T) {
	e := setup(t)

	w, resp := e.do(t, http.MethodGet, "/api/projects/"+e.loja.ID+"/categories/email", "")
	require.Equal(t, http.StatusOK, w.Code)
	view := resp.Data.(map[string]any)
	assert.Equal(t, "rendered", view["state"])
	assert.Equal(t, "live", view["source"])
	assert.Len(t, view["charts"], 4)

	_, resp = e.do(t, http.MethodGet, "/api/view", "")
	assert.Equal(t, "email", resp.Data.(map[string]any)["category"])

	_, resp = e.do(t, http.MethodGet, "/api/cache", "")
	assert.Len(t, resp.Data, 1)
	_, _ = e.do(t, http.MethodDelete, "/api/cache", "")
	_, resp = e.do(t, http.MethodGet, "/api/cache", "")
	assert.Empty(t, resp.Data)

	_, resp = e.do(t, http.MethodGet, "/api/insights/history?category=email", "")
	assert.Len(t, resp.Data, 1)
	_, resp = e.do(t, http.MethodGet, "/api/insights/history?category=seo", "")
	assert.Empty(t, resp.Data)

	w, resp = e.do(t, http.MethodGet, "/api/projects/"+e.loja.ID+"/categories/fax", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, codeBadRequest, resp.Code)
}

func TestSelectErrorView(t *testing.T) {
	e := setup(t)
	e.client.err = &api.HTTPError{Status: 500, Kind: api.KindServerError}

	w, resp := e.do(t, http.MethodGet, "/api/projects/Loja/categories/email", "")
	require.Equal(t, http.StatusOK, w.Code)
	view := resp.Data.(map[string]any)
	assert.Equal(t, "error", view["state"])
	assert.Equal(t, "Erro interno do servidor. Tente novamente mais tarde.", view["error"])

	_, resp = e.do(t, http.MethodGet, "/api/notices", "")
	assert.Len(t, resp.Data, 1)
}

func TestAuthExpired(t *testing.T) {
	e := setup(t)
	e.client.err = &api.HTTPError{Status: 401, Kind: api.KindAuthExpired}

	w, resp := e.do(t, http.MethodGet, "/api/projects/Loja/categories/email", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, codeAuth, resp.Code)

	w, _ = e.do(t, http.MethodPost, "/api/projects/Loja/refresh", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHTMLPages(t *testing.T) {
	e := setup(t)

	w, _ := e.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Nenhuma categoria selecionada")

	w, _ = e.do(t, http.MethodGet, "/projects/Loja/email", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Boa evolução")

	w, _ = e.do(t, http.MethodGet, "/", "")
	assert.Contains(t, w.Body.String(), "E-mail Marketing")

	w, _ = e.do(t, http.MethodGet, "/projects/missing/email", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
