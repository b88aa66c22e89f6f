package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"dashmetrics/internal/api"
	"dashmetrics/internal/charts"
	"dashmetrics/internal/insights"
	"dashmetrics/internal/normalize"
	"dashmetrics/internal/project"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClient struct {
	api.Client
	calls atomic.Int32
	resp  *api.ProcessResponse
	err   error

	slowURL string
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (f *fakeClient) ProcessData(ctx context.Context, url string, cats []string) (*api.ProcessResponse, error) {
	f.calls.Add(1)
	if url == f.slowURL && f.release != nil {
		f.once.Do(func() { close(f.started) })
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakeAuth struct{ logouts atomic.Int32 }

func (a *fakeAuth) Logout() error {
	a.logouts.Add(1)
	return nil
}

func emailRows() []any {
	rows := []any{}
	for i, m := range []string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun"} {
		rows = append(rows, map[string]any{
			"periodo":        m,
			"taxa_abertura":  float64(20 + i),
			"taxa_cliques":   "3.5%",
			"taxa_conversao": 1.2,
			"taxa_rejeicao":  2.0,
		})
	}
	return rows
}

func liveResponse() *api.ProcessResponse {
	return &api.ProcessResponse{
		Status: "success",
		Data:   map[string]any{"email": emailRows(), "social": map[string]any{"unexpected": true}},
		AIInsights: map[string]any{
			"email": map[string]any{
				"trends": []any{map[string]any{"metric": "CTR", "severity": "high", "message": "Queda no CTR"}},
			},
		},
	}
}

var loja = project.Project{
	ID:             "p1",
	Name:           "Loja",
	SpreadsheetURL: "https://docs.google.com/spreadsheets/d/loja",
	Categories:     []string{"email", "social"},
}

func newSession(client api.Client, auth Authenticator, mockFallback bool) *Session {
	return New(client, auth, charts.DefaultRegistry(), Options{MockFallback: mockFallback, Seed: 1})
}

func TestSelectLiveThenCache(t *testing.T) {
	client := &fakeClient{resp: liveResponse()}
	s := newSession(client, nil, true)
	ctx := context.Background()

	v, err := s.Select(ctx, loja, "email")
	require.NoError(t, err)
	assert.Equal(t, StateRendered, v.State)
	assert.Equal(t, SourceLive, v.Source)
	assert.Equal(t, "E-mail Marketing", v.CategoryName)
	require.Len(t, v.Charts, len(s.Registry().For("email")))
	assert.Len(t, v.KPIs, KPICount)
	assert.Equal(t, []float64{20, 21, 22, 23, 24, 25}, v.Charts[0].Series.Points())
	assert.Equal(t, []float64{3.5, 3.5, 3.5, 3.5, 3.5, 3.5}, v.Charts[1].Series.Points())
	assert.Equal(t, "22.5%", v.KPIs[0].Formatted)
	require.Len(t, v.Insights, 1)
	assert.Equal(t, insights.Danger, v.Insights[0].Type)
	assert.Equal(t, 1, v.Summary.Danger)

	v, err = s.Select(ctx, loja, "email")
	require.NoError(t, err)
	assert.Equal(t, SourceCache, v.Source)
	assert.Equal(t, int32(1), client.calls.Load())
	assert.Equal(t, 2, s.History().Len())
	assert.Equal(t, v.UpdatedAt, s.View().UpdatedAt)
}

func TestUnrecognizedPayloadFallsBack(t *testing.T) {
	s := newSession(&fakeClient{resp: liveResponse()}, nil, true)
	v, err := s.Select(context.Background(), loja, "social")
	require.NoError(t, err)
	for _, c := range v.Charts {
		assert.Equal(t, normalize.Unrecognized, c.Shape)
		assert.NotEmpty(t, c.Diagnostic)
		assert.Equal(t, 6, c.Series.Len())
	}
	assert.Empty(t, v.Insights)
}

func TestMockFallback(t *testing.T) {
	client := &fakeClient{err: &api.NetworkError{Op: "/process-data", Err: errors.New("refused")}}
	s := newSession(client, nil, true)

	v, err := s.Select(context.Background(), loja, "email")
	require.NoError(t, err)
	assert.Equal(t, SourceMock, v.Source)
	assert.Equal(t, StateRendered, v.State)
	assert.Equal(t, "Jan", v.Charts[0].Series.Labels()[0])
	require.NotEmpty(t, v.Insights)
	assert.Equal(t, "Análise limitada (modo offline)", v.Insights[0].Message)

	notices := s.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, "warning", notices[0].Level)
	assert.Empty(t, s.Notices())
	assert.Zero(t, s.Cache().Len())
}

func TestFetchErrorWithoutFallback(t *testing.T) {
	client := &fakeClient{err: &api.HTTPError{Status: 500, Kind: api.KindServerError}}
	s := newSession(client, nil, false)

	v, err := s.Select(context.Background(), loja, "email")
	var he *api.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, StateError, v.State)
	assert.Equal(t, "Erro interno do servidor. Tente novamente mais tarde.", v.Err)
	assert.Equal(t, StateError, s.View().State)

	client.err = nil
	client.resp = liveResponse()
	v, err = s.Retry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateRendered, v.State)
}

func TestAuthExpiredEndsSession(t *testing.T) {
	auth := &fakeAuth{}
	s := newSession(&fakeClient{err: &api.HTTPError{Status: 401, Kind: api.KindAuthExpired}}, auth, true)

	_, err := s.Select(context.Background(), loja, "email")
	assert.True(t, api.IsAuthExpired(err))
	assert.Equal(t, int32(1), auth.logouts.Load())
	assert.Equal(t, StateIdle, s.View().State)

	_, err = s.Select(context.Background(), loja, "email")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.LoadAll(context.Background(), loja)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStaleSelectionIsDiscarded(t *testing.T) {
	client := &fakeClient{
		resp:    liveResponse(),
		slowURL: loja.SpreadsheetURL,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := newSession(client, nil, true)
	other := project.Project{ID: "p2", Name: "Blog", SpreadsheetURL: "https://docs.google.com/spreadsheets/d/blog", Categories: []string{"email"}}

	var wg sync.WaitGroup
	var slowErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, slowErr = s.Select(context.Background(), loja, "email")
	}()
	<-client.started

	v, err := s.Select(context.Background(), other, "email")
	require.NoError(t, err)
	assert.Equal(t, "Blog", v.Project.Name)

	close(client.release)
	wg.Wait()
	assert.ErrorIs(t, slowErr, ErrStale)
	assert.Equal(t, "Blog", s.View().Project.Name)
}

func TestConcurrentLoadsShareOneRequest(t *testing.T) {
	client := &fakeClient{
		resp:    liveResponse(),
		slowURL: loja.SpreadsheetURL,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := newSession(client, nil, true)

	var wg sync.WaitGroup
	results := make([][]View, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = s.LoadAll(context.Background(), loja)
		}()
	}
	<-client.started
	close(client.release)
	wg.Wait()

	assert.Equal(t, int32(1), client.calls.Load())
	for _, views := range results {
		require.Len(t, views, 2)
		assert.Equal(t, "email", views[0].Category)
		assert.Equal(t, "social", views[1].Category)
	}
}

func TestRefreshRefetches(t *testing.T) {
	client := &fakeClient{resp: liveResponse()}
	s := newSession(client, nil, true)
	ctx := context.Background()

	_, err := s.Select(ctx, loja, "social")
	require.NoError(t, err)
	v, err := s.Refresh(ctx, loja)
	require.NoError(t, err)
	assert.Equal(t, "social", v.Category)
	assert.Equal(t, SourceLive, v.Source)
	assert.Equal(t, int32(2), client.calls.Load())
}

func TestSelectValidation(t *testing.T) {
	s := newSession(&fakeClient{resp: liveResponse()}, nil, true)
	_, err := s.Select(context.Background(), loja, "fax")
	assert.ErrorIs(t, err, ErrUnknownCategory)
	_, err = s.Retry(context.Background())
	assert.ErrorIs(t, err, ErrNoSelection)
	_, err = s.Open(context.Background(), project.Project{Name: "empty"})
	assert.ErrorIs(t, err, project.ErrNoCategories)
}

func TestHistoryPersistsAcrossSessions(t *testing.T) {
	dir := t.TempDir()
	opts := Options{HistoryDir: dir, Seed: 1}

	s := New(&fakeClient{resp: liveResponse()}, nil, charts.DefaultRegistry(), opts)
	_, err := s.Select(context.Background(), loja, "email")
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	s2 := New(&fakeClient{resp: liveResponse()}, nil, charts.DefaultRegistry(), opts)
	assert.Equal(t, 1, s2.History().Len())
}

func TestCancelledSelectOnCacheHitEndsInError(t *testing.T) {
	s := newSession(&fakeClient{resp: liveResponse()}, nil, true)
	_, err := s.Select(context.Background(), loja, "email")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v, err := s.Select(ctx, loja, "email")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateError, v.State)
	assert.Equal(t, "email", v.Category)
	assert.Equal(t, "Loja", v.Project.Name)
	assert.NotEmpty(t, v.Err)

	cur := s.View()
	assert.Equal(t, StateError, cur.State)
	assert.Equal(t, "E-mail Marketing", cur.CategoryName)
}

func TestFetchFinishingAfterCloseLeavesCacheEmpty(t *testing.T) {
	client := &fakeClient{
		resp:    liveResponse(),
		slowURL: loja.SpreadsheetURL,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := newSession(client, nil, true)

	done := make(chan error, 1)
	go func() {
		_, err := s.Select(context.Background(), loja, "email")
		done <- err
	}()
	<-client.started
	require.NoError(t, s.Close())
	close(client.release)

	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Zero(t, s.Cache().Len())
}

func TestViewKeepsSourceRowsAndMetricMaps(t *testing.T) {
	resp := liveResponse()
	resp.Data["social"] = map[string]any{"metrics": map[string]any{
		"alcance":    []any{map[string]any{"periodo": "Jan", "value": 100.0}},
		"seguidores": []any{10.0, 12.0},
	}}
	s := newSession(&fakeClient{resp: resp}, nil, true)
	views, err := s.LoadAll(context.Background(), loja)
	require.NoError(t, err)
	require.Len(t, views, 2)

	email, social := views[0], views[1]
	assert.Len(t, email.Rows, 6)
	assert.Empty(t, email.Metrics)

	assert.Empty(t, social.Rows)
	require.Len(t, social.Metrics, 2)
	assert.Equal(t, "alcance", social.Metrics[0].Name)
	assert.Equal(t, "seguidores", social.Metrics[1].Name)
	assert.Equal(t, []float64{10, 12}, social.Metrics[1].Series.Points())
}
