// Package dashboard orchestrates a signed-in session: it fetches category data
// through the cache, normalizes it, computes KPIs and insights and keeps the
// currently selected view.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"dashmetrics/internal/api"
	"dashmetrics/internal/cache"
	"dashmetrics/internal/charts"
	"dashmetrics/internal/insights"
	"dashmetrics/internal/mock"
	"dashmetrics/internal/normalize"
	"dashmetrics/internal/project"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var (
	ErrClosed          = errors.New("dashboard session is closed")
	ErrStale           = errors.New("selection superseded by a newer request")
	ErrUnknownCategory = errors.New("unknown category")
	ErrNoSelection     = errors.New("no category selected")
)

const maxNotices = 20

// Authenticator is notified when the API rejects the session credentials.
type Authenticator interface {
	Logout() error
}

// Options configures a Session.
type Options struct {
	CacheTTL     time.Duration
	CacheMax     int
	HistoryLimit int
	HistoryDir   string // persists the insight history when set
	Theme        charts.Theme
	MockFallback bool
	Seed         uint64 // fixes the mock generator; zero seeds from the clock
	CacheStore   Store  // carries cached responses across processes when set
}

// Notice is a transient user-facing message.
type Notice struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// payload is the cached part of a process-data response.
type payload struct {
	Data       map[string]any `json:"data"`
	AIInsights map[string]any `json:"ai_insights"`
}

// Session is the per-login orchestrator. It is safe for concurrent use.
type Session struct {
	client   api.Client
	auth     Authenticator
	registry *charts.Registry
	cache    *cache.Cache
	history  *insights.History
	opts     Options
	group    singleflight.Group
	now      func() time.Time

	mu       sync.Mutex
	rng      *rand.Rand
	gen      uint64
	selected *selection
	view     View
	notices  []Notice
	closed   bool
}

type selection struct {
	project  project.Project
	category string
}

// New creates a session. auth may be nil when credentials are not managed.
func New(client api.Client, auth Authenticator, registry *charts.Registry, opts Options) *Session {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = cache.DefaultTTL
	}
	if opts.CacheMax <= 0 {
		opts.CacheMax = cache.DefaultMaxEntries
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	s := &Session{
		client:   client,
		auth:     auth,
		registry: registry,
		cache:    cache.New(opts.CacheTTL, opts.CacheMax),
		history:  insights.NewHistory(opts.HistoryLimit),
		opts:     opts,
		now:      time.Now,
		rng:      mock.NewRand(seed),
		view:     View{State: StateIdle},
	}
	if opts.HistoryDir != "" {
		if err := s.history.Load(opts.HistoryDir); err != nil {
			log.Warn().Err(err).Msg("Failed to load insight history")
		}
	}
	if opts.CacheStore != nil {
		if err := s.restoreCache(); err != nil {
			log.Warn().Err(err).Msg("Failed to restore cached responses")
		}
	}
	return s
}

func (s *Session) Cache() *cache.Cache { return s.cache }

func (s *Session) History() *insights.History { return s.history }

func (s *Session) Registry() *charts.Registry { return s.registry }

func (s *Session) Theme() charts.Theme { return s.opts.Theme }

// Open selects the first category of p.
func (s *Session) Open(ctx context.Context, p project.Project) (View, error) {
	if len(p.Categories) == 0 {
		return View{}, project.ErrNoCategories
	}
	return s.Select(ctx, p, p.Categories[0])
}

// Select loads category of p and makes it the current view. When a newer
// selection starts before this one finishes, the result is returned with
// ErrStale and the current view is left untouched.
func (s *Session) Select(ctx context.Context, p project.Project, category string) (View, error) {
	if !s.registry.Known(category) {
		return View{}, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return View{}, ErrClosed
	}
	s.gen++
	gen := s.gen
	s.selected = &selection{project: p, category: category}
	s.view = View{Project: p, Category: category, CategoryName: s.registry.Name(category), State: StateLoading}
	s.mu.Unlock()

	log.Debug().Str("project", p.Name).Str("category", category).Uint64("gen", gen).Msg("Loading category")
	v, err := s.load(ctx, p, category)

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed && err != nil:
		return v, err
	case s.closed:
		return v, ErrClosed
	case gen != s.gen:
		log.Debug().Str("category", category).Uint64("gen", gen).Uint64("current", s.gen).Msg("Discarding stale result")
		return v, ErrStale
	}
	s.view = v
	return v, err
}

// Retry reloads the current selection.
func (s *Session) Retry(ctx context.Context) (View, error) {
	s.mu.Lock()
	sel := s.selected
	s.mu.Unlock()
	if sel == nil {
		return View{}, ErrNoSelection
	}
	return s.Select(ctx, sel.project, sel.category)
}

// Refresh drops the cached data of p and reloads the current selection when
// it belongs to p.
func (s *Session) Refresh(ctx context.Context, p project.Project) (View, error) {
	s.cache.Clear(cache.Key(p.SpreadsheetURL, p.Categories))

	s.mu.Lock()
	sel := s.selected
	s.mu.Unlock()
	if sel != nil && sel.project.ID == p.ID {
		return s.Select(ctx, p, sel.category)
	}
	return s.Open(ctx, p)
}

// LoadAll builds a view for every category of p from a single fetch. It does
// not change the current selection.
func (s *Session) LoadAll(ctx context.Context, p project.Project) ([]View, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	pl, src, err := s.fetch(ctx, p)
	if err != nil {
		return nil, err
	}

	views := make([]View, len(p.Categories))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range p.Categories {
		g.Go(func() error {
			v, err := s.render(gctx, p, c, pl, src)
			views[i] = v
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// View returns the current view.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Notices returns the pending notices and clears them.
func (s *Session) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notices
	s.notices = nil
	return out
}

// Close saves the insight history and discards cached data. Later calls fail
// with ErrClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.gen++
	s.view = View{State: StateIdle}
	s.selected = nil
	s.mu.Unlock()

	s.cache.Clear()
	var errs []error
	if s.opts.CacheStore != nil {
		errs = append(errs, s.opts.CacheStore.Delete(cacheKey))
	}
	if s.opts.HistoryDir != "" {
		if err := s.history.Save(s.opts.HistoryDir); err != nil {
			errs = append(errs, fmt.Errorf("failed to save insight history: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (s *Session) load(ctx context.Context, p project.Project, category string) (View, error) {
	pl, src, err := s.fetch(ctx, p)
	if err != nil {
		return s.errorView(p, category, err), err
	}
	v, err := s.render(ctx, p, category, pl, src)
	if err != nil {
		return s.errorView(p, category, err), err
	}
	return v, nil
}

func (s *Session) errorView(p project.Project, category string, err error) View {
	return View{
		Project:      p,
		Category:     category,
		CategoryName: s.registry.Name(category),
		State:        StateError,
		Err:          api.UserMessage(err),
		UpdatedAt:    s.now(),
	}
}

func (s *Session) render(ctx context.Context, p project.Project, category string, pl *payload, src Source) (View, error) {
	raw := pl.Data[category]
	backend, _ := pl.AIInsights[category].(map[string]any)
	if backend == nil && src == SourceMock {
		backend = insights.Fallback()
	}

	cfgs := s.registry.For(category)
	views, list, err := build(ctx, cfgs, s.opts.Theme, raw, backend)
	if err != nil {
		return View{}, err
	}
	if len(list) > 0 {
		s.history.Record(category, string(src), list)
	}
	var named []normalize.Named
	if normalize.Classify(raw) == normalize.CategoryMap {
		named = normalize.NormalizeMulti(raw)
	}

	return View{
		Project:      p,
		Category:     category,
		CategoryName: s.registry.Name(category),
		State:        StateRendered,
		Source:       src,
		Charts:       views,
		KPIs:         kpis(views),
		Insights:     list,
		Summary:      insights.Summarize(list),
		UpdatedAt:    s.now(),
		Metrics:      named,
		Rows:         normalize.Rows(raw),
	}, nil
}

func (s *Session) notify(level, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, Notice{Time: s.now(), Level: level, Message: msg})
	if len(s.notices) > maxNotices {
		s.notices = s.notices[len(s.notices)-maxNotices:]
	}
}
