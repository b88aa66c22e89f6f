package dashboard

import (
	"context"

	"dashmetrics/internal/api"
	"dashmetrics/internal/cache"
	"dashmetrics/internal/mock"
	"dashmetrics/internal/project"

	"github.com/rs/zerolog/log"
)

// fetch returns the data of every category of p, from the cache when fresh.
// Concurrent misses for the same key share one request. Failures fall back to
// mock data when enabled; expired credentials end the session instead.
func (s *Session) fetch(ctx context.Context, p project.Project) (*payload, Source, error) {
	key := cache.Key(p.SpreadsheetURL, p.Categories)
	if v, ok := s.cache.Get(key); ok {
		if pl, ok := v.(*payload); ok {
			return pl, SourceCache, nil
		}
	}

	ch := s.group.DoChan(key, func() (any, error) {
		resp, err := s.client.ProcessData(context.WithoutCancel(ctx), p.SpreadsheetURL, p.Categories)
		if err != nil {
			return nil, err
		}
		pl := &payload{Data: resp.Data, AIInsights: resp.AIInsights}
		if pl.Data == nil {
			pl.Data = map[string]any{}
		}
		s.mu.Lock()
		if !s.closed {
			s.cache.Put(key, pl)
		}
		s.mu.Unlock()
		return pl, nil
	})

	select {
	case <-ctx.Done():
		return nil, "", ctx.Err()
	case res := <-ch:
		if res.Err == nil {
			return res.Val.(*payload), SourceLive, nil
		}
		return s.fallback(p, res.Err)
	}
}

func (s *Session) fallback(p project.Project, err error) (*payload, Source, error) {
	msg := api.UserMessage(err)
	if api.IsAuthExpired(err) {
		log.Warn().Msg("Credentials rejected, ending session")
		s.expire()
		return nil, "", err
	}
	if !s.opts.MockFallback {
		s.notify("error", msg)
		return nil, "", err
	}

	log.Warn().Err(err).Str("project", p.Name).Msg("Fetch failed, using mock data")
	s.notify("warning", msg+" Exibindo dados simulados.")

	s.mu.Lock()
	resp := mock.Response(p.Categories, s.rng)
	s.mu.Unlock()
	return &payload{Data: resp.Data, AIInsights: resp.AIInsights}, SourceMock, nil
}

func (s *Session) expire() {
	s.notify("error", api.UserMessage(&api.HTTPError{Status: 401, Kind: api.KindAuthExpired}))
	if s.auth != nil {
		if err := s.auth.Logout(); err != nil {
			log.Warn().Err(err).Msg("Failed to clear credentials")
		}
	}
	if err := s.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close session")
	}
}
