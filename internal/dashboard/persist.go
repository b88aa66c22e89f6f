package dashboard

import (
	"errors"
	"fmt"
	"time"

	"dashmetrics/internal/cache"

	"github.com/rs/zerolog/log"
)

const cacheKey = "dashboard.cache"

// Store persists session state between processes.
type Store interface {
	GetJSON(key string, v any) (bool, error)
	PutJSON(key string, v any) error
	Delete(key string) error
}

type storedEntry struct {
	Key      string    `json:"key"`
	Payload  payload   `json:"payload"`
	StoredAt time.Time `json:"stored_at"`
}

// Suspend saves the insight history and the unexpired cached responses
// without ending the session. A later New with the same stores resumes them.
func (s *Session) Suspend() error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil
	}

	var errs []error
	if s.opts.CacheStore != nil {
		var out []storedEntry
		for _, e := range s.cache.Snapshot() {
			if pl, ok := e.Value.(*payload); ok {
				out = append(out, storedEntry{Key: e.Key, Payload: *pl, StoredAt: e.StoredAt})
			}
		}
		if err := s.opts.CacheStore.PutJSON(cacheKey, out); err != nil {
			errs = append(errs, fmt.Errorf("failed to persist cache: %w", err))
		}
	}
	if s.opts.HistoryDir != "" {
		if err := s.history.Save(s.opts.HistoryDir); err != nil {
			errs = append(errs, fmt.Errorf("failed to save insight history: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (s *Session) restoreCache() error {
	var stored []storedEntry
	ok, err := s.opts.CacheStore.GetJSON(cacheKey, &stored)
	if err != nil || !ok {
		return err
	}
	entries := make([]cache.Entry, 0, len(stored))
	for _, e := range stored {
		pl := e.Payload
		entries = append(entries, cache.Entry{Key: e.Key, Value: &pl, StoredAt: e.StoredAt})
	}
	s.cache.Restore(entries)
	log.Debug().Int("entries", s.cache.Len()).Msg("Resumed cached responses")
	return nil
}
