package insights

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultHistoryLimit = 100
	historyFile         = "insight-history.jsonl"
)

// HistoryItem is the compact record of one shown insight.
type HistoryItem struct {
	Metric  string   `json:"metric"`
	Type    Type     `json:"type"`
	Value   *float64 `json:"value,omitempty"`
	Message string   `json:"message"`
}

// HistoryEntry records the insights produced for one category load.
type HistoryEntry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Category  string        `json:"category"`
	Source    string        `json:"source"`
	Insights  []HistoryItem `json:"insights"`
	Summary   Summary       `json:"summary"`
}

// History is a bounded, thread-safe log of insight entries. The oldest
// entries are dropped once the limit is reached.
type History struct {
	mu      sync.RWMutex
	entries []HistoryEntry
	limit   int
	now     func() time.Time
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit, now: time.Now}
}

// Record appends an entry built from the formatted insights and returns it.
func (h *History) Record(category, source string, list []Insight) HistoryEntry {
	items := make([]HistoryItem, 0, len(list))
	for _, in := range list {
		items = append(items, HistoryItem{Metric: in.Metric, Type: in.Type, Value: in.RawValue, Message: in.Message})
	}
	entry := HistoryEntry{
		ID:        uuid.NewString(),
		Timestamp: h.now(),
		Category:  category,
		Source:    source,
		Insights:  items,
		Summary:   Summarize(list),
	}
	h.append(entry)
	return entry
}

func (h *History) append(entries ...HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, entries...)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = slices.Clone(h.entries[over:])
	}
}

// Entries returns a copy of the history, oldest first.
func (h *History) Entries() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.entries)
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

func (h *History) Clear() {
	h.mu.Lock()
	h.entries = nil
	h.mu.Unlock()
}

// Load reads a JSONL history file from dir. A missing file is not an error.
func (h *History) Load(dir string) error {
	path := filepath.Join(dir, historyFile)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer file.Close()

	var entries []HistoryEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var e HistoryEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Skipping invalid JSON line in history")
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading history: %w", err)
	}

	log.Info().Int("count", len(entries)).Msg("Loaded insight history")
	h.append(entries...)
	return nil
}

// Save writes the history to dir as JSONL, replacing the previous file atomically.
func (h *History) Save(dir string) error {
	entries := h.Entries()
	path := filepath.Join(dir, historyFile)
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for _, e := range entries {
		if err := encoder.Encode(e); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to encode history entry: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename history file: %w", err)
	}

	log.Debug().Int("count", len(entries)).Str("path", path).Msg("Insight history saved")
	return nil
}
