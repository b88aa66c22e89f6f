package export

import "time"

const (
	historyKey          = "export.history"
	DefaultHistoryLimit = 50
)

// Record is one entry of the export log.
type Record struct {
	Time     time.Time `json:"time"`
	Project  string    `json:"project"`
	Category string    `json:"category"`
	Format   Format    `json:"format"`
	Paths    []string  `json:"paths"`
}

// Recorder appends to a capped persisted list.
type Recorder interface {
	AppendCapped(key string, item any, limit int) error
}

// Reader reads the persisted export log.
type Reader interface {
	GetJSON(key string, v any) (bool, error)
}

// Log appends an export to the persisted log, keeping the newest limit entries.
func Log(r Recorder, b Bundle, f Format, paths []string, limit int) error {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return r.AppendCapped(historyKey, Record{
		Time:     b.GeneratedAt,
		Project:  b.Project.Name,
		Category: b.categoryLabel(),
		Format:   f,
		Paths:    paths,
	}, limit)
}

// History returns the export log, oldest first.
func History(r Reader) ([]Record, error) {
	var out []Record
	if _, err := r.GetJSON(historyKey, &out); err != nil {
		return nil, err
	}
	return out, nil
}
