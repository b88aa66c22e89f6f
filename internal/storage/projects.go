package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dashmetrics/internal/project"
)

const projectColumns = "id, remote_id, name, spreadsheet_url, sheet_id, categories, archived, created_at"

// SaveProject inserts or replaces p.
func (s *Store) SaveProject(p project.Project) error {
	cats, err := json.Marshal(p.Categories)
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}
	_, err = s.db.ExecContext(context.Background(),
		`INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			remote_id = excluded.remote_id,
			name = excluded.name,
			spreadsheet_url = excluded.spreadsheet_url,
			sheet_id = excluded.sheet_id,
			categories = excluded.categories,
			archived = excluded.archived`,
		p.ID, p.RemoteID, p.Name, p.SpreadsheetURL, p.SheetID, string(cats), p.Archived,
		p.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save project %q: %w", p.Name, err)
	}
	return nil
}

// ListProjects returns every stored project, oldest first.
func (s *Store) ListProjects() ([]project.Project, error) {
	rows, err := s.db.QueryContext(context.Background(),
		"SELECT "+projectColumns+" FROM projects ORDER BY created_at, name")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var out []project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetProject returns the project with the given local id.
func (s *Store) GetProject(id string) (project.Project, bool, error) {
	row := s.db.QueryRowContext(context.Background(),
		"SELECT "+projectColumns+" FROM projects WHERE id = ?", id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return project.Project{}, false, nil
	}
	if err != nil {
		return project.Project{}, false, err
	}
	return p, true, nil
}

func (s *Store) DeleteProject(id string) error {
	return s.execOne("DELETE FROM projects WHERE id = ?", id)
}

func (s *Store) SetArchived(id string, archived bool) error {
	return s.execOne("UPDATE projects SET archived = ? WHERE id = ?", archived, id)
}

func (s *Store) execOne(query string, args ...any) error {
	res, err := s.db.ExecContext(context.Background(), query, args...)
	if err != nil {
		return fmt.Errorf("failed to update projects: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return project.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(r scanner) (project.Project, error) {
	var (
		p         project.Project
		cats      string
		createdAt string
	)
	if err := r.Scan(&p.ID, &p.RemoteID, &p.Name, &p.SpreadsheetURL, &p.SheetID, &cats, &p.Archived, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("failed to read project: %w", err)
	}
	if err := json.Unmarshal([]byte(cats), &p.Categories); err != nil {
		return p, fmt.Errorf("failed to decode categories of %q: %w", p.Name, err)
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return p, fmt.Errorf("failed to parse created_at of %q: %w", p.Name, err)
	}
	p.CreatedAt = t
	return p, nil
}
