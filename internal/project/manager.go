package project

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dashmetrics/internal/api"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

var (
	ErrNotFound        = errors.New("project not found")
	ErrNameRequired    = errors.New("project name is required")
	ErrNoCategories    = errors.New("select at least one category")
	ErrUnknownCategory = errors.New("unknown category")
)

// Repository is the local project store.
type Repository interface {
	SaveProject(p Project) error
	ListProjects() ([]Project, error)
	DeleteProject(id string) error
	SetArchived(id string, archived bool) error
}

// Remote is the subset of the API client the registry syncs with.
type Remote interface {
	ListProjects(ctx context.Context) ([]api.Project, error)
	CreateProject(ctx context.Context, in api.ProjectInput) (*api.Project, error)
}

// Manager registers projects locally and, when reachable, on the API.
type Manager struct {
	repo   Repository
	remote Remote
	known  func(string) bool
	now    func() time.Time
}

// NewManager creates a Manager. remote may be nil for offline use; known
// validates category keys and may be nil to accept any.
func NewManager(repo Repository, remote Remote, known func(string) bool) *Manager {
	return &Manager{repo: repo, remote: remote, known: known, now: time.Now}
}

// Create validates and stores a new project. Remote registration failures
// other than expired credentials leave a local-only project.
func (m *Manager) Create(ctx context.Context, name, spreadsheetURL string, categories []string) (Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Project{}, ErrNameRequired
	}
	sheetID, canonical, err := ValidateSpreadsheetURL(spreadsheetURL)
	if err != nil {
		return Project{}, err
	}
	cats := dedupe(categories)
	if len(cats) == 0 {
		return Project{}, ErrNoCategories
	}
	if m.known != nil {
		for _, c := range cats {
			if !m.known(c) {
				return Project{}, fmt.Errorf("%w: %s", ErrUnknownCategory, c)
			}
		}
	}

	p := Project{
		ID:             uuid.NewString(),
		Name:           name,
		SpreadsheetURL: canonical,
		SheetID:        sheetID,
		Categories:     cats,
		CreatedAt:      m.now().UTC(),
	}

	if m.remote != nil {
		rp, err := m.remote.CreateProject(ctx, api.ProjectInput{Name: name, SpreadsheetURL: canonical, Categories: cats})
		switch {
		case api.IsAuthExpired(err):
			return Project{}, err
		case err != nil:
			log.Warn().Err(err).Str("project", name).Msg("Remote project registration failed, keeping local copy")
		default:
			p.RemoteID = rp.ID
		}
	}

	if err := m.repo.SaveProject(p); err != nil {
		return Project{}, err
	}
	log.Info().Str("project", p.Name).Str("id", p.ID).Int("remote_id", p.RemoteID).Msg("Project created")
	return p, nil
}

// List syncs remote projects into the local store and returns the local
// registry filtered by q. It falls back to the local registry when the API is
// unreachable.
func (m *Manager) List(ctx context.Context, q Query) ([]Project, error) {
	if m.remote != nil {
		if err := m.sync(ctx); err != nil {
			if api.IsAuthExpired(err) {
				return nil, err
			}
			log.Warn().Err(err).Msg("Using local project registry")
		}
	}
	local, err := m.repo.ListProjects()
	if err != nil {
		return nil, err
	}
	return Apply(local, q), nil
}

func (m *Manager) sync(ctx context.Context) error {
	remote, err := m.remote.ListProjects(ctx)
	if err != nil {
		return err
	}
	local, err := m.repo.ListProjects()
	if err != nil {
		return err
	}
	byRemote := make(map[int]Project, len(local))
	for _, p := range local {
		if p.RemoteID != 0 {
			byRemote[p.RemoteID] = p
		}
	}

	added := 0
	for _, rp := range remote {
		if _, ok := byRemote[rp.ID]; ok {
			continue
		}
		sheetID, canonical, err := ValidateSpreadsheetURL(rp.SpreadsheetURL)
		if err != nil {
			log.Debug().Int("remote_id", rp.ID).Str("url", rp.SpreadsheetURL).Msg("Skipping remote project with invalid URL")
			continue
		}
		p := Project{
			ID:             uuid.NewString(),
			RemoteID:       rp.ID,
			Name:           rp.Name,
			SpreadsheetURL: canonical,
			SheetID:        sheetID,
			Categories:     dedupe(rp.Categories),
			CreatedAt:      m.now().UTC(),
		}
		if err := m.repo.SaveProject(p); err != nil {
			return err
		}
		added++
	}
	log.Debug().Int("remote", len(remote)).Int("added", added).Msg("Synced project registry")
	return nil
}

// Get finds a project by local id, remote id or case-insensitive name.
func (m *Manager) Get(ref string) (Project, error) {
	list, err := m.repo.ListProjects()
	if err != nil {
		return Project{}, err
	}
	return find(list, ref)
}

func (m *Manager) Archive(ref string, archived bool) (Project, error) {
	p, err := m.Get(ref)
	if err != nil {
		return Project{}, err
	}
	if err := m.repo.SetArchived(p.ID, archived); err != nil {
		return Project{}, err
	}
	p.Archived = archived
	return p, nil
}

func (m *Manager) Delete(ref string) (Project, error) {
	p, err := m.Get(ref)
	if err != nil {
		return Project{}, err
	}
	if err := m.repo.DeleteProject(p.ID); err != nil {
		return Project{}, err
	}
	log.Info().Str("project", p.Name).Msg("Project deleted")
	return p, nil
}

func find(list []Project, ref string) (Project, error) {
	ref = strings.TrimSpace(ref)
	for _, p := range list {
		if p.ID == ref {
			return p, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n != 0 {
		for _, p := range list {
			if p.RemoteID == n {
				return p, nil
			}
		}
	}
	for _, p := range list {
		if strings.EqualFold(p.Name, ref) {
			return p, nil
		}
	}
	return Project{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
}

func dedupe(in []string) []string {
	return lo.Uniq(lo.Compact(lo.Map(in, func(c string, _ int) string {
		return strings.TrimSpace(c)
	})))
}
