package api

import (
	"context"
	"time"
)

// Client is the interface for interacting with the analytics API.
type Client interface {
	Login(ctx context.Context, username, password string) (*TokenResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Profile(ctx context.Context) (*Profile, error)
	ListProjects(ctx context.Context) ([]Project, error)
	CreateProject(ctx context.Context, in ProjectInput) (*Project, error)
	ProcessData(ctx context.Context, spreadsheetURL string, categories []string) (*ProcessResponse, error)
}

// HeaderProvider supplies credentials for authenticated requests.
type HeaderProvider interface {
	Headers() map[string]string
	IsAuthenticated() bool
}

// Config holds the connection settings for the API.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

const DefaultTimeout = 30 * time.Second

// NewClient creates a client for the API at cfg.BaseURL. auth may be nil for
// anonymous use (login and registration).
func NewClient(cfg Config, auth HeaderProvider) Client {
	return newHTTPClient(cfg, auth)
}
