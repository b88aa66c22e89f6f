package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	pathToken    = "/token"
	pathRegister = "/register"
	pathProfile  = "/profile"
	pathProjects = "/projects/"
	pathProcess  = "/process-data/"
)

type httpClient struct {
	cfg        Config
	auth       HeaderProvider
	httpClient *http.Client
}

func newHTTPClient(cfg Config, auth HeaderProvider) *httpClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &httpClient{
		cfg:        cfg,
		auth:       auth,
		httpClient: &http.Client{},
	}
}

func (c *httpClient) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var out TokenResponse
	if err := c.do(ctx, http.MethodPost, pathToken, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", false, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, errors.New("login response carried no access token")
	}
	return &out, nil
}

func (c *httpClient) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := c.doJSON(ctx, http.MethodPost, pathRegister, req, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) Profile(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := c.doJSON(ctx, http.MethodGet, pathProfile, nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) ListProjects(ctx context.Context) ([]Project, error) {
	var out []Project
	if err := c.doJSON(ctx, http.MethodGet, pathProjects, nil, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *httpClient) CreateProject(ctx context.Context, in ProjectInput) (*Project, error) {
	if in.Settings == nil {
		in.Settings = map[string]any{}
	}
	var out Project
	if err := c.doJSON(ctx, http.MethodPost, pathProjects, in, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) ProcessData(ctx context.Context, spreadsheetURL string, categories []string) (*ProcessResponse, error) {
	log.Info().Strs("categories", categories).Msg("Requesting processed data from API")

	var out ProcessResponse
	req := ProcessRequest{SpreadsheetURL: spreadsheetURL, Categories: categories}
	if err := c.doJSON(ctx, http.MethodPost, pathProcess, req, true, &out); err != nil {
		return nil, err
	}
	if out.Status != "success" {
		return nil, &StatusError{Status: out.Status}
	}
	return &out, nil
}

func (c *httpClient) doJSON(ctx context.Context, method, path string, body any, authed bool, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", path, err)
		}
		r = bytes.NewReader(data)
	}
	return c.do(ctx, method, path, r, "application/json", authed, out)
}

func (c *httpClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, authed bool, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if authed {
		c.authenticateRequest(req)
	}

	log.Debug().Str("method", method).Str("url", req.URL.String()).Msg("API request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: strings.TrimSuffix(path, "/"), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		herr := decodeError(resp)
		log.Warn().Int("status", herr.Status).Str("kind", herr.Kind.String()).Str("path", path).Msg("API request failed")
		return herr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (c *httpClient) authenticateRequest(req *http.Request) {
	if c.auth == nil || !c.auth.IsAuthenticated() {
		return
	}
	for k, v := range c.auth.Headers() {
		if strings.EqualFold(k, "Content-Type") {
			continue
		}
		req.Header.Set(k, v)
	}
}

func decodeError(resp *http.Response) *HTTPError {
	herr := &HTTPError{Status: resp.StatusCode, Kind: kindOf(resp.StatusCode)}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil || len(data) == 0 {
		return herr
	}
	var body errorBody
	if json.Unmarshal(data, &body) != nil {
		return herr
	}
	switch d := body.Detail.(type) {
	case string:
		herr.Message = d
	case nil:
		herr.Message = body.Message
	default:
		if encoded, err := json.Marshal(d); err == nil {
			herr.Message = string(encoded)
		}
	}
	return herr
}
