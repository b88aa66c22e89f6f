package api

import "time"

// ProcessRequest is the body of POST /process-data.
type ProcessRequest struct {
	SpreadsheetURL string   `json:"spreadsheet_url"`
	Categories     []string `json:"categories"`
}

// ProcessResponse carries the processed metrics per category and the AI
// insights produced for them. Both are loosely typed: their shape varies by
// category and backend version.
type ProcessResponse struct {
	Status     string         `json:"status"`
	Data       map[string]any `json:"data"`
	AIInsights map[string]any `json:"ai_insights"`
}

// TokenResponse is returned by POST /token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserEmail   string `json:"user_email"`
	UserName    string `json:"user_name"`
}

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	UserID  int    `json:"user_id"`
}

type Profile struct {
	ID        int        `json:"id"`
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// ProjectInput is the body of POST /projects.
type ProjectInput struct {
	Name           string         `json:"name"`
	SpreadsheetURL string         `json:"spreadsheet_url"`
	Categories     []string       `json:"categories"`
	Settings       map[string]any `json:"settings"`
}

// Project is a project as stored by the API.
type Project struct {
	ID             int            `json:"id"`
	OwnerID        int            `json:"owner_id"`
	Name           string         `json:"name"`
	SpreadsheetURL string         `json:"spreadsheet_url"`
	Categories     []string       `json:"categories"`
	Settings       map[string]any `json:"settings,omitempty"`
}

type errorBody struct {
	Detail  any    `json:"detail"`
	Message string `json:"message"`
}
