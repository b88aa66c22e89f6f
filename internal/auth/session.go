// Package auth holds the signed-in user's credentials.
package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"dashmetrics/internal/api"

	"github.com/rs/zerolog/log"
)

const (
	keyToken = "auth.token"
	keyUser  = "auth.user"
)

// Store persists credentials between runs.
type Store interface {
	GetJSON(key string, v any) (bool, error)
	PutJSON(key string, v any) error
	Delete(key string) error
}

// User is the signed-in account.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session keeps the bearer token and user profile. It implements
// api.HeaderProvider.
type Session struct {
	mu       sync.RWMutex
	token    string
	user     *User
	store    Store
	onLogout []func()
}

// NewSession restores any persisted credentials from store.
func NewSession(store Store) (*Session, error) {
	s := &Session{store: store}
	if store == nil {
		return s, nil
	}
	var token string
	if _, err := store.GetJSON(keyToken, &token); err != nil {
		return nil, fmt.Errorf("failed to restore token: %w", err)
	}
	var user User
	ok, err := store.GetJSON(keyUser, &user)
	if err != nil {
		return nil, fmt.Errorf("failed to restore user: %w", err)
	}
	s.token = token
	if ok {
		s.user = &user
	}
	return s, nil
}

// Login exchanges credentials for a token and persists it.
func (s *Session) Login(ctx context.Context, client api.Client, username, password string) (User, error) {
	tok, err := client.Login(ctx, username, password)
	if err != nil {
		return User{}, err
	}
	user := User{Email: tok.UserEmail, Name: tok.UserName}
	if user.Email == "" {
		user.Email = username
	}
	if err := s.SetCredentials(tok.AccessToken, user); err != nil {
		return User{}, err
	}
	log.Info().Str("user", user.Email).Msg("Signed in")
	return user, nil
}

// SetCredentials replaces the current token and user.
func (s *Session) SetCredentials(token string, user User) error {
	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	if err := s.store.PutJSON(keyToken, token); err != nil {
		return err
	}
	return s.store.PutJSON(keyUser, user)
}

// OnLogout registers a hook run after credentials are cleared.
func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	s.onLogout = append(s.onLogout, fn)
	s.mu.Unlock()
}

// Logout clears the credentials and runs the logout hooks.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	hooks := append([]func(){}, s.onLogout...)
	s.mu.Unlock()

	var errs []error
	if s.store != nil {
		errs = append(errs, s.store.Delete(keyToken), s.store.Delete(keyUser))
	}
	for _, fn := range hooks {
		fn()
	}
	log.Info().Msg("Signed out")
	return errors.Join(errs...)
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Headers returns the request headers for authenticated calls.
func (s *Session) Headers() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]string{
		"Authorization": "Bearer " + s.token,
		"Content-Type":  "application/json",
	}
}

func (s *Session) CurrentUser() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// TokenValid reports whether the token is a JWT whose exp claim is after now.
func (s *Session) TokenValid(now time.Time) bool {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	exp, err := TokenExpiry(token)
	if err != nil {
		return false
	}
	return now.Before(exp)
}

// TokenExpiry decodes the exp claim of a JWT without verifying its signature.
func TokenExpiry(token string) (time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return time.Time{}, errors.New("token is not a JWT")
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to decode token payload: %w", err)
	}
	var claims struct {
		Exp *float64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse token claims: %w", err)
	}
	if claims.Exp == nil {
		return time.Time{}, errors.New("token has no exp claim")
	}
	return time.Unix(int64(*claims.Exp), 0), nil
}
