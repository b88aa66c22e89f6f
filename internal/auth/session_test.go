package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"dashmetrics/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore map[string][]byte

func (m memStore) GetJSON(key string, v any) (bool, error) {
	data, ok := m[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, v)
}

func (m memStore) PutJSON(key string, v any) error {
	data, err := json.Marshal(v)
	m[key] = data
	return err
}

func (m memStore) Delete(key string) error {
	delete(m, key)
	return nil
}

type loginClient struct {
	api.Client
	resp *api.TokenResponse
	err  error
}

func (c loginClient) Login(ctx context.Context, username, password string) (*api.TokenResponse, error) {
	return c.resp, c.err
}

func jwt(exp int64) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf(`{"sub":"ana@example.com","exp":%d}`, exp)))
	return "eyJhbGciOiJIUzI1NiJ9." + payload + ".sig"
}

func TestLoginPersistsCredentials(t *testing.T) {
	store := memStore{}
	s, err := NewSession(store)
	require.NoError(t, err)
	assert.False(t, s.IsAuthenticated())

	user, err := s.Login(context.Background(), loginClient{resp: &api.TokenResponse{AccessToken: "tok", UserEmail: "ana@example.com", UserName: "ana"}}, "ana", "pw")
	require.NoError(t, err)
	assert.Equal(t, User{Email: "ana@example.com", Name: "ana"}, user)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "Bearer tok", s.Headers()["Authorization"])
	assert.Equal(t, "application/json", s.Headers()["Content-Type"])

	restored, err := NewSession(store)
	require.NoError(t, err)
	assert.True(t, restored.IsAuthenticated())
	got, ok := restored.CurrentUser()
	assert.True(t, ok)
	assert.Equal(t, "ana", got.Name)
}

func TestLoginFailureKeepsSignedOut(t *testing.T) {
	s, _ := NewSession(memStore{})
	_, err := s.Login(context.Background(), loginClient{err: &api.HTTPError{Status: 401, Kind: api.KindAuthExpired}}, "a", "b")
	assert.True(t, api.IsAuthExpired(err))
	assert.False(t, s.IsAuthenticated())
}

func TestLogoutClearsAndRunsHooks(t *testing.T) {
	store := memStore{}
	s, _ := NewSession(store)
	require.NoError(t, s.SetCredentials("tok", User{Email: "a@b.c"}))

	called := 0
	s.OnLogout(func() { called++ })
	require.NoError(t, s.Logout())

	assert.False(t, s.IsAuthenticated())
	_, ok := s.CurrentUser()
	assert.False(t, ok)
	assert.Empty(t, store)
	assert.Equal(t, 1, called)
}

func TestTokenValid(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s, _ := NewSession(nil)

	require.NoError(t, s.SetCredentials(jwt(now.Add(time.Hour).Unix()), User{}))
	assert.True(t, s.TokenValid(now))
	assert.False(t, s.TokenValid(now.Add(2*time.Hour)))

	require.NoError(t, s.SetCredentials("not-a-jwt", User{}))
	assert.False(t, s.TokenValid(now))
}

func TestTokenExpiryErrors(t *testing.T) {
	_, err := TokenExpiry("a.b")
	assert.Error(t, err)
	_, err = TokenExpiry("a.!!!.c")
	assert.Error(t, err)
	noExp := "h." + base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"x"}`)) + ".s"
	_, err = TokenExpiry(noExp)
	assert.EqualError(t, err, "token has no exp claim")
}
