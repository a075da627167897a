package session

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/todo/internal/api"
	"github.com/tgienger/todo/internal/db"
	"github.com/tgienger/todo/internal/logging"
	"github.com/tgienger/todo/internal/models"
)

type fakeServer struct {
	status   map[string]int
	bodies   map[string]string
	received map[string]string
	auth     map[string]string
	calls    atomic.Int32
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()
	f := &fakeServer{
		status: map[string]int{},
		bodies: map[string]string{
			"/api/login":    `{"token":"test-token-123","user":{"id":"1","username":"testuser","name":"Test User"}}`,
			"/api/register": `{"token":"new-token-456","user":{"id":"2","username":"newuser","name":"New User"}}`,
			"/api/logout":   ``,
			"/api/profile":  `{"id":"1","username":"testuser","name":"Renamed"}`,
		},
		received: map[string]string{},
		auth:     map[string]string{},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		f.received[r.URL.Path] = string(body)
		f.auth[r.URL.Path] = r.Header.Get("Authorization")
		if code, ok := f.status[r.URL.Path]; ok {
			w.WriteHeader(code)
		}
		io.WriteString(w, f.bodies[r.URL.Path])
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.New(filepath.Join(t.TempDir(), "todo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func newSession(t *testing.T, kv *db.DB, url string) *Session {
	t.Helper()
	client := api.NewClient(url+"/api", nil)
	s, err := New(kv, client, logging.Discard())
	require.NoError(t, err)
	client.SetTokenSource(s)
	return s
}

func TestStartsSignedOut(t *testing.T) {
	_, srv := newFakeServer(t)
	s := newSession(t, newTestDB(t), srv.URL)
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.CurrentUser())
	assert.Equal(t, "", s.Token())
	assert.ErrorIs(t, s.RequireAuth(), ErrNotAuthenticated)
}

func TestRestoresOnlyWithBothKeys(t *testing.T) {
	_, srv := newFakeServer(t)
	kv := newTestDB(t)
	require.NoError(t, kv.SetSetting(UserKey, `{"id":"1","username":"testuser","name":"Test User"}`))

	s := newSession(t, kv, srv.URL)
	assert.False(t, s.IsAuthenticated())

	require.NoError(t, kv.SetSetting(TokenKey, "stored-token"))
	s = newSession(t, kv, srv.URL)
	require.True(t, s.IsAuthenticated())
	assert.Equal(t, "testuser", s.CurrentUser().Username)
	assert.Equal(t, "stored-token", s.Token())
}

func TestUnreadableStoredUserIsIgnored(t *testing.T) {
	_, srv := newFakeServer(t)
	kv := newTestDB(t)
	require.NoError(t, kv.SetSetting(UserKey, `{broken`))
	require.NoError(t, kv.SetSetting(TokenKey, "tok"))

	s := newSession(t, kv, srv.URL)
	assert.False(t, s.IsAuthenticated())
}

func TestLoginPersists(t *testing.T) {
	f, srv := newFakeServer(t)
	kv := newTestDB(t)
	s := newSession(t, kv, srv.URL)

	require.NoError(t, s.Login(context.Background(), "testuser", "password123"))
	assert.JSONEq(t, `{"username":"testuser","password":"password123"}`, f.received["/api/login"])
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "Test User", s.CurrentUser().Name)

	tok, ok, err := kv.LookupSetting(TokenKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "test-token-123", tok)
	raw, ok, err := kv.LookupSetting(UserKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, raw, "testuser")

	// a new process picks it up
	again := newSession(t, kv, srv.URL)
	assert.True(t, again.IsAuthenticated())
}

func TestLoginErrorMessages(t *testing.T) {
	cases := []struct {
		name string
		body string
		code int
		want string
	}{
		{"message field", `{"message":"Invalid credentials"}`, http.StatusUnauthorized, "Invalid credentials"},
		{"error field", `{"error":"Account locked"}`, http.StatusBadRequest, "Account locked"},
		{"empty body", `{}`, http.StatusInternalServerError, "Login failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, srv := newFakeServer(t)
			f.status["/api/login"] = tc.code
			f.bodies["/api/login"] = tc.body
			s := newSession(t, newTestDB(t), srv.URL)

			err := s.Login(context.Background(), "testuser", "bad")
			require.Error(t, err)
			assert.Equal(t, tc.want, err.Error())
			var apiErr *api.Error
			assert.True(t, errors.As(err, &apiErr))
			assert.False(t, s.IsAuthenticated())
		})
	}
}

func TestRegisterValidatesLocally(t *testing.T) {
	f, srv := newFakeServer(t)
	s := newSession(t, newTestDB(t), srv.URL)
	ctx := context.Background()

	err := s.Register(ctx, models.Registration{Username: "newuser", Password: "password123", ConfirmPassword: "different"})
	assert.ErrorIs(t, err, ErrPasswordMismatch)
	assert.Equal(t, "Passwords do not match", err.Error())

	err = s.Register(ctx, models.Registration{Username: "newuser", Password: "abc", ConfirmPassword: "abc"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	assert.Zero(t, f.calls.Load())
}

func TestRegisterOmitsConfirmation(t *testing.T) {
	f, srv := newFakeServer(t)
	s := newSession(t, newTestDB(t), srv.URL)

	err := s.Register(context.Background(), models.Registration{
		Username: "newuser", Name: "New User", Password: "password123", ConfirmPassword: "password123",
	})
	require.NoError(t, err)
	body := f.received["/api/register"]
	assert.NotContains(t, strings.ToLower(body), "confirm")
	assert.JSONEq(t, `{"username":"newuser","name":"New User","password":"password123"}`, body)
	assert.Equal(t, "newuser", s.CurrentUser().Username)
	assert.Equal(t, "new-token-456", s.Token())
}

func TestRegisterServerError(t *testing.T) {
	f, srv := newFakeServer(t)
	f.status["/api/register"] = http.StatusConflict
	f.bodies["/api/register"] = `{"message":"Username already exists"}`
	s := newSession(t, newTestDB(t), srv.URL)

	err := s.Register(context.Background(), models.Registration{Username: "dup", Password: "password123", ConfirmPassword: "password123"})
	require.Error(t, err)
	assert.Equal(t, "Username already exists", err.Error())

	f.bodies["/api/register"] = `not json`
	err = s.Register(context.Background(), models.Registration{Username: "dup", Password: "password123", ConfirmPassword: "password123"})
	assert.Equal(t, "Registration failed", err.Error())
}

func TestLogoutClearsEvenOnFailure(t *testing.T) {
	f, srv := newFakeServer(t)
	kv := newTestDB(t)
	s := newSession(t, kv, srv.URL)
	ctx := context.Background()
	require.NoError(t, s.Login(ctx, "testuser", "password123"))

	f.status["/api/logout"] = http.StatusInternalServerError
	require.NoError(t, s.Logout(ctx))
	assert.Equal(t, "Bearer test-token-123", f.auth["/api/logout"])
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, "", s.Token())

	_, ok, err := kv.LookupSetting(TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = kv.LookupSetting(UserKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRefresh(t *testing.T) {
	f, srv := newFakeServer(t)
	kv := newTestDB(t)
	s := newSession(t, kv, srv.URL)
	ctx := context.Background()

	_, err := s.Refresh(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, s.Login(ctx, "testuser", "password123"))
	u, err := s.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", u.Name)
	raw, _, _ := kv.LookupSetting(UserKey)
	assert.Contains(t, raw, "Renamed")

	f.status["/api/profile"] = http.StatusUnauthorized
	_, err = s.Refresh(ctx)
	require.Error(t, err)
	assert.False(t, s.IsAuthenticated())
}

func TestAccountOperationsUnsupported(t *testing.T) {
	_, srv := newFakeServer(t)
	s := newSession(t, newTestDB(t), srv.URL)
	ctx := context.Background()

	assert.ErrorIs(t, s.UpdateAccount(ctx, "x"), ErrNotAuthenticated)
	assert.ErrorIs(t, s.DeleteAccount(ctx), ErrNotAuthenticated)

	require.NoError(t, s.Login(ctx, "testuser", "password123"))
	assert.ErrorIs(t, s.UpdateAccount(ctx, "x"), ErrUnsupported)
	assert.ErrorIs(t, s.ChangePassword(ctx, "old", "abc", "abc"), ErrPasswordTooShort)
	assert.ErrorIs(t, s.ChangePassword(ctx, "old", "abcdef", "abcdeg"), ErrPasswordMismatch)
	assert.ErrorIs(t, s.ChangePassword(ctx, "old", "abcdef", "abcdef"), ErrUnsupported)
	assert.ErrorIs(t, s.DeleteAccount(ctx), ErrUnsupported)
	assert.True(t, s.IsAuthenticated())
}
