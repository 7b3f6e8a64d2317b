package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/accessfit/accessfit-gateway/internal/fitness"
	"github.com/accessfit/accessfit-gateway/internal/session"
	"github.com/accessfit/accessfit-gateway/internal/telemetry/metrics"

	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authStub struct {
	loginUser    *fitness.User
	loginErr     error
	registerUser *fitness.User
	registerErr  error

	gotCreds  fitness.Credentials
	gotParams fitness.RegisterParams
}

func (s *authStub) Login(_ context.Context, creds fitness.Credentials) (*fitness.User, error) {
	s.gotCreds = creds
	return s.loginUser, s.loginErr
}

func (s *authStub) Register(_ context.Context, params fitness.RegisterParams) (*fitness.User, error) {
	s.gotParams = params
	return s.registerUser, s.registerErr
}

type refresherStub struct {
	refreshes []int
	resets    int
}

func (s *refresherStub) Refresh(_ context.Context, userID int, _ fitness.Role) {
	s.refreshes = append(s.refreshes, userID)
}

func (s *refresherStub) Reset() {
	s.resets++
}

type rateLimiterStub struct{}

func (rateLimiterStub) Allow(_ context.Context, _ string, _ redis_rate.Limit) (*redis_rate.Result, error) {
	return &redis_rate.Result{Allowed: 1}, nil
}

// authRequest builds a request carrying the test origin, since /a routes
// sit behind the cors middleware
func authRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Origin", "test")
	return req
}

func setupHandlerTest(t *testing.T, auth *authStub) (*session.Manager, *refresherStub, *mux.Router) {
	t.Helper()
	store, err := session.NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	manager := session.NewManager(store)
	refresher := &refresherStub{}

	router := mux.NewRouter()
	session.NewHandler(manager, auth, refresher).
		SetupRoutes(router, rateLimiterStub{}, 15, metrics.NewTestManager())
	return manager, refresher, router
}

func TestHandler_login(t *testing.T) {
	auth := &authStub{
		loginUser: &fitness.User{ID: 7, Name: "Pat", Role: fitness.RolePWD},
	}
	manager, refresher, router := setupHandlerTest(t, auth)

	rr := httptest.NewRecorder()
	req := authRequest("POST", "/a/login", strings.NewReader(`{"username":"pat","password":"secret1"}`))
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Token string       `json:"token"`
		User  fitness.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Token, 35)
	assert.Equal(t, 7, resp.User.ID)
	assert.Equal(t, "pat", auth.gotCreds.Username)

	// session installed and dashboard hydrated
	current, loggedIn := manager.Current()
	require.True(t, loggedIn)
	assert.Equal(t, resp.Token, current.Token)
	assert.Equal(t, []int{7}, refresher.refreshes)
}

func TestHandler_loginRejected(t *testing.T) {
	auth := &authStub{
		loginErr: &fitness.ValidationError{Reason: "username is required"},
	}
	manager, refresher, router := setupHandlerTest(t, auth)

	rr := httptest.NewRecorder()
	req := authRequest("POST", "/a/login", strings.NewReader(`{"username":"","password":""}`))
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	_, loggedIn := manager.Current()
	assert.False(t, loggedIn)
	assert.Empty(t, refresher.refreshes)
}

func TestHandler_loginBadPayload(t *testing.T) {
	_, _, router := setupHandlerTest(t, &authStub{})

	rr := httptest.NewRecorder()
	req := authRequest("POST", "/a/login", strings.NewReader("{broken"))
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_logout(t *testing.T) {
	auth := &authStub{
		loginUser: &fitness.User{ID: 7, Name: "Pat", Role: fitness.RolePWD},
	}
	manager, refresher, router := setupHandlerTest(t, auth)

	_, err := manager.Set(context.Background(), *auth.loginUser)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authRequest("GET", "/a/logout", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "logged-out", rr.Body.String())

	_, loggedIn := manager.Current()
	assert.False(t, loggedIn)
	assert.Equal(t, 1, refresher.resets)
}

func TestHandler_register(t *testing.T) {
	auth := &authStub{
		registerUser: &fitness.User{ID: 21, Name: "New Person", Role: fitness.RoleCaregiver},
	}
	manager, refresher, router := setupHandlerTest(t, auth)

	body := `{"name":"New Person","username":"newbie","password":"secret1","role":"CAREGIVER"}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authRequest("POST", "/a/register", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rr.Code)

	var user fitness.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &user))
	assert.Equal(t, 21, user.ID)
	assert.Equal(t, "newbie", auth.gotParams.Username)

	// registering does not log anyone in
	_, loggedIn := manager.Current()
	assert.False(t, loggedIn)
	assert.Empty(t, refresher.refreshes)
}

func TestHandler_registerConflict(t *testing.T) {
	auth := &authStub{
		registerErr: errors.New("backend exploded"),
	}
	_, _, router := setupHandlerTest(t, auth)

	body := `{"name":"n","username":"u","password":"secret1","role":"PWD"}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authRequest("POST", "/a/register", strings.NewReader(body)))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestHandler_setTab(t *testing.T) {
	auth := &authStub{}
	manager, _, router := setupHandlerTest(t, auth)

	_, err := manager.Set(context.Background(), fitness.User{ID: 7, Role: fitness.RolePWD})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/a/tab/exercises", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "tab:exercises", rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/a/tab/users", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/a/tab/bogus", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
