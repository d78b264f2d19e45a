package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homewatch/homewatch-go/internal/conf"
	"github.com/homewatch/homewatch-go/internal/datastore"
	"github.com/homewatch/homewatch-go/internal/errors"
	"github.com/homewatch/homewatch-go/internal/security"
)

// stubDS is an in-memory datastore covering the endpoints under test.
type stubDS struct {
	datastore.Interface
	users   map[uint]datastore.User
	objects map[uint]datastore.MonitoredObject
	nextID  uint
}

func newStubDS() *stubDS {
	return &stubDS{
		users:   make(map[uint]datastore.User),
		objects: make(map[uint]datastore.MonitoredObject),
		nextID:  1,
	}
}

func (s *stubDS) CreateUser(user *datastore.User) error {
	user.ID = s.nextID
	s.nextID++
	s.users[user.ID] = *user
	return nil
}

func (s *stubDS) GetUser(id uint) (datastore.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return datastore.User{}, errors.NotFoundError("user", id)
}

func (s *stubDS) GetUserByUsername(username string) (datastore.User, error) {
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return datastore.User{}, errors.NotFoundError("user", username)
}

func (s *stubDS) GetUserByEmail(email string) (datastore.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return datastore.User{}, errors.NotFoundError("user", email)
}

func (s *stubDS) CreateObject(object *datastore.MonitoredObject) error {
	object.ID = s.nextID
	s.nextID++
	s.objects[object.ID] = *object
	return nil
}

func (s *stubDS) GetObject(id, userID uint) (datastore.MonitoredObject, error) {
	if object, ok := s.objects[id]; ok && object.UserID == userID {
		return object, nil
	}
	return datastore.MonitoredObject{}, errors.NotFoundError("monitored object", id)
}

func (s *stubDS) GetObjectsByUser(userID uint) ([]datastore.MonitoredObject, error) {
	var out []datastore.MonitoredObject
	for _, object := range s.objects {
		if object.UserID == userID {
			out = append(out, object)
		}
	}
	return out, nil
}

func (s *stubDS) UpdateObjectStatus(id, userID uint, status string) error {
	object, ok := s.objects[id]
	if !ok || object.UserID != userID {
		return errors.NotFoundError("monitored object", id)
	}
	object.Status = status
	s.objects[id] = object
	return nil
}

// newTestController builds a controller without file logging or metrics.
func newTestController(t *testing.T, ds datastore.Interface) *Controller {
	t.Helper()

	e := echo.New()
	tokens, err := security.NewTokenManager("test-secret", time.Minute, time.Hour)
	require.NoError(t, err)

	c := &Controller{
		Echo:       e,
		DS:         ds,
		Settings:   &conf.Settings{},
		Tokens:     tokens,
		statsCache: cache.New(time.Minute, time.Minute),
		apiLogger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		startTime:  time.Now(),
	}
	c.Group = e.Group("/api/v1")
	c.initRoutes()
	return c
}

func doJSON(c *Controller, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, c *Controller) TokenResponse {
	t.Helper()

	rec := doJSON(c, http.MethodPost, "/api/v1/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"supersecret"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(c, http.MethodPost, "/api/v1/auth/login",
		`{"username":"alice","password":"supersecret"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tokens TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tokens))
	return tokens
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	c := newTestController(t, newStubDS())

	rec := doJSON(c, http.MethodPost, "/api/v1/auth/register",
		`{"username":"","email":"a@b.c","password":"supersecret"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(c, http.MethodPost, "/api/v1/auth/register",
		`{"username":"alice","email":"a@b.c","password":"short"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	t.Parallel()
	c := newTestController(t, newStubDS())

	body := `{"username":"alice","email":"alice@example.com","password":"supersecret"}`
	rec := doJSON(c, http.MethodPost, "/api/v1/auth/register", body, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(c, http.MethodPost, "/api/v1/auth/register", body, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()
	c := newTestController(t, newStubDS())
	registerAndLogin(t, c)

	rec := doJSON(c, http.MethodPost, "/api/v1/auth/login",
		`{"username":"alice","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUnknownUserSameResponse(t *testing.T) {
	t.Parallel()
	c := newTestController(t, newStubDS())

	rec := doJSON(c, http.MethodPost, "/api/v1/auth/login",
		`{"username":"ghost","password":"whatever"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshTokenFlow(t *testing.T) {
	t.Parallel()
	c := newTestController(t, newStubDS())
	tokens := registerAndLogin(t, c)

	rec := doJSON(c, http.MethodPost, "/api/v1/auth/refresh",
		`{"refresh_token":"`+tokens.RefreshToken+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var refreshed TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshed))
	assert.NotEmpty(t, refreshed.AccessToken)

	// An access token is not accepted as a refresh token.
	rec = doJSON(c, http.MethodPost, "/api/v1/auth/refresh",
		`{"refresh_token":"`+tokens.AccessToken+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	t.Parallel()
	c := newTestController(t, newStubDS())

	rec := doJSON(c, http.MethodGet, "/api/v1/objects", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(c, http.MethodGet, "/api/v1/objects", "", "garbage-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestObjectLifecycle(t *testing.T) {
	t.Parallel()
	c := newTestController(t, newStubDS())
	tokens := registerAndLogin(t, c)

	rec := doJSON(c, http.MethodPost, "/api/v1/objects",
		`{"name":"Front Door","description":"entrance camera"}`, tokens.AccessToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created ObjectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "inactive", created.Status)

	rec = doJSON(c, http.MethodGet, "/api/v1/objects", "", tokens.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []ObjectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = doJSON(c, http.MethodPost, fmt.Sprintf("/api/v1/objects/%d/monitor", created.ID), "", tokens.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "monitoring")
}

func TestHealthIsPublic(t *testing.T) {
	t.Parallel()
	c := newTestController(t, newStubDS())

	rec := doJSON(c, http.MethodGet, "/api/v1/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
