package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"crowdpulse-api/internal/auth"
	"crowdpulse-api/internal/config"
	"crowdpulse-api/internal/handler"
	"crowdpulse-api/internal/model"
	"crowdpulse-api/internal/router"
	"crowdpulse-api/internal/service"
)

type userStore struct {
	mu    sync.Mutex
	users map[string]model.User
}

func (s *userStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *userStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *userStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return model.ErrUserAlreadyExists
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *userStore) UpdateRole(_ context.Context, id string, role auth.Role, at time.Time) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	u.Role, u.UpdatedAt = role, at
	s.users[id] = u
	return u, nil
}

func (s *userStore) UpdatePassword(_ context.Context, id string, hash string, at time.Time) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	u.PasswordHash, u.UpdatedAt = hash, at
	s.users[id] = u
	return u, nil
}

func (s *userStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *userStore) List(_ context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

type revocationStore struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (s *revocationStore) Revoke(_ context.Context, tokenID string, _ string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = true
	return nil
}

func (s *revocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revoked[tokenID], nil
}

type testServer struct {
	handler http.Handler
	users   *userStore
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	cfg := &config.Config{
		RequestTimeout:      5 * time.Second,
		RateLimitRPM:        1000,
		AuthRateLimitRPM:    1000,
		AnalyzeRateLimitRPM: 10,
		CORSOrigins:         []string{"*"},
		JWTAccessExpiresIn:  "15m",
		JWTRefreshExpiresIn: "7d",
	}

	users := &userStore{users: map[string]model.User{}}
	codec := auth.NewCodec("handler-test-secret")
	hasher := service.NewPasswordHasher(bcrypt.MinCost)
	audit := service.NewAuditService(nil)

	authService := service.NewAuthService(users, codec, hasher, &revocationStore{revoked: map[string]bool{}}, 15*time.Minute, 7*24*time.Hour)
	cookies := auth.NewCookieTransport(auth.CookiePolicy{SameSite: http.SameSiteLaxMode}, cfg.JWTAccessExpiresIn, cfg.JWTRefreshExpiresIn)

	h := router.New(cfg, codec, router.Handlers{
		Auth:        handler.NewAuthHandler(authService, cookies, audit),
		Users:       handler.NewUserHandler(service.NewUserService(users, hasher), audit),
		Topics:      handler.NewTopicHandler(service.NewTopicService(nil, nil, nil)),
		TopicResult: handler.NewTopicResultHandler(service.NewTopicResultService(nil, nil, nil, nil, nil)),
		Stats:       handler.NewStatsHandler(service.NewStatsService(nil, nil, nil)),
		Health:      handler.NewHealthHandler(nil, time.Now()),
		Audit:       handler.NewAuditHandler(audit),
		Docs:        handler.NewDocsHandler(),
	})

	return testServer{handler: h, users: users}
}

type request struct {
	method string
	path   string
	body   any
	token  string
	cookie []*http.Cookie
}

func (s testServer) do(t *testing.T, req request) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if req.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(req.body))
	}

	httpReq := httptest.NewRequest(req.method, req.path, &body)
	httpReq.Header.Set("Content-Type", "application/json")
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	for _, c := range req.cookie {
		httpReq.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httpReq)
	return rec
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeAuth(t *testing.T, rec *httptest.ResponseRecorder) model.AuthResult {
	t.Helper()
	var result model.AuthResult
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &result))
	return result
}

func TestSignupSigninAuthorizationScenario(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rec := srv.do(t, request{method: http.MethodPost, path: "/api/v1/auth/signup", body: map[string]string{
		"email":           "A@B.com",
		"password":        "secret123",
		"confirmPassword": "secret123",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Signup successful", decode(t, rec).Message)

	signup := decodeAuth(t, rec)
	assert.Equal(t, "a@b.com", signup.User.Email)
	assert.Equal(t, auth.RoleUser, signup.User.Role)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.Len(t, rec.Result().Cookies(), 2)

	rec = srv.do(t, request{method: http.MethodPost, path: "/api/v1/auth/signin", body: map[string]string{
		"email":    "a@b.com",
		"password": "secret123",
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	signin := decodeAuth(t, rec)
	require.NotEmpty(t, signin.AccessToken)

	rec = srv.do(t, request{method: http.MethodGet, path: "/api/v1/users/me", token: signin.AccessToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Successfully retrieved logged user", decode(t, rec).Message)

	rec = srv.do(t, request{method: http.MethodGet, path: "/api/v1/users", token: signin.AccessToken})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "insufficient role", decode(t, rec).Message)
}

func TestSigninFailuresShareMessage(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rec := srv.do(t, request{method: http.MethodPost, path: "/api/v1/auth/signup", body: map[string]string{
		"email": "a@b.com", "password": "secret123", "confirmPassword": "secret123",
	}})
	require.Equal(t, http.StatusCreated, rec.Code)

	wrong := srv.do(t, request{method: http.MethodPost, path: "/api/v1/auth/signin", body: map[string]string{
		"email": "a@b.com", "password": "wrong-password",
	}})
	unknown := srv.do(t, request{method: http.MethodPost, path: "/api/v1/auth/signin", body: map[string]string{
		"email": "nobody@b.com", "password": "secret123",
	}})

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, decode(t, wrong).Message, decode(t, unknown).Message)
}

func TestSignupValidationAndConflict(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rec := srv.do(t, request{method: http.MethodPost, path: "/api/v1/auth/signup", body: map[string]string{
		"email": "not-an-email", "password": "short", "confirmPassword": "short",
	}})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var fields []model.FieldError
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &fields))
	assert.Contains(t, fields, model.FieldError{Field: "email", Rule: "email"})
	assert.Contains(t, fields, model.FieldError{Field: "password", Rule: "min"})

	rec = srv.do(t, request{method: http.MethodPost, path: "/api/v1/auth/signup", body: map[string]string{
		"email": "a@b.com", "password": "secret123", "confirmPassword": "secret124",
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "passwords do not match", decode(t, rec).Message)

	body := map[string]string{"email": "a@b.com", "password": "secret123", "confirmPassword": "secret123"}
	require.Equal(t, http.StatusCreated, srv.do(t, request{method: http.MethodPost, path: "/api/v1/auth/signup", body: body}).Code)

	body["email"] = "A@B.COM"
	rec = srv.do(t, request{method: http.MethodPost, path: "/api/v1/auth/signup", body: body})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRefreshViaCookie(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rec := srv.do(t, request{method: http.MethodPost, path: "/api/v1/auth/signup", body: map[string]string{
		"email": "a@b.com", "password": "secret123", "confirmPassword": "secret123",
	}})
	require.Equal(t, http.StatusCreated, rec.Code)
	signup := decodeAuth(t, rec)

	var refreshCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.RefreshTokenCookie {
			refreshCookie = c
		}
	}
	require.NotNil(t, refreshCookie)
	assert.True(t, refreshCookie.HttpOnly)

	rec = srv.do(t, request{method: http.MethodPost, path: "/api/v1/auth/refresh", cookie: []*http.Cookie{refreshCookie}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Token refresh successful", decode(t, rec).Message)

	var pair model.TokenPair
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &pair))
	assert.Equal(t, signup.RefreshToken, pair.RefreshToken)

	rec = srv.do(t, request{method: http.MethodGet, path: "/api/v1/users/me", token: pair.AccessToken})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshRequiresToken(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rec := srv.do(t, request{method: http.MethodPost, path: "/api/v1/auth/refresh"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, request{method: http.MethodPost, path: "/api/v1/auth/refresh", body: map[string]string{"refreshToken": "garbage-token"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutRevokesAndClearsCookies(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rec := srv.do(t, request{method: http.MethodPost, path: "/api/v1/auth/signup", body: map[string]string{
		"email": "a@b.com", "password": "secret123", "confirmPassword": "secret123",
	}})
	require.Equal(t, http.StatusCreated, rec.Code)
	signup := decodeAuth(t, rec)

	rec = srv.do(t, request{method: http.MethodPost, path: "/api/v1/auth/logout", body: map[string]string{"refreshToken": signup.RefreshToken}})
	require.Equal(t, http.StatusOK, rec.Code)
	for _, header := range rec.Header().Values("Set-Cookie") {
		assert.Contains(t, header, "Max-Age=0")
	}

	rec = srv.do(t, request{method: http.MethodPost, path: "/api/v1/auth/refresh", body: map[string]string{"refreshToken": signup.RefreshToken}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdministratorUserManagement(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rec := srv.do(t, request{method: http.MethodPost, path: "/api/v1/auth/signup", body: map[string]string{
		"email": "admin@b.com", "password": "secret123", "confirmPassword": "secret123",
	}})
	require.Equal(t, http.StatusCreated, rec.Code)
	admin := decodeAuth(t, rec)
	_, err := srv.users.UpdateRole(context.Background(), admin.User.ID, auth.RoleAdministrator, time.Now())
	require.NoError(t, err)

	rec = srv.do(t, request{method: http.MethodPost, path: "/api/v1/auth/signup", body: map[string]string{
		"email": "member@b.com", "password": "secret123", "confirmPassword": "secret123",
	}})
	require.Equal(t, http.StatusCreated, rec.Code)
	member := decodeAuth(t, rec)

	// Roles are read at signin and refresh, so sign in again as administrator.
	rec = srv.do(t, request{method: http.MethodPost, path: "/api/v1/auth/signin", body: map[string]string{
		"email": "admin@b.com", "password": "secret123",
	}})
	require.Equal(t, http.StatusOK, rec.Code)
	adminToken := decodeAuth(t, rec).AccessToken

	rec = srv.do(t, request{method: http.MethodPatch, path: "/api/v1/users/" + member.User.ID + "/role", token: adminToken, body: map[string]string{"role": "Manager"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Successfully changed the role of user", decode(t, rec).Message)

	rec = srv.do(t, request{method: http.MethodPatch, path: "/api/v1/users/" + member.User.ID + "/role", token: adminToken, body: map[string]string{"role": "Root"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, request{method: http.MethodPatch, path: "/api/v1/users/" + admin.User.ID + "/password", token: member.AccessToken, body: map[string]string{"password": "hijacked1"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, request{method: http.MethodDelete, path: "/api/v1/users/" + admin.User.ID, token: adminToken})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, request{method: http.MethodDelete, path: "/api/v1/users/" + strings.ToUpper(admin.User.ID), token: adminToken})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, err = srv.users.FindByID(context.Background(), admin.User.ID)
	require.NoError(t, err)

	rec = srv.do(t, request{method: http.MethodDelete, path: "/api/v1/users/not-a-uuid", token: adminToken})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, request{method: http.MethodDelete, path: "/api/v1/users/" + member.User.ID, token: adminToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Successfully deleted user", decode(t, rec).Message)
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rec := srv.do(t, request{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", strings.TrimSpace(rec.Body.String()))

	rec = srv.do(t, request{method: http.MethodGet, path: "/api/v1/health"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing access token", decode(t, rec).Message)
}

func managerToken(t *testing.T, srv testServer) string {
	t.Helper()

	rec := srv.do(t, request{method: http.MethodPost, path: "/api/v1/auth/signup", body: map[string]string{
		"email": "manager@b.com", "password": "secret123", "confirmPassword": "secret123",
	}})
	require.Equal(t, http.StatusCreated, rec.Code)
	_, err := srv.users.UpdateRole(context.Background(), decodeAuth(t, rec).User.ID, auth.RoleManager, time.Now())
	require.NoError(t, err)

	rec = srv.do(t, request{method: http.MethodPost, path: "/api/v1/auth/signin", body: map[string]string{
		"email": "manager@b.com", "password": "secret123",
	}})
	require.Equal(t, http.StatusOK, rec.Code)
	return decodeAuth(t, rec).AccessToken
}

func TestManagerRoutesRejectBadInput(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	token := managerToken(t, srv)

	rec := srv.do(t, request{method: http.MethodPost, path: "/api/v1/topics", token: token, body: map[string]string{
		"title":            "Park redesign",
		"shortDescription": "What should the park look like?",
		"description":      "Tell us what you want from the park.",
		"startDate":        "tomorrow",
		"endDate":          "2026-06-01T00:00:00Z",
	}})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var fields []model.FieldError
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &fields))
	assert.Equal(t, []model.FieldError{{Field: "startDate", Rule: "datetime"}}, fields)

	rec = srv.do(t, request{method: http.MethodGet, path: "/api/v1/topics/not-a-uuid"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, request{method: http.MethodPost, path: "/api/v1/topic-results/analyze/0b9e6f36-6a43-4c34-9d8c-5f0c3c1f6a10", token: token})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "analysis agent is not configured", decode(t, rec).Message)
}

func TestDocsServeOpenAPI(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rec := srv.do(t, request{method: http.MethodGet, path: "/api/docs/openapi.yaml"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "openapi: 3.0.3"))
}
