package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avigneron/pumphouse/domain/model"
)

func newAuthHandler(auth *MockAuthService) *AuthHandler {
	middleware := NewAuthMiddleware(auth, nopLogger{})
	return NewAuthHandler(auth, nopLogger{}, middleware)
}

func TestLogin_Success(t *testing.T) {
	auth := new(MockAuthService)
	auth.On("Login", "admin", "admin123").Return(&model.Session{
		ID:       "abcdefghijklmnop",
		Username: "admin",
		Role:     model.RoleAdmin,
		Active:   true,
	}, nil)

	handler := newAuthHandler(auth)

	body, _ := json.Marshal(LoginRequest{Username: "admin", Password: "admin123"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "abcdefghijklmnop", resp.SessionID)
	assert.Equal(t, model.RoleAdmin, resp.Role)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.Equal(t, "abcdefghijklmnop", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	auth.AssertExpectations(t)
}

func TestLogin_BadCredentials(t *testing.T) {
	auth := new(MockAuthService)
	auth.On("Login", "admin", "wrong").Return(nil, model.ErrInvalidCredentials)

	handler := newAuthHandler(auth)

	body, _ := json.Marshal(LoginRequest{Username: "admin", Password: "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestLogin_TableFull(t *testing.T) {
	auth := new(MockAuthService)
	auth.On("Login", "admin", "admin123").Return(nil, model.ErrSessionTableFull)

	handler := newAuthHandler(auth)

	body, _ := json.Marshal(LoginRequest{Username: "admin", Password: "admin123"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLogin_MissingFields(t *testing.T) {
	handler := newAuthHandler(new(MockAuthService))

	body, _ := json.Marshal(LoginRequest{Username: "admin"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_MalformedBody(t *testing.T) {
	handler := newAuthHandler(new(MockAuthService))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader([]byte("{oops")))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout_ClearsCookieAndSession(t *testing.T) {
	auth := new(MockAuthService)
	auth.On("Logout", "abcdefghijklmnop").Return(true)

	handler := newAuthHandler(auth)

	session := &model.Session{ID: "abcdefghijklmnop", Username: "admin", Role: model.RoleAdmin, Active: true}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req = req.WithContext(withSession(req, session))
	rec := httptest.NewRecorder()

	handler.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)

	auth.AssertExpectations(t)
}

func TestGetProfile(t *testing.T) {
	handler := newAuthHandler(new(MockAuthService))

	session := &model.Session{ID: "abcdefghijklmnop", Username: "user1", Role: model.RoleUser, Active: true}
	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req = req.WithContext(withSession(req, session))
	rec := httptest.NewRecorder()

	handler.GetProfile(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "user1", resp["username"])
	assert.Equal(t, "user", resp["role"])
}
