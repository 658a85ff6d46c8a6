package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pmani/ad-mosaic/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *Manager {
	cfg := &config.AuthConfig{
		Enabled:      true,
		CookieName:   "admosaic_session",
		CookieMaxAge: 3600,
	}
	return NewManager(cfg, "http://localhost:8080", "http://localhost:5173")
}

func sessionRequest(m *Manager, id string, s *Session) *http.Request {
	m.CreateSession(id, s)
	req := httptest.NewRequest(http.MethodGet, "/auth/user", nil)
	req.AddCookie(&http.Cookie{Name: "admosaic_session", Value: id})
	return req
}

func TestHandleUserInfoUnauthenticated(t *testing.T) {
	m := testManager()

	req := httptest.NewRequest(http.MethodGet, "/auth/user", nil)
	rec := httptest.NewRecorder()
	m.HandleUserInfo(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Not authenticated"}`, rec.Body.String())
}

func TestHandleUserInfoAuthenticated(t *testing.T) {
	m := testManager()
	req := sessionRequest(m, "sess-1", &Session{
		UserID:    "u1",
		Email:     "op@example.com",
		Name:      "Operator",
		ExpiresAt: time.Now().Add(time.Hour),
	})

	rec := httptest.NewRecorder()
	m.HandleUserInfo(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user"`)
	assert.Contains(t, rec.Body.String(), "op@example.com")
}

func TestExpiredSessionRejected(t *testing.T) {
	m := testManager()
	req := sessionRequest(m, "sess-2", &Session{
		UserID:    "u2",
		ExpiresAt: time.Now().Add(-time.Minute),
	})

	assert.Nil(t, m.GetSession(req))
	assert.False(t, m.IsAuthenticated(req))
}

func TestHandleLoginSetsStateCookie(t *testing.T) {
	m := testManager()

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	rec := httptest.NewRecorder()
	m.HandleLogin(rec, req)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	cookies := rec.Result().Cookies()
	var found bool
	for _, c := range cookies {
		if c.Name == "oauth_state" && c.Value != "" {
			found = true
		}
	}
	assert.True(t, found, "oauth_state cookie should be set")
	assert.Contains(t, rec.Header().Get("Location"), "accounts.google.com")
}

func TestHandleLogoutClearsSession(t *testing.T) {
	m := testManager()
	req := sessionRequest(m, "sess-3", &Session{
		UserID:    "u3",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NotNil(t, m.GetSession(req))

	rec := httptest.NewRecorder()
	m.HandleLogout(rec, req)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Nil(t, m.GetSession(req))
}

func TestCallbackStateMismatch(t *testing.T) {
	m := testManager()

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=bogus", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "expected"})
	rec := httptest.NewRecorder()
	m.HandleCallback(rec, req)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "error=invalid_state")
}
