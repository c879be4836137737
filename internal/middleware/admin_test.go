package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"planora-ticketing/internal/models"
	"planora-ticketing/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSessionSecret = "0123456789abcdef0123456789abcdef"

func newTestAdminManager(t *testing.T, secrets ...string) *AdminSessionManager {
	t.Helper()
	return NewAdminSessionManager(secrets, testSessionSecret, time.Hour, false, testLogger())
}

func loginCookie(t *testing.T, m *AdminSessionManager, secret string) *http.Cookie {
	t.Helper()
	rr := httptest.NewRecorder()
	_, err := m.Login(rr, httptest.NewRequest(http.MethodPost, "/api/admin/session", nil), secret)
	require.NoError(t, err)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestAdminSessionManager_Login(t *testing.T) {
	m := newTestAdminManager(t, "door-secret")

	cookie := loginCookie(t, m, "door-secret")
	assert.Equal(t, adminSessionName, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 3600, cookie.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/session", nil)
	req.AddCookie(cookie)
	ok, expiresAt := m.Status(req)
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)
}

func TestAdminSessionManager_LoginWithHashedSecret(t *testing.T) {
	hashed, err := utils.HashSecret("door-secret")
	require.NoError(t, err)
	m := newTestAdminManager(t, "other", hashed)

	loginCookie(t, m, "door-secret")
}

func TestAdminSessionManager_WrongSecret(t *testing.T) {
	m := newTestAdminManager(t, "door-secret")

	rr := httptest.NewRecorder()
	_, err := m.Login(rr, httptest.NewRequest(http.MethodPost, "/", nil), "guess")

	assert.True(t, errors.Is(err, models.ErrUnauthorized))
	assert.Empty(t, rr.Result().Cookies())
}

func TestAdminSessionManager_Expired(t *testing.T) {
	m := newTestAdminManager(t, "door-secret")
	cookie := loginCookie(t, m, "door-secret")

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	ok, _ := m.Status(req)
	assert.False(t, ok)
}

func TestAdminSessionManager_ForgedCookie(t *testing.T) {
	m := newTestAdminManager(t, "door-secret")
	cookie := loginCookie(t, m, "door-secret")

	other := NewAdminSessionManager([]string{"door-secret"}, "ffffffffffffffffffffffffffffffff", time.Hour, false, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	ok, _ := other.Status(req)
	assert.False(t, ok)
}

func TestAdminSessionManager_Logout(t *testing.T) {
	m := newTestAdminManager(t, "door-secret")
	cookie := loginCookie(t, m, "door-secret")

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	require.NoError(t, m.Logout(rr, req))

	cleared := rr.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.True(t, cleared[0].MaxAge < 0)
}

func TestRequireAdmin(t *testing.T) {
	m := newTestAdminManager(t, "door-secret")
	handler := m.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/admin/tickets", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rr.Body.String())

	// organizer credentials do not open admin routes
	req := httptest.NewRequest(http.MethodGet, "/api/admin/tickets", nil)
	req.Header.Set("X-Organizer-Secret", "door-secret")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/tickets", nil)
	req.AddCookie(loginCookie(t, m, "door-secret"))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
