package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"planora-ticketing/internal/models"
	"planora-ticketing/internal/utils"

	"github.com/gorilla/sessions"
)

const adminSessionName = "admin_session"

// AdminSessionManager issues and checks the signed admin cookie. It never
// looks at organizer credentials.
type AdminSessionManager struct {
	store   *sessions.CookieStore
	secrets []string
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewAdminSessionManager creates a cookie store signed with sessionSecret.
func NewAdminSessionManager(secrets []string, sessionSecret string, ttl time.Duration, secure bool, logger *slog.Logger) *AdminSessionManager {
	store := sessions.NewCookieStore([]byte(sessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &AdminSessionManager{
		store:   store,
		secrets: secrets,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

// Login checks secret against the configured admin secrets and sets the cookie.
func (m *AdminSessionManager) Login(w http.ResponseWriter, r *http.Request, secret string) (time.Time, error) {
	if !utils.MatchAnySecret(secret, m.secrets) {
		m.logger.Warn("admin login rejected", "client_ip", getClientIP(r))
		return time.Time{}, models.ErrUnauthorized
	}

	// a tampered or stale cookie still yields a fresh session
	session, _ := m.store.Get(r, adminSessionName)
	expiresAt := m.now().Add(m.ttl)
	session.Values["admin"] = true
	session.Values["expires_at"] = expiresAt.Unix()

	if err := session.Save(r, w); err != nil {
		return time.Time{}, err
	}

	m.logger.Info("admin logged in", "client_ip", getClientIP(r))
	return expiresAt, nil
}

// Logout expires the cookie.
func (m *AdminSessionManager) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, adminSessionName)
	session.Values = map[interface{}]interface{}{}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// Status reports whether r carries a live admin session and when it ends.
func (m *AdminSessionManager) Status(r *http.Request) (bool, time.Time) {
	session, err := m.store.Get(r, adminSessionName)
	if err != nil || session.IsNew {
		return false, time.Time{}
	}

	isAdmin, _ := session.Values["admin"].(bool)
	expiresUnix, _ := session.Values["expires_at"].(int64)
	if !isAdmin || expiresUnix == 0 {
		return false, time.Time{}
	}

	expiresAt := time.Unix(expiresUnix, 0)
	if !m.now().Before(expiresAt) {
		return false, time.Time{}
	}
	return true, expiresAt
}

// RequireAdmin rejects requests without a live admin session.
func (m *AdminSessionManager) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ok, _ := m.Status(r); !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
