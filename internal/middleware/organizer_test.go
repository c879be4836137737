package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func organizerEcho(t *testing.T, auth *OrganizerAuth, req *http.Request) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var got string
	handler := auth.RequireOrganizer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = OrganizerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr, got
}

func TestOrganizerAuth_SecretHeader(t *testing.T) {
	auth := NewOrganizerAuth("organizer-signing-secret", testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/organizer/events", nil)
	req.Header.Set("X-Organizer-Secret", "  org-secret-1 ")
	rr, got := organizerEcho(t, auth, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "org-secret-1", got)
}

func TestOrganizerAuth_BearerToken(t *testing.T) {
	auth := NewOrganizerAuth("organizer-signing-secret", testLogger())
	token, err := auth.IssueToken("org-secret-1", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/organizer/events", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr, got := organizerEcho(t, auth, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "org-secret-1", got)
}

func TestOrganizerAuth_Rejects(t *testing.T) {
	auth := NewOrganizerAuth("organizer-signing-secret", testLogger())

	sign := func(claims jwt.Claims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name   string
		header string
	}{
		{name: "no credentials"},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "wrong key", header: "Bearer " + sign(OrganizerClaims{Role: "organizer", RegisteredClaims: jwt.RegisteredClaims{Subject: "o", ExpiresAt: future}}, "other-secret")},
		{name: "wrong role", header: "Bearer " + sign(OrganizerClaims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: "o", ExpiresAt: future}}, "organizer-signing-secret")},
		{name: "no subject", header: "Bearer " + sign(OrganizerClaims{Role: "organizer", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}}, "organizer-signing-secret")},
		{name: "no expiry", header: "Bearer " + sign(OrganizerClaims{Role: "organizer", RegisteredClaims: jwt.RegisteredClaims{Subject: "o"}}, "organizer-signing-secret")},
		{name: "expired", header: "Bearer " + sign(OrganizerClaims{Role: "organizer", RegisteredClaims: jwt.RegisteredClaims{Subject: "o", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}}, "organizer-signing-secret")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/organizer/events", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr, _ := organizerEcho(t, auth, req)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.JSONEq(t, `{"error":"unauthorized"}`, rr.Body.String())
		})
	}
}

func TestOrganizerAuth_TokensDisabledWithoutSecret(t *testing.T) {
	signer := NewOrganizerAuth("organizer-signing-secret", testLogger())
	token, err := signer.IssueToken("org-secret-1", time.Hour)
	require.NoError(t, err)

	auth := NewOrganizerAuth("", testLogger())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr, _ := organizerEcho(t, auth, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	_, err = auth.IssueToken("org", time.Hour)
	assert.Error(t, err)
}

func TestOrganizerAuth_IgnoresAdminCookie(t *testing.T) {
	admin := newTestAdminManager(t, "door-secret")
	auth := NewOrganizerAuth("organizer-signing-secret", testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/organizer/events", nil)
	req.AddCookie(loginCookie(t, admin, "door-secret"))
	rr, _ := organizerEcho(t, auth, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
