package server

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/portfolio/internal/auth"
	"github.com/Zachkp/portfolio/internal/bounty"
	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/domain"
)

type loginBody struct {
	RequiresTwoFactor bool   `json:"requires_2fa"`
	Token             string `json:"token"`
	Challenge         string `json:"challenge"`
}

// login runs the password and demo-code steps and returns the session token.
func (e *testEnv) login(t *testing.T) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/auth/login", gin.H{"username": "admin", "password": "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	challenge := decode[loginBody](t, rec).Challenge
	require.NotEmpty(t, challenge)

	rec = e.do(t, http.MethodPost, "/api/auth/verify-2fa", gin.H{"challenge": challenge, "code": "123456"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := decode[loginBody](t, rec).Token
	require.NotEmpty(t, token)
	return token
}

func sessionCookie(rec interface{ Result() *http.Response }) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}

func TestAuthFlow(t *testing.T) {
	env := setupServer(t)

	t.Run("should reject wrong credentials", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login", gin.H{"username": "admin", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, sessionCookie(rec))
	})

	t.Run("should require both fields", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login", gin.H{"username": "admin"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "is required", decode[errorsBody](t, rec).Errors["password"])
	})

	t.Run("should ask for the second factor", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login", gin.H{"username": "admin", "password": "s3cret"})
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[loginBody](t, rec)
		assert.True(t, body.RequiresTwoFactor)
		assert.NotEmpty(t, body.Challenge)
		assert.Empty(t, body.Token)
		assert.Nil(t, sessionCookie(rec))

		rec = env.do(t, http.MethodPost, "/api/auth/verify-2fa", gin.H{"challenge": body.Challenge, "code": "999999"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = env.do(t, http.MethodPost, "/api/auth/verify-2fa", gin.H{"challenge": "garbage", "code": "123456"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("should issue a session token and cookie", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login", gin.H{"username": "admin", "password": "s3cret"})
		challenge := decode[loginBody](t, rec).Challenge

		rec = env.do(t, http.MethodPost, "/api/auth/verify-2fa", gin.H{"challenge": challenge, "code": " 123456 "})
		require.Equal(t, http.StatusOK, rec.Code)
		token := decode[loginBody](t, rec).Token
		require.NotEmpty(t, token)

		cookie := sessionCookie(rec)
		require.NotNil(t, cookie)
		assert.Equal(t, token, cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	})

	t.Run("should not accept a challenge as a session", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login", gin.H{"username": "admin", "password": "s3cret"})
		challenge := decode[loginBody](t, rec).Challenge

		rec = env.do(t, http.MethodGet, "/api/auth/me", nil, withToken(challenge))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("should identify the admin", func(t *testing.T) {
		token := env.login(t)

		rec := env.do(t, http.MethodGet, "/api/auth/me", nil, withToken(token))
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[map[string]any](t, rec)
		assert.Equal(t, "admin", body["username"])
		assert.Equal(t, "admin@example.com", body["email"])

		rec = env.do(t, http.MethodGet, "/api/auth/me", nil, withHeader("Cookie", auth.CookieName+"="+token))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("should clear the cookie on logout", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/logout", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		cookie := sessionCookie(rec)
		require.NotNil(t, cookie)
		assert.Empty(t, cookie.Value)
		assert.Negative(t, cookie.MaxAge)
	})
}

func TestAdminRequiresSession(t *testing.T) {
	env := setupServer(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodGet, "/api/admin/projects"},
		{http.MethodDelete, "/api/admin/inquiries/x"},
		{http.MethodGet, "/api/admin/analytics/overview"},
		{http.MethodPost, "/api/admin/bounty/sync"},
		{http.MethodGet, "/api/admin/system"},
		{http.MethodPost, "/api/admin/privacy/cleanup"},
	} {
		rec := env.do(t, route.method, route.path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, route.path)

		rec = env.do(t, route.method, route.path, nil, withToken("not-a-token"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, route.path)
	}
}

func TestCronBountySync(t *testing.T) {
	t.Run("should not exist without a secret", func(t *testing.T) {
		env := setupServer(t)

		rec := env.do(t, http.MethodPost, "/api/cron/bounty-sync", nil, withToken("anything"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("should reject a wrong secret", func(t *testing.T) {
		env := setupServer(t, func(c *config.Config) { c.CronSecret = "cron-secret" })

		rec := env.do(t, http.MethodPost, "/api/cron/bounty-sync", nil, withToken("wrong"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = env.do(t, http.MethodPost, "/api/cron/bounty-sync", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("should run a sync with the right secret", func(t *testing.T) {
		env := setupServer(t, func(c *config.Config) { c.CronSecret = "cron-secret" })

		rec := env.do(t, http.MethodPost, "/api/cron/bounty-sync", nil, withToken("cron-secret"))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		run := decode[domain.BountySyncRun](t, rec)
		assert.Equal(t, bounty.TriggerHTTP, run.Trigger)
		assert.Equal(t, 3, run.Updated)
		assert.Zero(t, run.Failed)
	})
}
