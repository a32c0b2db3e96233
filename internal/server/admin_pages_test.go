package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/portfolio/internal/analytics"
)

var challengeField = regexp.MustCompile(`name="challenge" value="([^"]+)"`)

// page requests path as a browser would, optionally with a session cookie.
func (e *testEnv) page(t *testing.T, method, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestAdminPages(t *testing.T) {
	ctx := context.Background()
	env := setupServer(t)

	now := time.Now().UTC()
	for _, r := range []analytics.Request{
		{IP: "203.0.113.1", UserAgent: firefoxUA, Path: "/", LandingURL: "/", Referrer: "https://www.google.com/search?q=zach", Host: "example.com", At: now.Add(-time.Hour)},
		{IP: "203.0.113.1", UserAgent: firefoxUA, Path: "/projects", LandingURL: "/projects", Host: "example.com", At: now.Add(-time.Hour + time.Minute)},
	} {
		_, err := env.srv.tracker.Track(ctx, r)
		require.NoError(t, err)
	}

	t.Run("should redirect anonymous visitors to the login page", func(t *testing.T) {
		for _, path := range []string{"/admin/dashboard", "/admin/visitors", "/admin/export/stats"} {
			rec := env.page(t, http.MethodGet, path, nil, nil)
			assert.Equal(t, http.StatusFound, rec.Code, path)
			assert.Equal(t, "/admin/login", rec.Header().Get("Location"), path)
		}

		rec := env.page(t, http.MethodGet, "/admin", nil, nil)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))
	})

	t.Run("should render the login form", func(t *testing.T) {
		rec := env.page(t, http.MethodGet, "/admin/login", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `action="/admin/login"`)
	})

	t.Run("should reject wrong credentials", func(t *testing.T) {
		rec := env.page(t, http.MethodPost, "/admin/login", url.Values{"username": {"admin"}, "password": {"nope"}}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid credentials")
		assert.Nil(t, sessionCookie(rec))
	})

	t.Run("should send a stale challenge back to the login form", func(t *testing.T) {
		rec := env.page(t, http.MethodPost, "/admin/verify-2fa", url.Values{"challenge": {"garbage"}, "code": {"123456"}}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Verification expired")
	})

	var cookie *http.Cookie
	t.Run("should sign in through the verification step", func(t *testing.T) {
		rec := env.page(t, http.MethodPost, "/admin/login", url.Values{"username": {"admin"}, "password": {"s3cret"}}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `action="/admin/verify-2fa"`)
		assert.Nil(t, sessionCookie(rec), "no session before the code is verified")

		m := challengeField.FindStringSubmatch(rec.Body.String())
		require.Len(t, m, 2, rec.Body.String())
		challenge := m[1]

		rec = env.page(t, http.MethodPost, "/admin/verify-2fa", url.Values{"challenge": {challenge}, "code": {"999999"}}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid verification code")
		assert.Contains(t, rec.Body.String(), challenge)

		rec = env.page(t, http.MethodPost, "/admin/verify-2fa", url.Values{"challenge": {challenge}, "code": {"123456"}}, nil)
		require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
		assert.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))

		cookie = sessionCookie(rec)
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, "/", cookie.Path)
	})

	t.Run("should render the dashboard", func(t *testing.T) {
		require.NotNil(t, cookie)
		rec := env.page(t, http.MethodGet, "/admin/dashboard?range=24h", nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := rec.Body.String()
		assert.Contains(t, body, "Bounce rate")
		assert.Contains(t, body, "0.0%")
		assert.Contains(t, body, "Traffic by hour")
		assert.Contains(t, body, "<td>search</td>")
		assert.Contains(t, body, "<td>/projects</td>")
		assert.Contains(t, body, `class="active">24h</a>`)
	})

	t.Run("should fall back to the default range", func(t *testing.T) {
		rec := env.page(t, http.MethodGet, "/admin/dashboard?range=forever", nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Traffic by day")
	})

	t.Run("should list visitors", func(t *testing.T) {
		rec := env.page(t, http.MethodGet, "/admin/visitors", nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		fp := analytics.Fingerprint(env.srv.cfg.HashSalt, "203.0.113.1", firefoxUA)
		assert.Contains(t, rec.Body.String(), fp)
		assert.NotContains(t, rec.Body.String(), "203.0.113.1")
	})

	t.Run("should export stats as a download", func(t *testing.T) {
		rec := env.page(t, http.MethodGet, "/admin/export/stats?range=24h", nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "attachment; filename=portfolio-stats-24h.json", rec.Header().Get("Content-Disposition"))

		export := decode[struct {
			Overview analytics.Overview `json:"overview"`
			Sources  []analytics.Share  `json:"sources"`
		}](t, rec)
		assert.Equal(t, 1, export.Overview.Sessions)
		assert.Equal(t, 2, export.Overview.PageViews)
		require.Len(t, export.Sources, 1)
		assert.Equal(t, "search", export.Sources[0].Key)
	})

	t.Run("should skip the login form when signed in", func(t *testing.T) {
		rec := env.page(t, http.MethodGet, "/admin/login", nil, cookie)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))
	})

	t.Run("should log out", func(t *testing.T) {
		rec := env.page(t, http.MethodGet, "/admin/logout", nil, cookie)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/admin/login", rec.Header().Get("Location"))
		cleared := sessionCookie(rec)
		require.NotNil(t, cleared)
		assert.Empty(t, cleared.Value)
		assert.Less(t, cleared.MaxAge, 0)
	})
}
