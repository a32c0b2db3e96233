package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Zachkp/portfolio/internal/analytics"
	"github.com/Zachkp/portfolio/internal/auth"
	"github.com/Zachkp/portfolio/internal/bounty"
	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/content"
	"github.com/Zachkp/portfolio/internal/domain"
	"github.com/Zachkp/portfolio/internal/mail"
	"github.com/Zachkp/portfolio/internal/store"
)

const firefoxUA = "Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0"

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

type testEnv struct {
	srv     *Server
	handler http.Handler
	repo    *store.Repository
	mailer  *recordingMailer
}

func setupServer(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "server.db")
	db, err := store.Open(dbPath)
	require.NoError(t, err)
	repo := store.NewRepository(db)
	t.Cleanup(func() { repo.Close() })
	require.NoError(t, repo.Seed(context.Background(), zerolog.Nop()))

	cfg := &config.Config{
		Port:             8080,
		Env:              "test",
		DatabasePath:     dbPath,
		HashSalt:         "test-salt",
		SessionWindow:    30 * time.Minute,
		RetentionMonths:  12,
		TwoFactorEnabled: true,
	}
	for _, m := range mutate {
		m(cfg)
	}

	authSvc, err := auth.New(auth.Config{
		Username:   "admin",
		Password:   "s3cret",
		Email:      "admin@example.com",
		Secret:     "test-jwt-secret",
		TokenTTL:   time.Hour,
		TwoFactor:  true,
		DemoCodes:  []string{"123456"},
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)

	mailer := &recordingMailer{}
	tracker := analytics.NewTracker(repo, cfg.HashSalt, cfg.SessionWindow, zerolog.Nop())
	srv, err := New(Deps{
		Config:   cfg,
		Store:    repo,
		Auth:     authSvc,
		Tracker:  tracker,
		Reporter: analytics.NewReporter(repo),
		Syncer:   bounty.NewSyncer(repo, bounty.MockScraper{}, zerolog.Nop()),
		Mailer:   mailer,
		Log:      zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		tracker.Wait()
		srv.Wait()
	})

	return &testEnv{srv: srv, handler: srv.Handler(), repo: repo, mailer: mailer}
}

type reqOption func(*http.Request)

func withToken(token string) reqOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withHeader(key, value string) reqOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

func (e *testEnv) do(t *testing.T, method, path string, body any, opts ...reqOption) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorsBody struct {
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors"`
}

func TestHealth(t *testing.T) {
	env := setupServer(t)

	rec := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupServer(t)

	env.do(t, http.MethodGet, "/api/projects", nil)
	rec := env.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "portfolio_http_request_duration_seconds")
}

func TestPages(t *testing.T) {
	env := setupServer(t)

	t.Run("should render every marketing page", func(t *testing.T) {
		for path, want := range map[string]string{
			"/":                       content.Headline,
			"/about":                  "Western Governors University",
			"/projects":               "Game Recommender",
			"/projects/terminal-mail": "Terminal Mail",
			"/services":               "Security Review",
			"/contact":                `name="fullName"`,
			"/privacy":                "Privacy Policy",
		} {
			rec := env.do(t, http.MethodGet, path, nil)
			assert.Equal(t, http.StatusOK, rec.Code, path)
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/html", path)
			assert.Contains(t, rec.Body.String(), want, path)
		}
	})

	t.Run("should show only featured projects on the home page", func(t *testing.T) {
		body := env.do(t, http.MethodGet, "/", nil).Body.String()
		assert.Contains(t, body, "TUI Music")
		assert.NotContains(t, body, "Game Recommender")
	})

	t.Run("should format service prices", func(t *testing.T) {
		body := env.do(t, http.MethodGet, "/services", nil).Body.String()
		assert.Contains(t, body, "From $1,500")
		assert.Contains(t, body, "From On request")
	})

	t.Run("should answer unknown pages with 404", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/projects/does-not-exist", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "Page not found")

		rec = env.do(t, http.MethodGet, "/nowhere", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "Page not found")
	})

	t.Run("should hide unpublished projects", func(t *testing.T) {
		draft := &domain.Project{Title: "Secret Draft"}
		require.NoError(t, env.repo.CreateProject(context.Background(), draft))

		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/projects/secret-draft", nil).Code)
		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/projects/secret-draft", nil).Code)
	})

	t.Run("should serve static assets", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/static/site.css", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestPageTracking(t *testing.T) {
	env := setupServer(t)
	ctx := context.Background()

	for _, path := range []string{"/", "/about", "/nowhere", "/api/projects", "/static/site.css"} {
		env.do(t, http.MethodGet, path, nil, withHeader("User-Agent", firefoxUA))
		env.srv.tracker.Wait()
	}
	env.do(t, http.MethodGet, "/projects", nil, withHeader("User-Agent", firefoxUA), withHeader("DNT", "1"))
	env.do(t, http.MethodGet, "/projects", nil, withHeader("User-Agent", "Googlebot/2.1"))
	env.srv.tracker.Wait()

	sessions, err := env.repo.RecentSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 2, sessions[0].PageViews)
	assert.Equal(t, "/", sessions[0].EntryPage)
	assert.Equal(t, "/about", sessions[0].ExitPage)

	views, err := env.repo.GetSessionPageViews(ctx, sessions[0].ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Home", views[0].Title)
	assert.Equal(t, "About", views[1].Title)
}

func TestPublicAPI(t *testing.T) {
	env := setupServer(t)

	t.Run("should list published projects", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/projects", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[struct{ Projects []domain.Project }](t, rec)
		assert.Len(t, body.Projects, len(content.Projects()))
	})

	t.Run("should get a project by slug", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/projects/tui-music", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "TUI Music", decode[domain.Project](t, rec).Title)

		rec = env.do(t, http.MethodGet, "/api/projects/missing", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
	})

	t.Run("should list active services", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/services", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[struct{ Services []domain.Service }](t, rec)
		assert.Len(t, body.Services, len(content.Services()))
	})

	t.Run("should answer unknown API routes with JSON", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/nothing", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
	})

	t.Run("should return bounty profiles with a summary", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/bounty", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[struct {
			Profiles []domain.BountyProfile
			Summary  bounty.Summary
		}](t, rec)
		assert.Len(t, body.Profiles, len(content.BountyProfiles()))
		assert.Equal(t, len(content.BountyProfiles()), body.Summary.Platforms)
	})
}

func TestContactAPI(t *testing.T) {
	ctx := context.Background()

	t.Run("should store the inquiry and send a notification", func(t *testing.T) {
		env := setupServer(t)
		services, err := env.repo.ListServices(ctx, true)
		require.NoError(t, err)

		rec := env.do(t, http.MethodPost, "/api/contact", gin.H{
			"name":       "  Ada Lovelace ",
			"email":      "ada@example.com",
			"message":    "I need a review.",
			"service_id": services[1].ID,
		}, withHeader("User-Agent", firefoxUA))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		created := decode[struct {
			ID     string
			Status domain.InquiryStatus
		}](t, rec)
		assert.Equal(t, domain.InquiryNew, created.Status)

		in, err := env.repo.GetInquiry(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", in.Name)
		assert.Equal(t, services[1].Title, in.ServiceTitle)
		assert.Equal(t, analytics.Fingerprint("test-salt", "192.0.2.1", firefoxUA), in.Fingerprint)

		env.srv.Wait()
		sent := env.mailer.messages()
		require.Len(t, sent, 1)
		assert.Equal(t, "Ada Lovelace", sent[0].Name)
		assert.Equal(t, services[1].Title, sent[0].Service)
	})

	t.Run("should report each invalid field", func(t *testing.T) {
		env := setupServer(t)

		rec := env.do(t, http.MethodPost, "/api/contact", gin.H{"email": "not-an-email"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode[errorsBody](t, rec)
		assert.Equal(t, "is required", body.Errors["name"])
		assert.Equal(t, "must be a valid email address", body.Errors["email"])
		assert.Equal(t, "is required", body.Errors["message"])
	})

	t.Run("should reject a blank name", func(t *testing.T) {
		env := setupServer(t)

		rec := env.do(t, http.MethodPost, "/api/contact", gin.H{"name": "   ", "email": "a@example.com", "message": "hi"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "is required", decode[errorsBody](t, rec).Errors["name"])
	})

	t.Run("should reject wrongly typed fields", func(t *testing.T) {
		env := setupServer(t)

		rec := env.do(t, http.MethodPost, "/api/contact", gin.H{"name": 42, "email": "a@example.com", "message": "hi"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[errorsBody](t, rec).Errors, "name")
	})

	t.Run("should reject unknown and inactive services", func(t *testing.T) {
		env := setupServer(t)

		inactive := &domain.Service{Title: "Retired"}
		require.NoError(t, env.repo.CreateService(ctx, inactive))

		for _, id := range []string{"0190a8c4-7d2e-7000-8000-000000000000", inactive.ID} {
			rec := env.do(t, http.MethodPost, "/api/contact", gin.H{
				"name": "Ada", "email": "ada@example.com", "message": "hi", "service_id": id,
			})
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "unknown service", decode[errorsBody](t, rec).Errors["service_id"])
		}

		list, err := env.repo.ListInquiries(ctx, domain.InquiryFilter{})
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestContactForm(t *testing.T) {
	ctx := context.Background()
	env := setupServer(t)

	t.Run("should answer with the success fragment", func(t *testing.T) {
		rec := env.postForm(t, "/contact", url.Values{
			"fullName": {"Grace Hopper"},
			"email":    {"grace@example.com"},
			"message":  {"Hello from the form"},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Thank you for your message!")
		assert.NotContains(t, rec.Body.String(), "<html")

		list, err := env.repo.ListInquiries(ctx, domain.InquiryFilter{})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Grace Hopper", list[0].Name)
	})

	t.Run("should answer with the error fragment", func(t *testing.T) {
		rec := env.postForm(t, "/contact", url.Values{"email": {"grace@example.com"}})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Please check the highlighted fields")
		assert.Contains(t, rec.Body.String(), "message is required")
	})
}

func TestTrackBeacon(t *testing.T) {
	ctx := context.Background()

	t.Run("should record the page view", func(t *testing.T) {
		env := setupServer(t)

		rec := env.do(t, http.MethodPost, "/api/track", gin.H{
			"path":     "/projects/tui-music",
			"title":    "TUI Music",
			"referrer": "https://www.google.com/search?q=tui+music",
			"url":      "/projects/tui-music",
		}, withHeader("User-Agent", firefoxUA), withHeader("CF-IPCountry", "de"))
		require.Equal(t, http.StatusNoContent, rec.Code)

		sessions, err := env.repo.RecentSessions(ctx, 10)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, domain.SourceSearch, sessions[0].Source)
		assert.Equal(t, "google.com", sessions[0].ReferrerHost)
		assert.Equal(t, "https://www.google.com/search", sessions[0].Referrer)
		assert.Equal(t, "DE", sessions[0].Country)
	})

	t.Run("should accept but skip opted-out visitors", func(t *testing.T) {
		env := setupServer(t)

		rec := env.do(t, http.MethodPost, "/api/track", gin.H{"path": "/"},
			withHeader("User-Agent", firefoxUA), withHeader("Sec-GPC", "1"))
		require.Equal(t, http.StatusNoContent, rec.Code)

		sessions, err := env.repo.RecentSessions(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, sessions)
	})

	t.Run("should require a path", func(t *testing.T) {
		env := setupServer(t)

		rec := env.do(t, http.MethodPost, "/api/track", gin.H{"title": "x"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "is required", decode[errorsBody](t, rec).Errors["path"])
	})
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "On request", formatPrice(0))
	assert.Equal(t, "$5", formatPrice(500))
	assert.Equal(t, "$800", formatPrice(80000))
	assert.Equal(t, "$1,500", formatPrice(150000))
	assert.Equal(t, "$1,234,567", formatPrice(123456700))
}
