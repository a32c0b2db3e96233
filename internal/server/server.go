// Package server wires the HTTP surface of the portfolio: the server-rendered
// marketing pages, the public JSON API, the admin back-office API and the
// cron trigger.
package server

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/Zachkp/portfolio/internal/analytics"
	"github.com/Zachkp/portfolio/internal/auth"
	"github.com/Zachkp/portfolio/internal/bounty"
	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/domain"
	"github.com/Zachkp/portfolio/internal/mail"
	"github.com/Zachkp/portfolio/internal/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Store is the data layer the handlers run against.
type Store interface {
	domain.ProjectRepository
	domain.ServiceRepository
	domain.InquiryRepository
	domain.VisitorRepository
	domain.BountyRepository

	Ping(ctx context.Context) error
}

// Deps are the collaborators of the server.
type Deps struct {
	Config   *config.Config
	Store    Store
	Auth     *auth.Service
	Tracker  *analytics.Tracker
	Reporter *analytics.Reporter
	Syncer   *bounty.Syncer
	Mailer   mail.Mailer
	Log      zerolog.Logger
}

// Server serves the site and its APIs.
type Server struct {
	cfg      *config.Config
	store    Store
	auth     *auth.Service
	tracker  *analytics.Tracker
	reporter *analytics.Reporter
	syncer   *bounty.Syncer
	mailer   mail.Mailer
	log      zerolog.Logger

	engine    *gin.Engine
	startedAt time.Time
	dbSize    func() (int64, error)
	mailWG    sync.WaitGroup
}

// New builds the server and registers all routes.
func New(deps Deps) (*Server, error) {
	if deps.Config.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:       deps.Config,
		store:     deps.Store,
		auth:      deps.Auth,
		tracker:   deps.Tracker,
		reporter:  deps.Reporter,
		syncer:    deps.Syncer,
		mailer:    deps.Mailer,
		log:       deps.Log.With().Str("component", "http").Logger(),
		engine:    gin.New(),
		startedAt: time.Now(),
	}
	s.dbSize = s.databaseSize
	if s.mailer == nil {
		s.mailer = mail.NopMailer{Log: s.log}
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	s.engine.SetHTMLTemplate(tmpl)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}

	s.engine.Use(recovery(s.log))
	s.engine.Use(requestLogger(s.log, s.cfg.HashSalt))
	s.engine.Use(observeDuration())
	s.engine.Use(analytics.Middleware(s.tracker))

	s.engine.StaticFS("/static", http.FS(static))
	s.engine.NoRoute(s.notFound)

	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	r := s.engine

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Pages
	r.GET("/", s.handleHome)
	r.GET("/about", s.handleAbout)
	r.GET("/projects", s.handleProjects)
	r.GET("/projects/:slug", s.handleProject)
	r.GET("/services", s.handleServices)
	r.GET("/contact", s.handleContact)
	r.GET("/privacy", s.handlePrivacy)
	r.POST("/contact", s.handleContactSubmit)

	s.setupAdminPages()

	api := r.Group("/api")
	{
		api.GET("/projects", s.handleListProjects)
		api.GET("/projects/:slug", s.handleGetProject)
		api.GET("/services", s.handleListServices)
		api.POST("/contact", s.handleCreateInquiry)
		api.POST("/track", s.handleTrack)
		api.GET("/bounty", s.handleBounty)

		api.POST("/cron/bounty-sync", s.handleCronBountySync)
	}

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", s.handleLogin)
		authGroup.POST("/verify-2fa", s.handleVerifyTwoFactor)
		authGroup.POST("/logout", s.handleLogout)
		authGroup.GET("/me", auth.RequireAdmin(s.auth), s.handleMe)
	}

	admin := api.Group("/admin", auth.RequireAdmin(s.auth))
	{
		admin.GET("/projects", s.handleAdminListProjects)
		admin.POST("/projects", s.handleAdminCreateProject)
		admin.GET("/projects/:id", s.handleAdminGetProject)
		admin.PUT("/projects/:id", s.handleAdminUpdateProject)
		admin.DELETE("/projects/:id", s.handleAdminDeleteProject)

		admin.GET("/services", s.handleAdminListServices)
		admin.POST("/services", s.handleAdminCreateService)
		admin.GET("/services/:id", s.handleAdminGetService)
		admin.PUT("/services/:id", s.handleAdminUpdateService)
		admin.DELETE("/services/:id", s.handleAdminDeleteService)

		admin.GET("/inquiries", s.handleAdminListInquiries)
		admin.GET("/inquiries/counts", s.handleAdminInquiryCounts)
		admin.GET("/inquiries/:id", s.handleAdminGetInquiry)
		admin.PATCH("/inquiries/:id", s.handleAdminUpdateInquiryStatus)
		admin.DELETE("/inquiries/:id", s.handleAdminDeleteInquiry)

		stats := admin.Group("/analytics")
		stats.GET("/overview", s.handleAnalyticsOverview)
		stats.GET("/sources", s.handleAnalyticsSources)
		stats.GET("/timeline", s.handleAnalyticsTimeline)
		stats.GET("/pages", s.handleAnalyticsPages)
		stats.GET("/devices", s.handleAnalyticsDevices)
		stats.GET("/referrers", s.handleAnalyticsReferrers)
		stats.GET("/sessions", s.handleAnalyticsSessions)
		stats.GET("/sessions/:id", s.handleAnalyticsSessionPageViews)

		admin.GET("/bounty/profiles", s.handleAdminListProfiles)
		admin.POST("/bounty/profiles", s.handleAdminCreateProfile)
		admin.GET("/bounty/profiles/:id", s.handleAdminGetProfile)
		admin.PUT("/bounty/profiles/:id", s.handleAdminUpdateProfile)
		admin.DELETE("/bounty/profiles/:id", s.handleAdminDeleteProfile)
		admin.POST("/bounty/sync", s.handleAdminBountySync)
		admin.GET("/bounty/runs", s.handleAdminBountyRuns)

		admin.GET("/system", s.handleSystem)
		admin.POST("/privacy/cleanup", s.handlePrivacyCleanup)
	}
}

// Handler returns the root handler with CORS applied. Without configured
// origins no CORS headers are sent and browsers fall back to same-origin.
func (s *Server) Handler() http.Handler {
	if len(s.cfg.AllowedOrigins) == 0 {
		return s.engine
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})(s.engine)
}

// Wait blocks until background contact emails have been handed off.
func (s *Server) Wait() {
	s.mailWG.Wait()
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.log.Error().Err(err).Msg("Health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
