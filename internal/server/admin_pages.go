package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/analytics"
	"github.com/Zachkp/portfolio/internal/auth"
	"github.com/Zachkp/portfolio/internal/domain"
)

const (
	adminLoginPath     = "/admin/login"
	adminDashboardPath = "/admin/dashboard"
)

var dashboardRanges = []string{"24h", "7d", "30d", "90d"}

type loginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

type twoFactorForm struct {
	Challenge string `form:"challenge"`
	Code      string `form:"code"`
}

// timelineBar is one column of the dashboard chart.
type timelineBar struct {
	Label     string
	Sessions  int
	PageViews int
	Height    int // percent of the busiest bucket
}

type statusCount struct {
	Status domain.InquiryStatus
	Count  int
}

func (s *Server) setupAdminPages() {
	r := s.engine

	r.GET("/admin", func(c *gin.Context) { c.Redirect(http.StatusFound, adminDashboardPath) })
	r.GET(adminLoginPath, s.handleAdminLoginPage)
	r.POST(adminLoginPath, s.handleAdminLoginSubmit)
	r.POST("/admin/verify-2fa", s.handleAdminVerifySubmit)
	r.GET("/admin/logout", s.handleAdminLogout)

	pages := r.Group("/admin", auth.RequireAdminPage(s.auth, adminLoginPath))
	pages.GET("/dashboard", s.handleAdminDashboard)
	pages.GET("/visitors", s.handleAdminVisitors)
	pages.GET("/export/stats", s.handleAdminExportStats)
}

func (s *Server) handleAdminLoginPage(c *gin.Context) {
	if _, err := s.auth.Authenticate(auth.TokenFromRequest(c)); err == nil {
		c.Redirect(http.StatusFound, adminDashboardPath)
		return
	}
	s.render(c, http.StatusOK, "admin-login.html", "Admin Login", nil)
}

func (s *Server) handleAdminLoginSubmit(c *gin.Context) {
	var form loginForm
	_ = c.ShouldBind(&form)
	client := analytics.HashIP(s.cfg.HashSalt, c.ClientIP())

	res, err := s.auth.Login(form.Username, form.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.log.Warn().Str("client", client).Msg("Failed admin login attempt")
		s.render(c, http.StatusUnauthorized, "admin-login.html", "Admin Login", gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		s.pageError(c, err)
		return
	}

	if res.RequiresTwoFactor {
		s.render(c, http.StatusOK, "admin-2fa.html", "Verify Login", gin.H{"challenge": res.Challenge})
		return
	}
	s.setSessionCookie(c, res.Token)
	s.log.Info().Str("client", client).Msg("Admin login successful")
	c.Redirect(http.StatusFound, adminDashboardPath)
}

func (s *Server) handleAdminVerifySubmit(c *gin.Context) {
	var form twoFactorForm
	_ = c.ShouldBind(&form)

	res, err := s.auth.VerifyTwoFactor(form.Challenge, form.Code)
	switch {
	case errors.Is(err, auth.ErrInvalidCode):
		s.render(c, http.StatusUnauthorized, "admin-2fa.html", "Verify Login", gin.H{
			"challenge": form.Challenge,
			"error":     "Invalid verification code",
		})
		return
	case errors.Is(err, auth.ErrInvalidToken):
		s.render(c, http.StatusUnauthorized, "admin-login.html", "Admin Login", gin.H{"error": "Verification expired, sign in again"})
		return
	case err != nil:
		s.pageError(c, err)
		return
	}

	s.setSessionCookie(c, res.Token)
	s.log.Info().Str("client", analytics.HashIP(s.cfg.HashSalt, c.ClientIP())).Msg("Admin login successful")
	c.Redirect(http.StatusFound, adminDashboardPath)
}

func (s *Server) handleAdminLogout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(auth.CookieName, "", -1, "/", "", s.cfg.IsProd(), true)
	s.log.Info().Str("client", analytics.HashIP(s.cfg.HashSalt, c.ClientIP())).Msg("Admin logout")
	c.Redirect(http.StatusFound, adminLoginPath)
}

func (s *Server) handleAdminDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	rng, err := s.reporter.Range(c.Query("range"))
	if err != nil {
		rng, _ = s.reporter.Range(analytics.DefaultRange)
	}

	overview, err := s.reporter.Overview(ctx, rng)
	if err != nil {
		s.adminPageError(c, err)
		return
	}
	sources, err := s.reporter.Sources(ctx, rng)
	if err != nil {
		s.adminPageError(c, err)
		return
	}
	timeline, err := s.reporter.Timeline(ctx, rng)
	if err != nil {
		s.adminPageError(c, err)
		return
	}
	sessions, err := s.reporter.RecentSessions(ctx, 10)
	if err != nil {
		s.adminPageError(c, err)
		return
	}
	inquiries, err := s.inquiryCounts(ctx)
	if err != nil {
		s.adminPageError(c, err)
		return
	}

	s.render(c, http.StatusOK, "admin-dashboard.html", "Dashboard", gin.H{
		"selectedRange": rng.Label,
		"ranges":        dashboardRanges,
		"overview":      overview,
		"sources":       sources,
		"timeline":      timelineBars(timeline),
		"interval":      timeline.Interval,
		"sessions":      sessions,
		"inquiries":     inquiries,
	})
}

func (s *Server) handleAdminVisitors(c *gin.Context) {
	sessions, err := s.reporter.RecentSessions(c.Request.Context(), 200)
	if err != nil {
		s.adminPageError(c, err)
		return
	}
	s.render(c, http.StatusOK, "admin-visitors.html", "Visitors", gin.H{"sessions": sessions})
}

// handleAdminExportStats downloads the reports of a range as a JSON file.
func (s *Server) handleAdminExportStats(c *gin.Context) {
	ctx := c.Request.Context()
	rng, ok := s.reportRange(c)
	if !ok {
		return
	}

	overview, err := s.reporter.Overview(ctx, rng)
	if err != nil {
		s.respondError(c, err)
		return
	}
	sources, err := s.reporter.Sources(ctx, rng)
	if err != nil {
		s.respondError(c, err)
		return
	}
	timeline, err := s.reporter.Timeline(ctx, rng)
	if err != nil {
		s.respondError(c, err)
		return
	}
	pages, err := s.reporter.TopPages(ctx, rng, 50)
	if err != nil {
		s.respondError(c, err)
		return
	}
	referrers, err := s.reporter.TopReferrers(ctx, rng, 50)
	if err != nil {
		s.respondError(c, err)
		return
	}
	inquiries, err := s.store.CountInquiriesByStatus(ctx)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=portfolio-stats-"+rng.Label+".json")
	s.log.Info().Str("client", analytics.HashIP(s.cfg.HashSalt, c.ClientIP())).Str("range", rng.Label).Msg("Admin stats exported")
	c.JSON(http.StatusOK, gin.H{
		"exported_at": time.Now().UTC(),
		"overview":    overview,
		"sources":     sources,
		"timeline":    timeline,
		"top_pages":   pages,
		"referrers":   referrers,
		"inquiries":   inquiries,
	})
}

func (s *Server) adminPageError(c *gin.Context, err error) {
	s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Loading admin page failed")
	s.render(c, http.StatusInternalServerError, "admin-error.html", "Admin Error", gin.H{"error": "Failed to load statistics"})
}

func (s *Server) inquiryCounts(ctx context.Context) ([]statusCount, error) {
	counts, err := s.store.CountInquiriesByStatus(ctx)
	if err != nil {
		return nil, err
	}
	statuses := []domain.InquiryStatus{domain.InquiryNew, domain.InquiryRead, domain.InquiryReplied, domain.InquiryArchived}
	out := make([]statusCount, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, statusCount{Status: st, Count: counts[st]})
	}
	return out, nil
}

func timelineBars(tl *analytics.Timeline) []timelineBar {
	layout := "Jan 2"
	if tl.Interval == analytics.IntervalHour {
		layout = "15:04"
	}
	peak := 0
	for _, b := range tl.Buckets {
		peak = max(peak, b.PageViews)
	}
	bars := make([]timelineBar, 0, len(tl.Buckets))
	for _, b := range tl.Buckets {
		bar := timelineBar{Label: b.Start.Format(layout), Sessions: b.Sessions, PageViews: b.PageViews}
		if peak > 0 {
			bar.Height = b.PageViews * 100 / peak
		}
		bars = append(bars, bar)
	}
	return bars
}
