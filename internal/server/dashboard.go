package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/Zachkp/portfolio/internal/analytics"
	"github.com/Zachkp/portfolio/internal/bounty"
	"github.com/Zachkp/portfolio/internal/domain"
)

// reportRange resolves the range query parameter, answering 400 when unknown.
func (s *Server) reportRange(c *gin.Context) (analytics.Range, bool) {
	rng, err := s.reporter.Range(c.Query("range"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return analytics.Range{}, false
	}
	return rng, true
}

func (s *Server) handleAnalyticsOverview(c *gin.Context) {
	rng, ok := s.reportRange(c)
	if !ok {
		return
	}
	overview, err := s.reporter.Overview(c.Request.Context(), rng)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (s *Server) handleAnalyticsSources(c *gin.Context) {
	rng, ok := s.reportRange(c)
	if !ok {
		return
	}
	sources, err := s.reporter.Sources(c.Request.Context(), rng)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"range": rng, "sources": sources})
}

func (s *Server) handleAnalyticsTimeline(c *gin.Context) {
	rng, ok := s.reportRange(c)
	if !ok {
		return
	}
	timeline, err := s.reporter.Timeline(c.Request.Context(), rng)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, timeline)
}

func (s *Server) handleAnalyticsPages(c *gin.Context) {
	rng, ok := s.reportRange(c)
	if !ok {
		return
	}
	pages, err := s.reporter.TopPages(c.Request.Context(), rng, queryInt(c, "limit", 10, 100))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"range": rng, "pages": pages})
}

func (s *Server) handleAnalyticsDevices(c *gin.Context) {
	rng, ok := s.reportRange(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	out := gin.H{"range": rng}
	for key, dim := range map[string]domain.Dimension{
		"devices":  domain.DimDevice,
		"browsers": domain.DimBrowser,
		"os":       domain.DimOS,
	} {
		shares, err := s.reporter.Breakdown(ctx, dim, rng, 10)
		if err != nil {
			s.respondError(c, err)
			return
		}
		out[key] = shares
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleAnalyticsReferrers(c *gin.Context) {
	rng, ok := s.reportRange(c)
	if !ok {
		return
	}
	referrers, err := s.reporter.TopReferrers(c.Request.Context(), rng, queryInt(c, "limit", 10, 100))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"range": rng, "referrers": referrers})
}

func (s *Server) handleAnalyticsSessions(c *gin.Context) {
	sessions, err := s.reporter.RecentSessions(c.Request.Context(), queryInt(c, "limit", 50, 200))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (s *Server) handleAnalyticsSessionPageViews(c *gin.Context) {
	views, err := s.reporter.SessionPageViews(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page_views": views})
}

func (s *Server) handleAdminBountySync(c *gin.Context) {
	s.runBountySync(c, bounty.TriggerManual)
}

func (s *Server) handleAdminBountyRuns(c *gin.Context) {
	runs, err := s.store.ListSyncRuns(c.Request.Context(), queryInt(c, "limit", 20, 100))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// handleCronBountySync lets an external scheduler trigger a sync. The
// endpoint does not exist unless a cron secret is configured.
func (s *Server) handleCronBountySync(c *gin.Context) {
	if s.cfg.CronSecret == "" {
		s.notFound(c)
		return
	}
	h := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.CronSecret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	s.runBountySync(c, bounty.TriggerHTTP)
}

// bountySyncTimeout bounds a sync started over HTTP. The pass is detached
// from the request so a client hanging up does not cut it short.
const bountySyncTimeout = 2 * time.Minute

func (s *Server) runBountySync(c *gin.Context, trigger string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), bountySyncTimeout)
	defer cancel()

	run, err := s.syncer.Sync(ctx, trigger)
	if errors.Is(err, bounty.ErrSyncInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// systemStatus is the health snapshot shown on the admin dashboard.
type systemStatus struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  float64 `json:"memory_used_mb"`
	HostUptime    uint64  `json:"host_uptime_seconds"`
	Uptime        int64   `json:"uptime_seconds"`
	Goroutines    int     `json:"goroutines"`
	GoVersion     string  `json:"go_version"`
	DBSizeMB      float64 `json:"db_size_mb"`
}

func (s *Server) handleSystem(c *gin.Context) {
	out := systemStatus{
		Uptime:     int64(time.Since(s.startedAt).Seconds()),
		Goroutines: runtime.NumGoroutine(),
		GoVersion:  runtime.Version(),
	}

	if pct, err := cpu.PercentWithContext(c.Request.Context(), 100*time.Millisecond, false); err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
	} else if len(pct) > 0 {
		out.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(c.Request.Context()); err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
	} else {
		out.MemoryPercent = vm.UsedPercent
		out.MemoryUsedMB = float64(vm.Used) / 1024 / 1024
	}
	if up, err := host.UptimeWithContext(c.Request.Context()); err != nil {
		s.log.Warn().Err(err).Msg("Failed to get host uptime")
	} else {
		out.HostUptime = up
	}
	if size, err := s.dbSize(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to get database size")
	} else {
		out.DBSizeMB = float64(size) / 1024 / 1024
	}

	c.JSON(http.StatusOK, out)
}

// databaseSize sums the database file and its write-ahead log.
func (s *Server) databaseSize() (int64, error) {
	var total int64
	for _, suffix := range []string{"", "-wal"} {
		info, err := os.Stat(s.cfg.DatabasePath + suffix)
		if errors.Is(err, os.ErrNotExist) && suffix != "" {
			continue
		}
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}

func (s *Server) handlePrivacyCleanup(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Minute)
	defer cancel()

	n, err := analytics.Cleanup(ctx, s.store, s.cfg.RetentionMonths, time.Now(), s.log)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted_sessions": n, "retention_months": s.cfg.RetentionMonths})
}
