package bounty

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Zachkp/portfolio/internal/domain"
	"github.com/Zachkp/portfolio/internal/metrics"
)

// Sync triggers.
const (
	TriggerCron   = "cron"
	TriggerManual = "manual"
	TriggerHTTP   = "http"
	TriggerCLI    = "cli"
)

// ErrSyncInProgress is returned when a sync is requested while another one runs.
var ErrSyncInProgress = errors.New("bounty sync already in progress")

// Syncer refreshes all active profiles through a Scraper.
type Syncer struct {
	repo    domain.BountyRepository
	scraper Scraper
	log     zerolog.Logger
	now     func() time.Time

	mu sync.Mutex
}

// NewSyncer creates a syncer.
func NewSyncer(repo domain.BountyRepository, scraper Scraper, log zerolog.Logger) *Syncer {
	return &Syncer{
		repo:    repo,
		scraper: scraper,
		log:     log.With().Str("component", "bounty").Logger(),
		now:     time.Now,
	}
}

// Sync scrapes every active profile once and records the run. A profile that
// fails to scrape is marked failed and does not stop the others. When ctx ends
// mid-pass the partial run is still recorded and returned with the error.
func (s *Syncer) Sync(ctx context.Context, trigger string) (*domain.BountySyncRun, error) {
	if !s.mu.TryLock() {
		metrics.BountySyncRuns.WithLabelValues("skipped").Inc()
		return nil, ErrSyncInProgress
	}
	defer s.mu.Unlock()

	run := &domain.BountySyncRun{Trigger: trigger, StartedAt: s.now().UTC()}
	profiles, err := s.repo.ListProfiles(ctx, true)
	if err != nil {
		metrics.BountySyncRuns.WithLabelValues("error").Inc()
		return nil, err
	}

	var interrupted error
	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			interrupted = err
			break
		}
		if err := s.syncProfile(ctx, p); err != nil {
			run.Failed++
			s.log.Warn().Err(err).Str("platform", p.Platform).Str("username", p.Username).Msg("Profile sync failed")
			if mErr := s.repo.MarkSyncFailed(ctx, p.ID, err.Error(), s.now().UTC()); mErr != nil {
				s.log.Error().Err(mErr).Str("profile", p.ID).Msg("Error recording sync failure")
			}
			continue
		}
		run.Updated++
	}

	run.FinishedAt = s.now().UTC()
	if err := s.repo.CreateSyncRun(context.WithoutCancel(ctx), run); err != nil {
		metrics.BountySyncRuns.WithLabelValues("error").Inc()
		return nil, err
	}

	if interrupted != nil {
		metrics.BountySyncRuns.WithLabelValues("error").Inc()
		s.log.Warn().
			Str("trigger", trigger).
			Int("updated", run.Updated).
			Int("failed", run.Failed).
			Int("skipped", len(profiles)-run.Updated-run.Failed).
			Msg("Bounty sync interrupted")
		return run, fmt.Errorf("bounty sync interrupted: %w", interrupted)
	}

	status := "ok"
	if run.Failed > 0 {
		status = "partial"
	}
	metrics.BountySyncRuns.WithLabelValues(status).Inc()
	s.log.Info().
		Str("trigger", trigger).
		Int("updated", run.Updated).
		Int("failed", run.Failed).
		Dur("took", run.FinishedAt.Sub(run.StartedAt)).
		Msg("Bounty sync finished")
	return run, nil
}

func (s *Syncer) syncProfile(ctx context.Context, p *domain.BountyProfile) error {
	snap, err := s.scraper.Scrape(ctx, p)
	if err != nil {
		return err
	}
	return s.repo.ApplySnapshot(ctx, p.ID, snap, s.now().UTC())
}
