package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Zachkp/portfolio/internal/analytics"
	"github.com/Zachkp/portfolio/internal/bounty"
	"github.com/Zachkp/portfolio/internal/domain"
)

// BountySyncJob refreshes the bug-bounty profiles.
type BountySyncJob struct {
	syncer  *bounty.Syncer
	timeout time.Duration
	log     zerolog.Logger
}

// NewBountySyncJob creates the job.
func NewBountySyncJob(syncer *bounty.Syncer, log zerolog.Logger) *BountySyncJob {
	return &BountySyncJob{
		syncer:  syncer,
		timeout: 5 * time.Minute,
		log:     log.With().Str("job", "bounty_sync").Logger(),
	}
}

// Name returns the job name
func (j *BountySyncJob) Name() string { return "bounty_sync" }

// Run executes one sync pass. A pass skipped because another one is running is not an error.
func (j *BountySyncJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	_, err := j.syncer.Sync(ctx, bounty.TriggerCron)
	if errors.Is(err, bounty.ErrSyncInProgress) {
		j.log.Info().Msg("Previous sync still running, skipping")
		return nil
	}
	return err
}

// RetentionCleanupJob deletes visit data past the retention period.
type RetentionCleanupJob struct {
	repo   domain.VisitorRepository
	months int
	log    zerolog.Logger
	now    func() time.Time
}

// NewRetentionCleanupJob creates the job.
func NewRetentionCleanupJob(repo domain.VisitorRepository, months int, log zerolog.Logger) *RetentionCleanupJob {
	return &RetentionCleanupJob{
		repo:   repo,
		months: months,
		log:    log.With().Str("job", "retention_cleanup").Logger(),
		now:    time.Now,
	}
}

// Name returns the job name
func (j *RetentionCleanupJob) Name() string { return "retention_cleanup" }

// Run executes the cleanup.
func (j *RetentionCleanupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	_, err := analytics.Cleanup(ctx, j.repo, j.months, j.now(), j.log)
	return err
}
