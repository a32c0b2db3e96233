package scheduler

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/portfolio/internal/bounty"
	"github.com/Zachkp/portfolio/internal/domain"
	"github.com/Zachkp/portfolio/internal/store"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run() error {
	j.runs.Add(1)
	return j.err
}

type panickingJob struct{}

func (panickingJob) Name() string { return "exploding" }

func (panickingJob) Run() error { panic("job exploded") }

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(zerolog.Nop())

	t.Run("should reject invalid schedules", func(t *testing.T) {
		assert.Error(t, s.AddJob("not a schedule", &countingJob{}))
	})

	t.Run("should run registered jobs", func(t *testing.T) {
		job := &countingJob{}
		require.NoError(t, s.AddJob("@every 1s", job))

		s.Start()
		defer s.Stop()

		assert.Eventually(t, func() bool { return job.runs.Load() > 0 }, 5*time.Second, 50*time.Millisecond)
	})
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(zerolog.Nop())
	boom := errors.New("boom")

	job := &countingJob{err: boom}
	assert.ErrorIs(t, s.RunNow(job), boom)
	assert.Equal(t, int32(1), job.runs.Load())
}

func TestScheduler_JobPanics(t *testing.T) {
	t.Run("scheduled job panic is logged", func(t *testing.T) {
		var out syncBuffer
		s := New(zerolog.New(&out))
		require.NoError(t, s.AddJob("@every 1s", panickingJob{}))

		s.Start()
		defer s.Stop()

		assert.Eventually(t, func() bool {
			logs := out.String()
			return strings.Contains(logs, "Job panicked") && strings.Contains(logs, "job exploded")
		}, 5*time.Second, 50*time.Millisecond)
	})

	t.Run("run now returns the panic as an error", func(t *testing.T) {
		var out syncBuffer
		s := New(zerolog.New(&out))

		err := s.RunNow(panickingJob{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "job exploded")
		assert.Contains(t, out.String(), `"job":"exploding"`)
	})
}

func setupRepo(t *testing.T) *store.Repository {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	repo := store.NewRepository(db)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestBountySyncJob(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	require.NoError(t, repo.CreateProfile(ctx, &domain.BountyProfile{Platform: domain.PlatformHackerOne, Username: "zachkp", Active: true}))

	job := NewBountySyncJob(bounty.NewSyncer(repo, bounty.MockScraper{}, zerolog.Nop()), zerolog.Nop())
	assert.Equal(t, "bounty_sync", job.Name())
	require.NoError(t, job.Run())

	runs, err := repo.ListSyncRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, bounty.TriggerCron, runs[0].Trigger)
	assert.Equal(t, 1, runs[0].Updated)
}

func TestRetentionCleanupJob(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	_, _, err := repo.RecordHit(ctx, &domain.Hit{Fingerprint: "old", Path: "/", At: now.AddDate(-2, 0, 0)}, time.Minute)
	require.NoError(t, err)
	_, _, err = repo.RecordHit(ctx, &domain.Hit{Fingerprint: "new", Path: "/", At: now.AddDate(0, -2, 0)}, time.Minute)
	require.NoError(t, err)

	job := NewRetentionCleanupJob(repo, 12, zerolog.Nop())
	job.now = func() time.Time { return now }
	require.NoError(t, job.Run())

	sessions, err := repo.RecentSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "new", sessions[0].Fingerprint)
}
