package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Zachkp/portfolio/internal/domain"
)

// dbBountyProfile represents a bounty profile as stored in the database.
type dbBountyProfile struct {
	ID           string        `db:"id"`
	Platform     string        `db:"platform"`
	Username     string        `db:"username"`
	ProfileURL   string        `db:"profile_url"`
	DisplayName  string        `db:"display_name"`
	AvatarURL    string        `db:"avatar_url"`
	Bio          string        `db:"bio"`
	Reputation   int           `db:"reputation"`
	Rank         int           `db:"platform_rank"`
	Signal       float64       `db:"signal"`
	Impact       float64       `db:"impact"`
	Critical     int           `db:"critical"`
	High         int           `db:"high"`
	Medium       int           `db:"medium"`
	Low          int           `db:"low"`
	Earnings     float64       `db:"earnings"`
	HallOfFame   int           `db:"hall_of_fame"`
	Active       bool          `db:"active"`
	SyncStatus   string        `db:"sync_status"`
	SyncError    string        `db:"sync_error"`
	LastSyncedAt sql.NullInt64 `db:"last_synced_at"`
	CreatedAt    int64         `db:"created_at"`
	UpdatedAt    int64         `db:"updated_at"`
}

func toDomainProfile(p *dbBountyProfile) *domain.BountyProfile {
	out := &domain.BountyProfile{
		ID:          p.ID,
		Platform:    p.Platform,
		Username:    p.Username,
		ProfileURL:  p.ProfileURL,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		Bio:         p.Bio,
		Reputation:  p.Reputation,
		Rank:        p.Rank,
		Signal:      p.Signal,
		Impact:      p.Impact,
		Critical:    p.Critical,
		High:        p.High,
		Medium:      p.Medium,
		Low:         p.Low,
		Earnings:    p.Earnings,
		HallOfFame:  p.HallOfFame,
		Active:      p.Active,
		SyncStatus:  p.SyncStatus,
		SyncError:   p.SyncError,
		CreatedAt:   fromMillis(p.CreatedAt),
		UpdatedAt:   fromMillis(p.UpdatedAt),
	}
	if p.LastSyncedAt.Valid {
		t := fromMillis(p.LastSyncedAt.Int64)
		out.LastSyncedAt = &t
	}
	return out
}

const profileColumns = `id, platform, username, profile_url, display_name, avatar_url, bio, reputation,
	platform_rank, signal, impact, critical, high, medium, low, earnings, hall_of_fame, active,
	sync_status, sync_error, last_synced_at, created_at, updated_at`

// ListProfiles retrieves bounty profiles ordered by platform.
func (repo *Repository) ListProfiles(ctx context.Context, activeOnly bool) ([]*domain.BountyProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM bounty_profiles`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY platform, username`

	var rows []*dbBountyProfile
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("listing bounty profiles: %w", err)
	}
	out := make([]*domain.BountyProfile, len(rows))
	for i, row := range rows {
		out[i] = toDomainProfile(row)
	}
	return out, nil
}

// GetProfile retrieves a bounty profile by ID.
func (repo *Repository) GetProfile(ctx context.Context, id string) (*domain.BountyProfile, error) {
	var row dbBountyProfile
	err := repo.db.GetContext(ctx, &row, `SELECT `+profileColumns+` FROM bounty_profiles WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bounty profile %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting bounty profile %s: %w", id, err)
	}
	return toDomainProfile(&row), nil
}

// CreateProfile inserts a profile in the pending sync state.
func (repo *Repository) CreateProfile(ctx context.Context, p *domain.BountyProfile) error {
	id, err := newID()
	if err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Millisecond)

	_, err = repo.db.ExecContext(ctx, `
		INSERT INTO bounty_profiles (id, platform, username, profile_url, display_name, active,
			sync_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Platform, p.Username, p.ProfileURL, p.DisplayName, p.Active, domain.SyncPending,
		toMillis(now), toMillis(now))
	if isUniqueViolation(err) {
		return fmt.Errorf("bounty profile %s/%s: %w", p.Platform, p.Username, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("creating bounty profile %s/%s: %w", p.Platform, p.Username, err)
	}

	p.ID, p.SyncStatus, p.CreatedAt, p.UpdatedAt = id, domain.SyncPending, now, now
	return nil
}

// UpdateProfile overwrites the editable identity fields of a profile.
// Scraped figures are only changed through ApplySnapshot.
func (repo *Repository) UpdateProfile(ctx context.Context, p *domain.BountyProfile) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	res, err := repo.db.ExecContext(ctx, `
		UPDATE bounty_profiles SET platform = ?, username = ?, profile_url = ?, display_name = ?,
			active = ?, updated_at = ?
		WHERE id = ?`,
		p.Platform, p.Username, p.ProfileURL, p.DisplayName, p.Active, toMillis(now), p.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("bounty profile %s/%s: %w", p.Platform, p.Username, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("updating bounty profile %s: %w", p.ID, err)
	}
	if err := checkAffected(res, "bounty profile", p.ID); err != nil {
		return err
	}
	p.UpdatedAt = now
	return nil
}

// DeleteProfile removes a profile.
func (repo *Repository) DeleteProfile(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM bounty_profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting bounty profile %s: %w", id, err)
	}
	return checkAffected(res, "bounty profile", id)
}

// ApplySnapshot stores scraped figures and marks the profile synced.
// Empty metadata in the snapshot keeps the stored value.
func (repo *Repository) ApplySnapshot(ctx context.Context, id string, snap *domain.BountySnapshot, at time.Time) error {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE bounty_profiles SET
			display_name = COALESCE(NULLIF(?, ''), display_name),
			avatar_url = COALESCE(NULLIF(?, ''), avatar_url),
			bio = COALESCE(NULLIF(?, ''), bio),
			reputation = ?, platform_rank = ?, signal = ?, impact = ?,
			critical = ?, high = ?, medium = ?, low = ?, earnings = ?, hall_of_fame = ?,
			sync_status = ?, sync_error = '', last_synced_at = ?, updated_at = ?
		WHERE id = ?`,
		snap.DisplayName, snap.AvatarURL, snap.Bio,
		snap.Reputation, snap.Rank, snap.Signal, snap.Impact,
		snap.Critical, snap.High, snap.Medium, snap.Low, snap.Earnings, snap.HallOfFame,
		domain.SyncOK, toMillis(at), toMillis(at), id)
	if err != nil {
		return fmt.Errorf("applying snapshot to %s: %w", id, err)
	}
	return checkAffected(res, "bounty profile", id)
}

// MarkSyncFailed records a failed scrape.
func (repo *Repository) MarkSyncFailed(ctx context.Context, id string, reason string, at time.Time) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE bounty_profiles SET sync_status = ?, sync_error = ?, updated_at = ? WHERE id = ?`,
		domain.SyncError, reason, toMillis(at), id)
	if err != nil {
		return fmt.Errorf("marking sync failure of %s: %w", id, err)
	}
	return checkAffected(res, "bounty profile", id)
}

// CreateSyncRun records a finished sync pass.
func (repo *Repository) CreateSyncRun(ctx context.Context, run *domain.BountySyncRun) error {
	id, err := newID()
	if err != nil {
		return err
	}
	_, err = repo.db.ExecContext(ctx, `
		INSERT INTO bounty_sync_runs (id, trigger_source, started_at, finished_at, updated, failed)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, run.Trigger, toMillis(run.StartedAt), toMillis(run.FinishedAt), run.Updated, run.Failed)
	if err != nil {
		return fmt.Errorf("recording sync run: %w", err)
	}
	run.ID = id
	return nil
}

// ListSyncRuns returns the latest sync runs, newest first.
func (repo *Repository) ListSyncRuns(ctx context.Context, limit int) ([]*domain.BountySyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []struct {
		ID         string `db:"id"`
		Trigger    string `db:"trigger_source"`
		StartedAt  int64  `db:"started_at"`
		FinishedAt int64  `db:"finished_at"`
		Updated    int    `db:"updated"`
		Failed     int    `db:"failed"`
	}
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT id, trigger_source, started_at, finished_at, updated, failed
		FROM bounty_sync_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sync runs: %w", err)
	}
	out := make([]*domain.BountySyncRun, len(rows))
	for i, r := range rows {
		out[i] = &domain.BountySyncRun{
			ID:         r.ID,
			Trigger:    r.Trigger,
			StartedAt:  fromMillis(r.StartedAt),
			FinishedAt: fromMillis(r.FinishedAt),
			Updated:    r.Updated,
			Failed:     r.Failed,
		}
	}
	return out, nil
}
