package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Zachkp/portfolio/internal/domain"
)

// dbSession represents a visitor session as stored in the database.
type dbSession struct {
	ID           string `db:"id"`
	Fingerprint  string `db:"fingerprint"`
	StartedAt    int64  `db:"started_at"`
	LastSeenAt   int64  `db:"last_seen_at"`
	PageViews    int    `db:"page_views"`
	EntryPage    string `db:"entry_page"`
	ExitPage     string `db:"exit_page"`
	Referrer     string `db:"referrer"`
	ReferrerHost string `db:"referrer_host"`
	Source       string `db:"source"`
	UTMSource    string `db:"utm_source"`
	UTMMedium    string `db:"utm_medium"`
	UTMCampaign  string `db:"utm_campaign"`
	Device       string `db:"device"`
	Browser      string `db:"browser"`
	OS           string `db:"os"`
	Country      string `db:"country"`
}

func toDomainSession(s *dbSession) *domain.VisitorSession {
	return &domain.VisitorSession{
		ID:           s.ID,
		Fingerprint:  s.Fingerprint,
		StartedAt:    fromMillis(s.StartedAt),
		LastSeenAt:   fromMillis(s.LastSeenAt),
		PageViews:    s.PageViews,
		EntryPage:    s.EntryPage,
		ExitPage:     s.ExitPage,
		Referrer:     s.Referrer,
		ReferrerHost: s.ReferrerHost,
		Source:       s.Source,
		UTMSource:    s.UTMSource,
		UTMMedium:    s.UTMMedium,
		UTMCampaign:  s.UTMCampaign,
		Device:       s.Device,
		Browser:      s.Browser,
		OS:           s.OS,
		Country:      s.Country,
	}
}

// dbPageView represents a page view as stored in the database.
type dbPageView struct {
	ID        string `db:"id"`
	SessionID string `db:"session_id"`
	Path      string `db:"path"`
	Title     string `db:"title"`
	ViewedAt  int64  `db:"viewed_at"`
}

const sessionColumns = `id, fingerprint, started_at, last_seen_at, page_views, entry_page, exit_page,
	referrer, referrer_host, source, utm_source, utm_medium, utm_campaign, device, browser, os, country`

// RecordHit upserts the session of hit.Fingerprint and appends a page view, in one transaction.
func (repo *Repository) RecordHit(ctx context.Context, hit *domain.Hit, window time.Duration) (*domain.VisitorSession, bool, error) {
	at := hit.At
	if at.IsZero() {
		at = time.Now()
	}
	atMs := toMillis(at)

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("beginning hit transaction: %w", err)
	}
	defer tx.Rollback()

	var row dbSession
	err = tx.GetContext(ctx, &row, `
		SELECT `+sessionColumns+` FROM visitor_sessions
		WHERE fingerprint = ? AND last_seen_at >= ?
		ORDER BY last_seen_at DESC LIMIT 1`,
		hit.Fingerprint, toMillis(at.Add(-window)))

	created := false
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id, err := newID()
		if err != nil {
			return nil, false, err
		}
		row = dbSession{
			ID:           id,
			Fingerprint:  hit.Fingerprint,
			StartedAt:    atMs,
			LastSeenAt:   atMs,
			PageViews:    1,
			EntryPage:    hit.Path,
			ExitPage:     hit.Path,
			Referrer:     hit.Referrer,
			ReferrerHost: hit.ReferrerHost,
			Source:       hit.Source,
			UTMSource:    hit.UTMSource,
			UTMMedium:    hit.UTMMedium,
			UTMCampaign:  hit.UTMCampaign,
			Device:       hit.Device,
			Browser:      hit.Browser,
			OS:           hit.OS,
			Country:      hit.Country,
		}
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO visitor_sessions (`+sessionColumns+`)
			VALUES (:id, :fingerprint, :started_at, :last_seen_at, :page_views, :entry_page, :exit_page,
				:referrer, :referrer_host, :source, :utm_source, :utm_medium, :utm_campaign,
				:device, :browser, :os, :country)`, &row)
		if err != nil {
			return nil, false, fmt.Errorf("creating session: %w", err)
		}
		created = true

	case err != nil:
		return nil, false, fmt.Errorf("finding session: %w", err)

	default:
		// A late hit never moves the session backwards.
		_, err = tx.ExecContext(ctx, `
			UPDATE visitor_sessions SET
				page_views = page_views + 1,
				exit_page = CASE WHEN ? >= last_seen_at THEN ? ELSE exit_page END,
				last_seen_at = MAX(last_seen_at, ?)
			WHERE id = ?`, atMs, hit.Path, atMs, row.ID)
		if err != nil {
			return nil, false, fmt.Errorf("extending session %s: %w", row.ID, err)
		}
		row.PageViews++
		if atMs >= row.LastSeenAt {
			row.ExitPage = hit.Path
			row.LastSeenAt = atMs
		}
	}

	viewID, err := newID()
	if err != nil {
		return nil, false, err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO page_views (id, session_id, path, title, viewed_at) VALUES (?, ?, ?, ?, ?)`,
		viewID, row.ID, hit.Path, hit.Title, atMs)
	if err != nil {
		return nil, false, fmt.Errorf("recording page view: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("committing hit: %w", err)
	}
	return toDomainSession(&row), created, nil
}

// OverviewCounts returns the totals of sessions started in [from, to) and of page views viewed in it.
func (repo *Repository) OverviewCounts(ctx context.Context, from, to time.Time) (*domain.OverviewCounts, error) {
	var out domain.OverviewCounts
	err := repo.db.GetContext(ctx, &out, `
		SELECT
			COUNT(*) AS sessions,
			COUNT(DISTINCT fingerprint) AS unique_visitors,
			0 AS page_views,
			COALESCE(SUM(CASE WHEN page_views = 1 THEN 1 ELSE 0 END), 0) AS bounces,
			COALESCE(SUM(last_seen_at - started_at), 0) / 1000.0 AS duration_seconds
		FROM visitor_sessions
		WHERE started_at >= ? AND started_at < ?`, toMillis(from), toMillis(to))
	if err != nil {
		return nil, fmt.Errorf("getting session totals: %w", err)
	}

	err = repo.db.GetContext(ctx, &out.PageViews,
		`SELECT COUNT(*) FROM page_views WHERE viewed_at >= ? AND viewed_at < ?`, toMillis(from), toMillis(to))
	if err != nil {
		return nil, fmt.Errorf("getting page view total: %w", err)
	}
	return &out, nil
}

// CountSessionsBy groups the sessions started in [from, to) by dim, largest groups first.
// Empty values are reported as "unknown", except for referrers where they mean
// "no referrer" and are left out.
func (repo *Repository) CountSessionsBy(ctx context.Context, dim domain.Dimension, from, to time.Time, limit int) ([]domain.Count, error) {
	if !dim.Valid() {
		return nil, fmt.Errorf("invalid dimension %q", dim)
	}
	if limit <= 0 {
		limit = 10
	}
	col := string(dim)
	expr := `COALESCE(NULLIF(` + col + `, ''), 'unknown')`
	where := `started_at >= ? AND started_at < ?`
	if dim == domain.DimReferrer {
		where += ` AND referrer_host != ''`
	}

	rows := []domain.Count{}
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT `+expr+` AS "key", COUNT(*) AS "count"
		FROM visitor_sessions
		WHERE `+where+`
		GROUP BY `+expr+`
		ORDER BY COUNT(*) DESC, `+expr+`
		LIMIT ?`, toMillis(from), toMillis(to), limit)
	if err != nil {
		return nil, fmt.Errorf("counting sessions by %s: %w", dim, err)
	}
	return rows, nil
}

// TopPages returns the most viewed paths in [from, to).
func (repo *Repository) TopPages(ctx context.Context, from, to time.Time, limit int) ([]domain.PageCount, error) {
	if limit <= 0 {
		limit = 10
	}
	rows := []domain.PageCount{}
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT pv.path AS path, COUNT(*) AS views, COUNT(DISTINCT s.fingerprint) AS unique_visitors
		FROM page_views pv
		JOIN visitor_sessions s ON s.id = pv.session_id
		WHERE pv.viewed_at >= ? AND pv.viewed_at < ?
		GROUP BY pv.path
		ORDER BY views DESC, pv.path
		LIMIT ?`, toMillis(from), toMillis(to), limit)
	if err != nil {
		return nil, fmt.Errorf("getting top pages: %w", err)
	}
	return rows, nil
}

// SessionStartTimes returns the start time of every session started in [from, to).
func (repo *Repository) SessionStartTimes(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	return repo.times(ctx, `SELECT started_at FROM visitor_sessions WHERE started_at >= ? AND started_at < ? ORDER BY started_at`, from, to)
}

// PageViewTimes returns the time of every page view in [from, to).
func (repo *Repository) PageViewTimes(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	return repo.times(ctx, `SELECT viewed_at FROM page_views WHERE viewed_at >= ? AND viewed_at < ? ORDER BY viewed_at`, from, to)
}

func (repo *Repository) times(ctx context.Context, query string, from, to time.Time) ([]time.Time, error) {
	var ms []int64
	if err := repo.db.SelectContext(ctx, &ms, query, toMillis(from), toMillis(to)); err != nil {
		return nil, fmt.Errorf("getting timestamps: %w", err)
	}
	out := make([]time.Time, len(ms))
	for i, m := range ms {
		out[i] = fromMillis(m)
	}
	return out, nil
}

// CountActiveSessions counts sessions seen at or after since.
func (repo *Repository) CountActiveSessions(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := repo.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM visitor_sessions WHERE last_seen_at >= ?`, toMillis(since))
	if err != nil {
		return 0, fmt.Errorf("counting active sessions: %w", err)
	}
	return n, nil
}

// RecentSessions returns the most recently active sessions.
func (repo *Repository) RecentSessions(ctx context.Context, limit int) ([]*domain.VisitorSession, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []*dbSession
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+sessionColumns+` FROM visitor_sessions ORDER BY last_seen_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent sessions: %w", err)
	}
	out := make([]*domain.VisitorSession, len(rows))
	for i, row := range rows {
		out[i] = toDomainSession(row)
	}
	return out, nil
}

// GetSessionPageViews returns the page views of a session in the order they happened.
func (repo *Repository) GetSessionPageViews(ctx context.Context, sessionID string) ([]*domain.PageView, error) {
	var rows []*dbPageView
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT id, session_id, path, title, viewed_at FROM page_views WHERE session_id = ? ORDER BY viewed_at, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing page views of %s: %w", sessionID, err)
	}
	out := make([]*domain.PageView, len(rows))
	for i, row := range rows {
		out[i] = &domain.PageView{
			ID:        row.ID,
			SessionID: row.SessionID,
			Path:      row.Path,
			Title:     row.Title,
			ViewedAt:  fromMillis(row.ViewedAt),
		}
	}
	return out, nil
}

// DeleteSessionsBefore removes sessions last seen before t and their page views.
func (repo *Repository) DeleteSessionsBefore(ctx context.Context, t time.Time) (int64, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning cleanup transaction: %w", err)
	}
	defer tx.Rollback()

	cutoff := toMillis(t)
	_, err = tx.ExecContext(ctx, `
		DELETE FROM page_views
		WHERE session_id IN (SELECT id FROM visitor_sessions WHERE last_seen_at < ?)`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting old page views: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM visitor_sessions WHERE last_seen_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting old sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("fetching rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing cleanup: %w", err)
	}
	return n, nil
}
