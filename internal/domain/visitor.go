package domain

import (
	"context"
	"time"
)

// Traffic sources a session can be attributed to.
const (
	SourceDirect   = "direct"
	SourceSearch   = "search"
	SourceSocial   = "social"
	SourceEmail    = "email"
	SourceReferral = "referral"
)

// Dimension is a session column the analytics rollups can group by.
type Dimension string

const (
	DimSource   Dimension = "source"
	DimDevice   Dimension = "device"
	DimBrowser  Dimension = "browser"
	DimOS       Dimension = "os"
	DimCountry  Dimension = "country"
	DimReferrer Dimension = "referrer_host"
)

// Valid reports whether d names a groupable column.
func (d Dimension) Valid() bool {
	switch d {
	case DimSource, DimDevice, DimBrowser, DimOS, DimCountry, DimReferrer:
		return true
	}
	return false
}

// VisitorRepository persists anonymous visitor sessions and serves the
// aggregate queries behind the analytics dashboard. Ranges are [from, to).
type VisitorRepository interface {
	// RecordHit attaches the hit to the latest session of its fingerprint
	// when that session was seen within window, or opens a new session.
	// It reports whether a new session was created.
	RecordHit(ctx context.Context, hit *Hit, window time.Duration) (*VisitorSession, bool, error)

	OverviewCounts(ctx context.Context, from, to time.Time) (*OverviewCounts, error)
	CountSessionsBy(ctx context.Context, dim Dimension, from, to time.Time, limit int) ([]Count, error)
	TopPages(ctx context.Context, from, to time.Time, limit int) ([]PageCount, error)
	SessionStartTimes(ctx context.Context, from, to time.Time) ([]time.Time, error)
	PageViewTimes(ctx context.Context, from, to time.Time) ([]time.Time, error)
	CountActiveSessions(ctx context.Context, since time.Time) (int, error)
	RecentSessions(ctx context.Context, limit int) ([]*VisitorSession, error)
	GetSessionPageViews(ctx context.Context, sessionID string) ([]*PageView, error)

	// DeleteSessionsBefore removes sessions last seen before t together with their page views.
	DeleteSessionsBefore(ctx context.Context, t time.Time) (int64, error)
}

// Hit is a single classified page view ready to be recorded.
type Hit struct {
	Fingerprint  string
	Path         string
	Title        string
	Referrer     string
	ReferrerHost string
	Source       string
	UTMSource    string
	UTMMedium    string
	UTMCampaign  string
	Device       string
	Browser      string
	OS           string
	Country      string
	At           time.Time
}

// VisitorSession groups the page views of one fingerprint that are no
// further apart than the session window.
type VisitorSession struct {
	ID           string    `json:"id"`
	Fingerprint  string    `json:"fingerprint"`
	StartedAt    time.Time `json:"started_at"`
	LastSeenAt   time.Time `json:"last_seen_at"`
	PageViews    int       `json:"page_views"`
	EntryPage    string    `json:"entry_page"`
	ExitPage     string    `json:"exit_page"`
	Referrer     string    `json:"referrer,omitempty"`
	ReferrerHost string    `json:"referrer_host,omitempty"`
	Source       string    `json:"source"`
	UTMSource    string    `json:"utm_source,omitempty"`
	UTMMedium    string    `json:"utm_medium,omitempty"`
	UTMCampaign  string    `json:"utm_campaign,omitempty"`
	Device       string    `json:"device"`
	Browser      string    `json:"browser"`
	OS           string    `json:"os"`
	Country      string    `json:"country,omitempty"`
}

// Duration is the time between the first and the last hit of the session.
func (s *VisitorSession) Duration() time.Duration {
	return s.LastSeenAt.Sub(s.StartedAt)
}

// PageView is one recorded hit within a session.
type PageView struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Path      string    `json:"path"`
	Title     string    `json:"title,omitempty"`
	ViewedAt  time.Time `json:"viewed_at"`
}

// OverviewCounts are the raw totals the overview rollup is derived from.
type OverviewCounts struct {
	Sessions        int     `db:"sessions"`
	UniqueVisitors  int     `db:"unique_visitors"`
	PageViews       int     `db:"page_views"`
	Bounces         int     `db:"bounces"`
	DurationSeconds float64 `db:"duration_seconds"`
}

// Count is a grouped session count.
type Count struct {
	Key   string `json:"key" db:"key"`
	Count int    `json:"count" db:"count"`
}

// PageCount is the traffic of a single path.
type PageCount struct {
	Path           string `json:"path" db:"path"`
	Views          int    `json:"views" db:"views"`
	UniqueVisitors int    `json:"unique_visitors" db:"unique_visitors"`
}
