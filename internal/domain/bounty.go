package domain

import (
	"context"
	"time"
)

// Bug-bounty platforms a profile can live on.
const (
	PlatformHackerOne = "hackerone"
	PlatformBugcrowd  = "bugcrowd"
	PlatformIntigriti = "intigriti"
	PlatformYesWeHack = "yeswehack"
	PlatformSynack    = "synack"
)

// Platforms lists the supported platforms.
var Platforms = []string{PlatformHackerOne, PlatformBugcrowd, PlatformIntigriti, PlatformYesWeHack, PlatformSynack}

// Sync statuses of a bounty profile.
const (
	SyncPending = "pending"
	SyncOK      = "ok"
	SyncError   = "error"
)

// BountyRepository stores bug-bounty profiles and the history of sync runs.
type BountyRepository interface {
	ListProfiles(ctx context.Context, activeOnly bool) ([]*BountyProfile, error)
	GetProfile(ctx context.Context, id string) (*BountyProfile, error)
	CreateProfile(ctx context.Context, p *BountyProfile) error
	UpdateProfile(ctx context.Context, p *BountyProfile) error
	DeleteProfile(ctx context.Context, id string) error

	// ApplySnapshot stores freshly scraped figures and marks the profile synced.
	ApplySnapshot(ctx context.Context, id string, snap *BountySnapshot, at time.Time) error
	// MarkSyncFailed records a failed scrape without touching the figures.
	MarkSyncFailed(ctx context.Context, id string, reason string, at time.Time) error

	CreateSyncRun(ctx context.Context, run *BountySyncRun) error
	ListSyncRuns(ctx context.Context, limit int) ([]*BountySyncRun, error)
}

// BountyProfile is the owner's account on a bug-bounty platform.
type BountyProfile struct {
	ID           string     `json:"id"`
	Platform     string     `json:"platform"`
	Username     string     `json:"username"`
	ProfileURL   string     `json:"profile_url"`
	DisplayName  string     `json:"display_name,omitempty"`
	AvatarURL    string     `json:"avatar_url,omitempty"`
	Bio          string     `json:"bio,omitempty"`
	Reputation   int        `json:"reputation"`
	Rank         int        `json:"rank"`
	Signal       float64    `json:"signal"`
	Impact       float64    `json:"impact"`
	Critical     int        `json:"critical"`
	High         int        `json:"high"`
	Medium       int        `json:"medium"`
	Low          int        `json:"low"`
	Earnings     float64    `json:"earnings"`
	HallOfFame   int        `json:"hall_of_fame"`
	Active       bool       `json:"active"`
	SyncStatus   string     `json:"sync_status"`
	SyncError    string     `json:"sync_error,omitempty"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// BugsFound is the number of reported bugs across severities.
func (p *BountyProfile) BugsFound() int {
	return p.Critical + p.High + p.Medium + p.Low
}

// Snapshot returns the current figures of the profile.
func (p *BountyProfile) Snapshot() BountySnapshot {
	return BountySnapshot{
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
	}
}

// BountySnapshot holds the figures obtained by one scrape of a profile.
type BountySnapshot struct {
	DisplayName string  `json:"display_name,omitempty"`
	AvatarURL   string  `json:"avatar_url,omitempty"`
	Bio         string  `json:"bio,omitempty"`
	Reputation  int     `json:"reputation"`
	Rank        int     `json:"rank"`
	Signal      float64 `json:"signal"`
	Impact      float64 `json:"impact"`
	Critical    int     `json:"critical"`
	High        int     `json:"high"`
	Medium      int     `json:"medium"`
	Low         int     `json:"low"`
	Earnings    float64 `json:"earnings"`
	HallOfFame  int     `json:"hall_of_fame"`
}

// BountySyncRun records one pass of the sync job.
type BountySyncRun struct {
	ID         string    `json:"id"`
	Trigger    string    `json:"trigger"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Updated    int       `json:"updated"`
	Failed     int       `json:"failed"`
}
