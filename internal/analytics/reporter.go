package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Zachkp/portfolio/internal/domain"
)

// ActiveWindow is how recently a session must have been seen to count as active now.
const ActiveWindow = 5 * time.Minute

// Interval lengths of timeline buckets.
const (
	IntervalHour = "hour"
	IntervalDay  = "day"
)

var ranges = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

// DefaultRange is used when no range is requested.
const DefaultRange = "7d"

// Range is a reporting period [From, To).
type Range struct {
	Label string    `json:"label"`
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
}

// ParseRange resolves one of 24h, 7d, 30d or 90d to the period ending at now.
func ParseRange(label string, now time.Time) (Range, error) {
	if label == "" {
		label = DefaultRange
	}
	d, ok := ranges[label]
	if !ok {
		return Range{}, fmt.Errorf("unknown range %q (want 24h, 7d, 30d or 90d)", label)
	}
	now = now.UTC()
	return Range{Label: label, From: now.Add(-d), To: now}, nil
}

// Overview summarises the traffic of a range.
type Overview struct {
	Range           Range   `json:"range"`
	Sessions        int     `json:"sessions"`
	UniqueVisitors  int     `json:"unique_visitors"`
	PageViews       int     `json:"page_views"`
	BounceRate      float64 `json:"bounce_rate"` // percent of single-page sessions
	PagesPerSession float64 `json:"pages_per_session"`
	AvgDuration     float64 `json:"avg_duration_seconds"`
	ActiveNow       int     `json:"active_now"`
}

// Share is a grouped count with its percentage of all sessions in the range.
type Share struct {
	Key     string  `json:"key"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Bucket is one step of a timeline.
type Bucket struct {
	Start     time.Time `json:"start"`
	Sessions  int       `json:"sessions"`
	PageViews int       `json:"page_views"`
}

// Timeline is a gap-free series of buckets covering a range.
type Timeline struct {
	Range    Range    `json:"range"`
	Interval string   `json:"interval"`
	Buckets  []Bucket `json:"buckets"`
}

// Reporter computes dashboard reports from the visitor store.
type Reporter struct {
	repo domain.VisitorRepository
	now  func() time.Time
}

// NewReporter creates a reporter.
func NewReporter(repo domain.VisitorRepository) *Reporter {
	return &Reporter{repo: repo, now: time.Now}
}

// Range resolves a range label against the current time.
func (r *Reporter) Range(label string) (Range, error) {
	return ParseRange(label, r.now())
}

// Overview returns the headline figures of rng.
func (r *Reporter) Overview(ctx context.Context, rng Range) (*Overview, error) {
	counts, err := r.repo.OverviewCounts(ctx, rng.From, rng.To)
	if err != nil {
		return nil, err
	}
	active, err := r.repo.CountActiveSessions(ctx, r.now().Add(-ActiveWindow))
	if err != nil {
		return nil, err
	}

	out := &Overview{
		Range:          rng,
		Sessions:       counts.Sessions,
		UniqueVisitors: counts.UniqueVisitors,
		PageViews:      counts.PageViews,
		ActiveNow:      active,
	}
	if counts.Sessions > 0 {
		n := float64(counts.Sessions)
		out.BounceRate = round(float64(counts.Bounces)/n*100, 1)
		out.PagesPerSession = round(float64(counts.PageViews)/n, 2)
		out.AvgDuration = round(counts.DurationSeconds/n, 1)
	}
	return out, nil
}

// Breakdown groups the sessions of rng by dim.
func (r *Reporter) Breakdown(ctx context.Context, dim domain.Dimension, rng Range, limit int) ([]Share, error) {
	counts, err := r.repo.CountSessionsBy(ctx, dim, rng.From, rng.To, limit)
	if err != nil {
		return nil, err
	}
	totals, err := r.repo.OverviewCounts(ctx, rng.From, rng.To)
	if err != nil {
		return nil, err
	}

	out := make([]Share, len(counts))
	for i, c := range counts {
		out[i] = Share{Key: c.Key, Count: c.Count}
		if totals.Sessions > 0 {
			out[i].Percent = round(float64(c.Count)/float64(totals.Sessions)*100, 1)
		}
	}
	return out, nil
}

// Sources groups the sessions of rng by traffic source.
func (r *Reporter) Sources(ctx context.Context, rng Range) ([]Share, error) {
	return r.Breakdown(ctx, domain.DimSource, rng, 0)
}

// TopReferrers lists the external sites that sent the most sessions.
func (r *Reporter) TopReferrers(ctx context.Context, rng Range, limit int) ([]Share, error) {
	return r.Breakdown(ctx, domain.DimReferrer, rng, limit)
}

// TopPages lists the most viewed paths.
func (r *Reporter) TopPages(ctx context.Context, rng Range, limit int) ([]domain.PageCount, error) {
	return r.repo.TopPages(ctx, rng.From, rng.To, limit)
}

// Timeline buckets sessions and page views of rng by hour for ranges up to
// 48 hours and by day otherwise. Buckets are aligned to UTC and empty ones
// are kept.
func (r *Reporter) Timeline(ctx context.Context, rng Range) (*Timeline, error) {
	starts, err := r.repo.SessionStartTimes(ctx, rng.From, rng.To)
	if err != nil {
		return nil, err
	}
	views, err := r.repo.PageViewTimes(ctx, rng.From, rng.To)
	if err != nil {
		return nil, err
	}

	interval, step := IntervalDay, 24*time.Hour
	if rng.To.Sub(rng.From) <= 48*time.Hour {
		interval, step = IntervalHour, time.Hour
	}

	first := truncate(rng.From, interval)
	var buckets []Bucket
	for t := first; t.Before(rng.To); t = t.Add(step) {
		buckets = append(buckets, Bucket{Start: t})
	}
	index := func(at time.Time) int {
		i := int(truncate(at, interval).Sub(first) / step)
		if i < 0 || i >= len(buckets) {
			return -1
		}
		return i
	}
	for _, at := range starts {
		if i := index(at); i >= 0 {
			buckets[i].Sessions++
		}
	}
	for _, at := range views {
		if i := index(at); i >= 0 {
			buckets[i].PageViews++
		}
	}
	if buckets == nil {
		buckets = []Bucket{}
	}
	return &Timeline{Range: rng, Interval: interval, Buckets: buckets}, nil
}

// RecentSessions lists the latest sessions with their page views.
func (r *Reporter) RecentSessions(ctx context.Context, limit int) ([]*domain.VisitorSession, error) {
	return r.repo.RecentSessions(ctx, limit)
}

// SessionPageViews returns the journey of one session.
func (r *Reporter) SessionPageViews(ctx context.Context, sessionID string) ([]*domain.PageView, error) {
	return r.repo.GetSessionPageViews(ctx, sessionID)
}

func truncate(t time.Time, interval string) time.Time {
	t = t.UTC()
	if interval == IntervalHour {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
