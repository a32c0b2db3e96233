// Package analytics records anonymous visitor sessions and rolls them up
// into the reports shown on the admin dashboard.
//
// Visitors are identified by a salted hash of their address and browser.
// Raw IP addresses never reach the store, requests sending "Do Not Track"
// are ignored, and bots are filtered out before anything is written.
package analytics

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Zachkp/portfolio/internal/domain"
	"github.com/Zachkp/portfolio/internal/metrics"
)

// DefaultSessionWindow is the inactivity gap after which a returning visitor starts a new session.
const DefaultSessionWindow = 30 * time.Minute

// Paths under these prefixes are never tracked.
var excludedPrefixes = []string{"/static/", "/images/", "/admin", "/api/", "/favicon", "/metrics", "/healthz", "/robots.txt"}

// Request describes one page view as seen by the server.
type Request struct {
	IP         string
	UserAgent  string
	Path       string
	Title      string
	Referrer   string
	LandingURL string // path and query of the viewed page, used for UTM parameters
	Host       string // host the site was served on
	Country    string
	DNT        bool
	At         time.Time
}

// Tracker turns requests into recorded hits.
type Tracker struct {
	repo    domain.VisitorRepository
	salt    string
	window  time.Duration
	log     zerolog.Logger
	now     func() time.Time
	pending sync.WaitGroup
}

// NewTracker creates a tracker. A non-positive window uses DefaultSessionWindow.
func NewTracker(repo domain.VisitorRepository, salt string, window time.Duration, log zerolog.Logger) *Tracker {
	if window <= 0 {
		window = DefaultSessionWindow
	}
	return &Tracker{
		repo:   repo,
		salt:   salt,
		window: window,
		log:    log.With().Str("component", "tracker").Logger(),
		now:    time.Now,
	}
}

// Window returns the session window.
func (t *Tracker) Window() time.Duration { return t.window }

// Trackable reports whether a path may be counted at all.
func Trackable(path string) bool {
	if path == "" || !strings.HasPrefix(path, "/") {
		return false
	}
	for _, p := range excludedPrefixes {
		if strings.HasPrefix(path, p) {
			return false
		}
	}
	return true
}

// Track records the request. It returns the session the hit was attached to,
// or nil when the request was skipped.
func (t *Tracker) Track(ctx context.Context, req Request) (*domain.VisitorSession, error) {
	if req.DNT || !Trackable(req.Path) {
		return nil, nil
	}
	ua := ParseUserAgent(req.UserAgent)
	if ua.IsBot() {
		return nil, nil
	}

	at := req.At
	if at.IsZero() {
		at = t.now()
	}
	utm := ParseUTM(req.LandingURL)
	source := ClassifySource(req.Referrer, req.LandingURL, req.Host)

	hit := &domain.Hit{
		Fingerprint:  Fingerprint(t.salt, req.IP, req.UserAgent),
		Path:         req.Path,
		Title:        req.Title,
		ReferrerHost: ReferrerHost(req.Referrer),
		Source:       source,
		UTMSource:    utm.Source,
		UTMMedium:    utm.Medium,
		UTMCampaign:  utm.Campaign,
		Device:       ua.Device,
		Browser:      ua.Browser,
		OS:           ua.OS,
		Country:      strings.ToUpper(strings.TrimSpace(req.Country)),
		At:           at.UTC(),
	}
	// Only external referrers are kept, and without their query string.
	if hit.ReferrerHost != "" && hit.ReferrerHost != normalizeHost(req.Host) {
		hit.Referrer = stripQuery(req.Referrer)
	} else {
		hit.ReferrerHost = ""
	}

	session, created, err := t.repo.RecordHit(ctx, hit, t.window)
	if err != nil {
		return nil, err
	}

	metrics.PageViews.WithLabelValues(session.Source).Inc()
	if created {
		metrics.SessionsStarted.Inc()
	}
	return session, nil
}

// TrackAsync records the request in the background. Errors are logged.
func (t *Tracker) TrackAsync(req Request) {
	t.pending.Add(1)
	go func() {
		defer t.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := t.Track(ctx, req); err != nil {
			t.log.Error().Err(err).Str("path", req.Path).Msg("Error recording visit")
		}
	}()
}

// Wait blocks until all background hits are recorded.
func (t *Tracker) Wait() {
	t.pending.Wait()
}

func stripQuery(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		return raw[:i]
	}
	return raw
}
