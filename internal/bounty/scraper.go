// Package bounty aggregates the owner's bug-bounty profiles.
//
// Platforms offer no public API for these figures, so the default scraper
// generates plausible numbers instead of fetching them. Real page metadata
// can be layered on top with OpenGraphScraper.
package bounty

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"github.com/Zachkp/portfolio/internal/domain"
)

// Scraper fetches the current figures of a profile.
type Scraper interface {
	Scrape(ctx context.Context, p *domain.BountyProfile) (*domain.BountySnapshot, error)
}

// ScraperFunc adapts a function to the Scraper interface.
type ScraperFunc func(ctx context.Context, p *domain.BountyProfile) (*domain.BountySnapshot, error)

// Scrape calls f.
func (f ScraperFunc) Scrape(ctx context.Context, p *domain.BountyProfile) (*domain.BountySnapshot, error) {
	return f(ctx, p)
}

// MockScraper produces randomized snapshots that drift upward from the
// stored figures: counters and earnings never decrease and the rank never
// gets worse.
type MockScraper struct {
	// Seed returns the seed of one call. Defaults to the profile ID mixed with the clock.
	Seed func(p *domain.BountyProfile) uint64
}

// severities with the chance of a new finding per draw and the payout range in dollars.
var severities = []struct {
	chance float64
	payout [2]float64
}{
	{0.05, [2]float64{2000, 5000}}, // critical
	{0.2, [2]float64{500, 1500}},   // high
	{0.4, [2]float64{150, 500}},    // medium
	{0.5, [2]float64{50, 150}},     // low
}

// Scrape implements Scraper.
func (m MockScraper) Scrape(ctx context.Context, p *domain.BountyProfile) (*domain.BountySnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seed := m.seed(p)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	snap := p.Snapshot()
	if snap.DisplayName == "" {
		snap.DisplayName = p.Username
	}

	counts := []*int{&snap.Critical, &snap.High, &snap.Medium, &snap.Low}
	gained := 0
	for i, sev := range severities {
		n := bump(rng, sev.chance)
		*counts[i] += n
		gained += n
		lo, hi := sev.payout[0], sev.payout[1]
		for j := 0; j < n; j++ {
			snap.Earnings += math.Round(lo + rng.Float64()*(hi-lo))
		}
	}
	snap.Reputation += rng.IntN(10) + gained*7

	if snap.Rank <= 0 {
		snap.Rank = 1000 + rng.IntN(9000)
	} else if gained > 0 {
		snap.Rank = max(1, snap.Rank-rng.IntN(gained*25+1))
	}
	if rng.Float64() < 0.05 {
		snap.HallOfFame++
	}

	// Signal and impact are averages, so they wander within their bounds.
	snap.Signal = clamp(snap.Signal+rng.Float64()-0.4, 0, 7)
	snap.Impact = clamp(snap.Impact+rng.Float64()*4-1.5, 0, 50)
	snap.Signal = math.Round(snap.Signal*100) / 100
	snap.Impact = math.Round(snap.Impact*100) / 100
	return &snap, nil
}

func (m MockScraper) seed(p *domain.BountyProfile) uint64 {
	if m.Seed != nil {
		return m.Seed(p)
	}
	h := fnv.New64a()
	h.Write([]byte(p.ID))
	return h.Sum64() ^ uint64(time.Now().UnixNano())
}

// bump returns how many new findings of a severity arrived, 0 to 2.
func bump(rng *rand.Rand, p float64) int {
	n := 0
	for i := 0; i < 2; i++ {
		if rng.Float64() < p {
			n++
		}
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
