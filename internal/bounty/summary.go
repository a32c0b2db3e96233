package bounty

import (
	"math"
	"time"

	"github.com/Zachkp/portfolio/internal/domain"
)

// Summary aggregates the figures of several profiles for public display.
type Summary struct {
	Platforms     int        `json:"platforms"`
	Reputation    int        `json:"reputation"`
	BugsFound     int        `json:"bugs_found"`
	Critical      int        `json:"critical"`
	High          int        `json:"high"`
	Medium        int        `json:"medium"`
	Low           int        `json:"low"`
	Earnings      float64    `json:"earnings"`
	HallOfFame    int        `json:"hall_of_fame"`
	BestRank      int        `json:"best_rank,omitempty"`
	AverageSignal float64    `json:"average_signal"`
	LastSyncedAt  *time.Time `json:"last_synced_at,omitempty"`
}

// Summarize totals the profiles. Ranks are not comparable across
// platforms, so only the best one is kept.
func Summarize(profiles []*domain.BountyProfile) Summary {
	var s Summary
	var signal float64
	for _, p := range profiles {
		s.Platforms++
		s.Reputation += p.Reputation
		s.Critical += p.Critical
		s.High += p.High
		s.Medium += p.Medium
		s.Low += p.Low
		s.Earnings += p.Earnings
		s.HallOfFame += p.HallOfFame
		signal += p.Signal
		if p.Rank > 0 && (s.BestRank == 0 || p.Rank < s.BestRank) {
			s.BestRank = p.Rank
		}
		if p.LastSyncedAt != nil && (s.LastSyncedAt == nil || p.LastSyncedAt.After(*s.LastSyncedAt)) {
			t := *p.LastSyncedAt
			s.LastSyncedAt = &t
		}
	}
	s.BugsFound = s.Critical + s.High + s.Medium + s.Low
	if s.Platforms > 0 {
		s.AverageSignal = math.Round(signal/float64(s.Platforms)*100) / 100
	}
	return s
}
