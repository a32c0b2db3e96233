package analytics

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Zachkp/portfolio/internal/domain"
)

// DefaultRetentionMonths is how long visit data is kept.
const DefaultRetentionMonths = 12

// Cleanup deletes sessions last seen more than months ago, page views included.
func Cleanup(ctx context.Context, repo domain.VisitorRepository, months int, now time.Time, log zerolog.Logger) (int64, error) {
	if months <= 0 {
		months = DefaultRetentionMonths
	}
	cutoff := now.UTC().AddDate(0, -months, 0)

	n, err := repo.DeleteSessionsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info().Int64("sessions", n).Int("months", months).Msg("Privacy cleanup removed old visitor sessions")
	}
	return n, nil
}
