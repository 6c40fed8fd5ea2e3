package metrics

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StatsSource provides functions to retrieve current counts for gauge
// metrics. Nil functions are skipped.
type StatsSource struct {
	BlockedUserCount   func() int
	AdminCount         func() int
	PendingReportCount func() int
}

// StartCollector launches a goroutine that periodically updates gauge
// metrics. It runs every interval until the context is cancelled.
func StartCollector(ctx context.Context, src StatsSource, interval time.Duration) {
	collect(src)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				collect(src)
			}
		}
	}()

	log.Info().Dur("interval", interval).Msg("Metrics collector started")
}

func collect(src StatsSource) {
	if src.BlockedUserCount != nil {
		BlockedUsersTotal.Set(float64(src.BlockedUserCount()))
	}
	if src.AdminCount != nil {
		AdminsTotal.Set(float64(src.AdminCount()))
	}
	if src.PendingReportCount != nil {
		PendingReportsTotal.Set(float64(src.PendingReportCount()))
	}
}
