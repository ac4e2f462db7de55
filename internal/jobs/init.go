package jobs

import (
	"context"
	"time"

	"skydeck/flightdeck/internal/config"
	"skydeck/flightdeck/internal/directory"
	"skydeck/flightdeck/internal/metrics"
	"skydeck/flightdeck/internal/providers"
	"skydeck/flightdeck/internal/services"
)

// InitializeJobs initializes and starts all background jobs
func InitializeJobs(
	ctx context.Context,
	cfg *config.Config,
	flights *services.FlightService,
	auto *providers.AutoProvider,
	cadence *services.CadencePolicy,
	dir *directory.Service,
	m *metrics.MetricsRegistry,
) *StatusRefreshJob {
	refreshJob := NewStatusRefreshJob(
		flights,
		auto,
		cadence,
		m,
		cfg.MaxConcurrent,
		cfg.PositionEnabled,
		cfg.AutoRemove,
		time.Duration(cfg.PruneCutoffHours)*time.Hour,
		cfg.SweepTick,
	)
	go refreshJob.RunScheduled(ctx, cfg.SweepTick)

	directoryJob := NewDirectoryRefreshJob(dir)
	go directoryJob.RunScheduled(ctx, cfg.DirectoryRefreshTick)

	return refreshJob
}
