package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"skydeck/flightdeck/internal/logging"
	"skydeck/flightdeck/internal/metrics"
	"skydeck/flightdeck/internal/models"
	"skydeck/flightdeck/internal/providers"
	"skydeck/flightdeck/internal/services"
)

// Sweep trigger labels.
const (
	TriggerScheduled = "scheduled"
	TriggerOnDemand  = "on_demand"
)

// SweepSummary reports what one refresh sweep did. A sweep where every
// attempt was deferred by call budgets has Deferred > 0 and Failed == 0;
// deferrals are not failures.
type SweepSummary struct {
	Scanned  int `json:"scanned"`
	Updated  int `json:"updated"`
	Failed   int `json:"failed"`
	Deferred int `json:"deferred"`
	Pruned   int `json:"pruned"`
}

// StatusRefreshJob sweeps tracked flights whose refresh is due, pulls fresh
// status through the provider chain, and reschedules each flight on the
// cadence ladder. At most one sweep runs at a time; overlapping triggers are
// coalesced into a no-op.
type StatusRefreshJob struct {
	flights *services.FlightService
	auto    *providers.AutoProvider
	cadence *services.CadencePolicy
	metrics *metrics.MetricsRegistry

	maxConcurrent   int
	positionEnabled bool
	autoRemove      bool
	pruneCutoff     time.Duration
	deferRetry      time.Duration

	sweepMu sync.Mutex

	// Now is swappable for tests.
	Now func() time.Time
}

// NewStatusRefreshJob creates a new status refresh job instance
func NewStatusRefreshJob(
	flights *services.FlightService,
	auto *providers.AutoProvider,
	cadence *services.CadencePolicy,
	m *metrics.MetricsRegistry,
	maxConcurrent int,
	positionEnabled bool,
	autoRemove bool,
	pruneCutoff time.Duration,
	deferRetry time.Duration,
) *StatusRefreshJob {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if deferRetry <= 0 {
		deferRetry = 5 * time.Minute
	}
	return &StatusRefreshJob{
		flights:         flights,
		auto:            auto,
		cadence:         cadence,
		metrics:         m,
		maxConcurrent:   maxConcurrent,
		positionEnabled: positionEnabled,
		autoRemove:      autoRemove,
		pruneCutoff:     pruneCutoff,
		deferRetry:      deferRetry,
		Now:             time.Now,
	}
}

// Run executes one sweep over the flights that are due. Returns nil summary
// when another sweep already holds the lock.
func (j *StatusRefreshJob) Run(ctx context.Context, trigger string) (*SweepSummary, error) {
	if !j.sweepMu.TryLock() {
		log.Printf("[StatusRefreshJob] Sweep already running, skipping %s trigger", trigger)
		return nil, nil
	}
	defer j.sweepMu.Unlock()

	now := j.Now().UTC()
	due, err := j.flights.Due(ctx, now)
	if err != nil {
		j.countSweep(trigger, "error")
		return nil, err
	}
	return j.sweep(ctx, trigger, due, now)
}

// RefreshAll refreshes every non-terminal flight immediately, ignoring the
// cadence schedule. Call budgets still apply; an on-demand refresh may come
// back mostly deferred.
func (j *StatusRefreshJob) RefreshAll(ctx context.Context) (*SweepSummary, error) {
	if !j.sweepMu.TryLock() {
		log.Printf("[StatusRefreshJob] Sweep already running, skipping on-demand refresh")
		return nil, nil
	}
	defer j.sweepMu.Unlock()

	now := j.Now().UTC()
	all, err := j.flights.List(ctx)
	if err != nil {
		j.countSweep(TriggerOnDemand, "error")
		return nil, err
	}

	targets := make([]*models.FlightRecord, 0, len(all))
	for _, rec := range all {
		if !rec.Status.Terminal() {
			targets = append(targets, rec)
		}
	}
	return j.sweep(ctx, TriggerOnDemand, targets, now)
}

func (j *StatusRefreshJob) sweep(ctx context.Context, trigger string, targets []*models.FlightRecord, now time.Time) (*SweepSummary, error) {
	start := time.Now()
	sweepID := uuid.New().String()
	slog := logging.WithSweep(sweepID, trigger)
	slog.Infow("Refresh sweep starting", "due", len(targets))

	summary := &SweepSummary{Scanned: len(targets)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.maxConcurrent)
	for _, rec := range targets {
		rec := rec
		g.Go(func() error {
			outcome := j.refreshOne(gctx, rec, now)
			mu.Lock()
			switch outcome {
			case "updated":
				summary.Updated++
			case "deferred":
				summary.Deferred++
			case "failed":
				summary.Failed++
			}
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	if j.autoRemove {
		pruned, err := j.flights.Prune(ctx, j.pruneCutoff, now)
		if err != nil {
			slog.Warnw("Prune pass failed", "error", err)
		}
		summary.Pruned = pruned
	}

	result := "ok"
	if summary.Failed > 0 {
		result = "partial"
	}
	j.countSweep(trigger, result)
	if j.metrics != nil {
		j.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}

	slog.Infow("Refresh sweep finished",
		"scanned", summary.Scanned,
		"updated", summary.Updated,
		"failed", summary.Failed,
		"deferred", summary.Deferred,
		"pruned", summary.Pruned,
		"duration", time.Since(start).Truncate(time.Millisecond).String(),
	)
	return summary, nil
}

// refreshOne pulls status for a single flight and reschedules it. Returns
// one of "updated", "deferred", "failed".
func (j *StatusRefreshJob) refreshOne(ctx context.Context, rec *models.FlightRecord, now time.Time) string {
	snap, err := j.auto.ResolveStatus(ctx, rec)
	if err != nil {
		if providers.IsDeferral(err) {
			// Budget spent: push the flight to a near retry, untouched.
			due := now.Add(j.deferRetry)
			rec.NextDueAt = &due
			if saveErr := j.flights.Save(ctx, rec); saveErr != nil {
				log.Printf("[StatusRefreshJob] Failed to defer %s: %v", rec.Key.String(), saveErr)
			}
			if j.metrics != nil {
				j.metrics.BudgetDeferralsTotal.WithLabelValues(j.auto.Name()).Inc()
			}
			return "deferred"
		}

		log.Printf("[StatusRefreshJob] Refresh failed for %s: %v", rec.Key.String(), err)
		// Keep the last known good record, just reschedule the retry.
		rec.NextDueAt = j.cadence.NextDueAt(rec, now)
		if saveErr := j.flights.Save(ctx, rec); saveErr != nil {
			log.Printf("[StatusRefreshJob] Failed to reschedule %s: %v", rec.Key.String(), saveErr)
		}
		return "failed"
	}

	services.ApplyStatus(rec, snap, now)
	j.flights.EnrichAirports(ctx, rec)
	j.resolvePosition(ctx, rec)
	rec.NextDueAt = j.cadence.NextDueAt(rec, now)

	if err := j.flights.Save(ctx, rec); err != nil {
		log.Printf("[StatusRefreshJob] Failed to save %s: %v", rec.Key.String(), err)
		return "failed"
	}
	return "updated"
}

// resolvePosition attaches a live position fix to airborne flights when a
// position provider is configured. Position is best effort; misses clear a
// stale fix rather than keep it.
func (j *StatusRefreshJob) resolvePosition(ctx context.Context, rec *models.FlightRecord) {
	if !j.positionEnabled || !j.auto.HasPositionProviders() {
		return
	}
	if rec.Status != models.StatusActive {
		rec.Position = nil
		return
	}

	pos, err := j.auto.ResolvePosition(ctx, rec)
	if err != nil {
		if !providers.IsDeferral(err) {
			log.Printf("[StatusRefreshJob] Position lookup failed for %s: %v", rec.Key.String(), err)
		}
		return
	}
	rec.Position = pos
}

// RunScheduled runs the refresh sweep on a fixed tick until ctx is done.
func (j *StatusRefreshJob) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if _, err := j.Run(ctx, TriggerScheduled); err != nil {
		log.Printf("[StatusRefreshJob] Error in initial sweep: %v", err)
	}

	for {
		select {
		case <-ticker.C:
			if _, err := j.Run(ctx, TriggerScheduled); err != nil {
				log.Printf("[StatusRefreshJob] Error in scheduled sweep: %v", err)
			}
		case <-ctx.Done():
			log.Printf("[StatusRefreshJob] Shutting down scheduled refresh")
			return
		}
	}
}

func (j *StatusRefreshJob) countSweep(trigger, result string) {
	if j.metrics != nil {
		j.metrics.RefreshSweepTotal.WithLabelValues(trigger, result).Inc()
	}
}
