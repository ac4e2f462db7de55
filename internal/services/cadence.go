package services

import (
	"time"

	"skydeck/flightdeck/internal/config"
	"skydeck/flightdeck/internal/models"
)

// CadencePolicy maps a flight's proximity to departure onto a refresh
// interval. Far-out flights are polled rarely, flights around departure and
// in the air are polled tightly, terminal flights are not polled at all.
type CadencePolicy struct {
	thresholds config.CadenceThresholds
	statusTTL  time.Duration
}

// NewCadencePolicy builds a policy. statusTTL floors every interval so the
// scheduler never polls faster than provider data can change.
func NewCadencePolicy(thresholds config.CadenceThresholds, statusTTL time.Duration) *CadencePolicy {
	return &CadencePolicy{thresholds: thresholds, statusTTL: statusTTL}
}

// NextRefreshIn returns how long until the record should be refreshed again.
// The second return is false when the flight needs no further refreshes.
func (p *CadencePolicy) NextRefreshIn(rec *models.FlightRecord, now time.Time) (time.Duration, bool) {
	if rec.Status.Terminal() {
		return 0, false
	}

	t := p.thresholds
	dep := rec.Dep.BestTime()

	if dep == nil {
		return p.floor(t.FallbackInterval), true
	}

	// Status never resolved and the flight should long since have departed:
	// keep retrying at a slower pace instead of hammering providers.
	if (rec.Status == models.StatusUnknown || rec.Status == "") &&
		now.After(dep.Add(t.UnknownPastGrace)) {
		return p.floor(t.UnknownPastRetry), true
	}

	if rec.Status == models.StatusActive {
		return p.floor(t.InFlightInterval), true
	}

	// Boarding window onward is the hot phase; it holds past the expected
	// arrival until a terminal state is confirmed.
	if !now.Before(dep.Add(-t.BoardingWindow)) {
		return p.floor(t.InFlightInterval), true
	}

	until := dep.Sub(now)
	switch {
	case until > t.FarThreshold:
		return p.floor(t.FarInterval), true
	case until > t.DayThreshold:
		return p.floor(t.DayInterval), true
	case until > t.NearThreshold:
		return p.floor(t.NearInterval), true
	case until > t.ApproachThreshold:
		return p.floor(t.ApproachInterval), true
	default:
		return p.floor(t.ImminentInterval), true
	}
}

// NextDueAt applies NextRefreshIn to a concrete timestamp. Returns nil for
// flights that no longer refresh.
func (p *CadencePolicy) NextDueAt(rec *models.FlightRecord, now time.Time) *time.Time {
	interval, ok := p.NextRefreshIn(rec, now)
	if !ok {
		return nil
	}
	due := now.Add(interval)
	return &due
}

func (p *CadencePolicy) floor(d time.Duration) time.Duration {
	if d < p.statusTTL {
		return p.statusTTL
	}
	return d
}
