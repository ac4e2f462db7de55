package providers

import (
	"context"
	"log"
	"time"

	"skydeck/flightdeck/internal/constants"
	"skydeck/flightdeck/internal/metrics"
	"skydeck/flightdeck/internal/models"
)

// AutoProvider is the composite provider. For each capability it holds an
// ordered fallback chain; it tries providers in priority order, merges
// partial responses field-by-field, and stops as soon as the capability's
// completeness requirement is met. Provider failures are recorded and
// treated as "no data"; they never propagate as fatal errors.
type AutoProvider struct {
	scheduleChain  []ScheduleProvider
	statusChain    []StatusProvider
	positionChain  []PositionProvider
	directoryChain []DirectoryProvider

	budgets *BudgetRegistry
	timeout time.Duration

	// Metrics is optional; when set, every provider call is counted and timed.
	Metrics *metrics.MetricsRegistry
}

// NewAutoProvider builds the composite. The chains are passed explicitly;
// there is no global provider registry.
func NewAutoProvider(
	schedule []ScheduleProvider,
	status []StatusProvider,
	position []PositionProvider,
	directory []DirectoryProvider,
	budgets *BudgetRegistry,
	timeout time.Duration,
) *AutoProvider {
	if budgets == nil {
		budgets = NewBudgetRegistry()
	}
	if timeout <= 0 {
		timeout = constants.DefaultProviderTimeout
	}
	return &AutoProvider{
		scheduleChain:  schedule,
		statusChain:    status,
		positionChain:  position,
		directoryChain: directory,
		budgets:        budgets,
		timeout:        timeout,
	}
}

// Name returns the provider identifier
func (a *AutoProvider) Name() string { return constants.ProviderAuto }

func (a *AutoProvider) observe(provider, capability string, start time.Time, err error) {
	if a.Metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	a.Metrics.ProviderCallsTotal.WithLabelValues(provider, capability, outcome).Inc()
	a.Metrics.ProviderCallDuration.WithLabelValues(provider, capability).Observe(time.Since(start).Seconds())
}

// Budgets exposes the registry so the scheduler can pre-check before a call.
func (a *AutoProvider) Budgets() *BudgetRegistry { return a.budgets }

// HasStatusProviders reports whether any status provider is configured.
func (a *AutoProvider) HasStatusProviders() bool { return len(a.statusChain) > 0 }

// HasPositionProviders reports whether any position provider is configured.
func (a *AutoProvider) HasPositionProviders() bool { return len(a.positionChain) > 0 }

// ResolveSchedule walks the schedule chain, merging partial results until
// both scheduled times are present.
func (a *AutoProvider) ResolveSchedule(ctx context.Context, airline, number, date, depHint string) (*Schedule, error) {
	if len(a.scheduleChain) == 0 {
		return nil, ErrNoProvider
	}

	var merged *Schedule
	var lastErr error
	deferred := 0

	for _, p := range a.scheduleChain {
		if !a.budgets.For(p.Name()).Allow(time.Now()) {
			deferred++
			continue
		}

		cctx, cancel := context.WithTimeout(ctx, a.timeout)
		start := time.Now()
		res, err := p.ResolveSchedule(cctx, airline, number, date, depHint)
		cancel()
		a.observe(p.Name(), "schedule", start, err)

		if err != nil {
			log.Printf("[AutoProvider] schedule provider %s failed for %s %s: %v", p.Name(), airline, number, err)
			lastErr = err
			continue
		}
		merged = MergeSchedules(merged, res)
		if merged.Complete() {
			return merged, nil
		}
	}

	// Partial data beats nothing; the preview layer decides whether it is
	// enough to confirm.
	if merged != nil {
		return merged, nil
	}
	if deferred > 0 && lastErr == nil {
		return nil, ErrBudgetExhausted
	}
	return nil, &ProviderError{
		Code:    constants.ErrCodeNoMatch,
		Message: constants.GetErrorMessage(constants.ErrCodeNoMatch),
		Err:     lastErr,
	}
}

// ResolveStatus walks the status chain, merging partial snapshots until a
// non-unknown state is reached.
func (a *AutoProvider) ResolveStatus(ctx context.Context, rec *models.FlightRecord) (*StatusSnapshot, error) {
	if len(a.statusChain) == 0 {
		return nil, ErrNoProvider
	}

	var merged *StatusSnapshot
	var lastErr error
	deferred := 0

	for _, p := range a.statusChain {
		if !a.budgets.For(p.Name()).Allow(time.Now()) {
			deferred++
			continue
		}

		cctx, cancel := context.WithTimeout(ctx, a.timeout)
		start := time.Now()
		res, err := p.ResolveStatus(cctx, rec)
		cancel()
		a.observe(p.Name(), "status", start, err)

		if err != nil {
			log.Printf("[AutoProvider] status provider %s failed for %s: %v", p.Name(), rec.Key.String(), err)
			lastErr = err
			continue
		}
		merged = MergeStatus(merged, res)
		if merged.Complete() {
			return merged, nil
		}
	}

	if merged != nil {
		return merged, nil
	}
	if deferred > 0 && lastErr == nil {
		return nil, ErrBudgetExhausted
	}
	return nil, &ProviderError{
		Code:    constants.ErrCodeNoMatch,
		Message: constants.GetErrorMessage(constants.ErrCodeNoMatch),
		Err:     lastErr,
	}
}

// ResolvePosition returns the first successful position fix in the chain.
func (a *AutoProvider) ResolvePosition(ctx context.Context, rec *models.FlightRecord) (*models.Position, error) {
	if len(a.positionChain) == 0 {
		return nil, ErrNoProvider
	}

	var lastErr error
	deferred := 0

	for _, p := range a.positionChain {
		if !a.budgets.For(p.Name()).Allow(time.Now()) {
			deferred++
			continue
		}

		cctx, cancel := context.WithTimeout(ctx, a.timeout)
		start := time.Now()
		pos, err := p.ResolvePosition(cctx, rec)
		cancel()
		a.observe(p.Name(), "position", start, err)

		if err != nil {
			lastErr = err
			continue
		}
		if pos != nil {
			return pos, nil
		}
	}

	if deferred > 0 && lastErr == nil {
		return nil, ErrBudgetExhausted
	}
	return nil, &ProviderError{
		Code:    constants.ErrCodeNoMatch,
		Message: constants.GetErrorMessage(constants.ErrCodeNoMatch),
		Err:     lastErr,
	}
}

// ResolveAirport returns the first successful directory hit in the chain.
func (a *AutoProvider) ResolveAirport(ctx context.Context, iata string) (*models.DirectoryEntry, error) {
	if len(a.directoryChain) == 0 {
		return nil, ErrNoProvider
	}

	var lastErr error
	for _, p := range a.directoryChain {
		if !a.budgets.For(p.Name()).Allow(time.Now()) {
			continue
		}

		cctx, cancel := context.WithTimeout(ctx, a.timeout)
		start := time.Now()
		entry, err := p.ResolveAirport(cctx, iata)
		cancel()
		a.observe(p.Name(), "directory", start, err)

		if err != nil {
			lastErr = err
			continue
		}
		if entry != nil {
			return entry, nil
		}
	}
	return nil, &ProviderError{
		Code:    constants.ErrCodeNoMatch,
		Message: constants.GetErrorMessage(constants.ErrCodeNoMatch),
		Err:     lastErr,
	}
}
