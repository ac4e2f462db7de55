package providers

import (
	"context"
	"time"

	"skydeck/flightdeck/internal/constants"
	"skydeck/flightdeck/internal/models"
)

// LocalStatusProvider derives status purely from the stored schedule without
// any API call, trading live accuracy for zero rate-limit pressure.
type LocalStatusProvider struct {
	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewLocalStatusProvider() *LocalStatusProvider {
	return &LocalStatusProvider{Now: time.Now}
}

// Name returns the provider identifier
func (p *LocalStatusProvider) Name() string { return constants.ProviderLocal }

// ResolveStatus compares the current time against the stored schedule:
// scheduled before departure, active between departure and arrival, landed
// after arrival.
func (p *LocalStatusProvider) ResolveStatus(_ context.Context, rec *models.FlightRecord) (*StatusSnapshot, error) {
	dep := rec.Dep.BestTime()
	arr := rec.Arr.BestTime()
	if dep == nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeIncompleteData,
			Message: "local status needs a scheduled departure time",
		}
	}

	now := p.Now().UTC()
	state := models.StatusUnknown
	switch {
	case now.Before(*dep):
		state = models.StatusScheduled
	case arr != nil && now.Before(*arr):
		state = models.StatusActive
	case arr != nil:
		state = models.StatusLanded
	}

	return &StatusSnapshot{
		Provider:     constants.ProviderLocal,
		State:        state,
		DepScheduled: rec.Dep.Scheduled,
		ArrScheduled: rec.Arr.Scheduled,
		DepIATA:      rec.Dep.Airport.IATA,
		ArrIATA:      rec.Arr.Airport.IATA,
	}, nil
}
