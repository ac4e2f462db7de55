package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"skydeck/flightdeck/internal/db/repositories"
	"skydeck/flightdeck/internal/logging"
	"skydeck/flightdeck/internal/models"
	"skydeck/flightdeck/internal/providers"
)

// scheduleResolver is the slice of the provider surface the preview flow
// needs; only the schedule capability is exercised before confirm.
type scheduleResolver interface {
	ResolveSchedule(ctx context.Context, airline, number, date, depHint string) (*providers.Schedule, error)
}

// PreviewService drives the two-step add-flight workflow: resolve a minimal
// input into a full candidate record, stage it in the single preview slot,
// then persist it on confirm. All slot transitions happen under one mutex so
// a preview and a confirm can never interleave.
type PreviewService struct {
	mu sync.Mutex

	repo     *repositories.PreviewRepository
	flights  *FlightService
	resolver scheduleResolver
	cadence  *CadencePolicy

	daysAhead   int
	includePast time.Duration

	// Now is swappable for tests.
	Now func() time.Time
}

// NewPreviewService creates a new preview service
func NewPreviewService(
	repo *repositories.PreviewRepository,
	flights *FlightService,
	resolver scheduleResolver,
	cadence *CadencePolicy,
	daysAhead int,
	includePastHours int,
) *PreviewService {
	return &PreviewService{
		repo:        repo,
		flights:     flights,
		resolver:    resolver,
		cadence:     cadence,
		daysAhead:   daysAhead,
		includePast: time.Duration(includePastHours) * time.Hour,
		Now:         time.Now,
	}
}

// Current returns the staged preview, or an empty state when none is staged.
func (s *PreviewService) Current(ctx context.Context) (*models.PreviewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return &models.PreviewState{}, nil
	}
	return state, nil
}

// Preview resolves the input into a candidate flight and stages it,
// replacing whatever was staged before. Input problems and provider misses
// are reported inside the returned state, not as errors; only storage
// failures surface as errors.
func (s *PreviewService) Preview(ctx context.Context, input *models.PreviewInput) (*models.PreviewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if input == nil {
		input = &models.PreviewInput{}
	}
	if err := s.repo.SaveLastInput(ctx, input); err != nil {
		logging.Warn("Failed to persist preview input", "error", err)
	}

	state := s.resolve(ctx, input)
	if err := s.repo.Save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Confirm persists the staged flight and clears the slot. Confirming an
// empty slot or a preview that resolved with an error fails.
func (s *PreviewService) Confirm(ctx context.Context) (*models.FlightRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("no preview staged")
	}
	if !state.Ready || state.Flight == nil {
		return nil, fmt.Errorf("preview is not confirmable: %s", state.Error)
	}

	if err := s.flights.Add(ctx, state.Flight); err != nil {
		return nil, err
	}
	if err := s.repo.Clear(ctx); err != nil {
		logging.Warn("Failed to clear preview after confirm", "error", err)
	}

	logging.Info("Flight confirmed", "key", state.Flight.Key.String())
	return state.Flight, nil
}

// AddManual resolves and persists a flight in one step, bypassing the
// preview slot. The staged preview, if any, is left untouched.
func (s *PreviewService) AddManual(ctx context.Context, input *models.PreviewInput) (*models.FlightRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if input == nil {
		input = &models.PreviewInput{}
	}
	state := s.resolve(ctx, input)
	if !state.Ready || state.Flight == nil {
		return nil, fmt.Errorf("cannot add flight: %s (%s)", state.Error, state.Hint)
	}

	if err := s.flights.Add(ctx, state.Flight); err != nil {
		return nil, err
	}
	logging.Info("Flight added", "key", state.Flight.Key.String())
	return state.Flight, nil
}

// Clear discards any staged preview.
func (s *PreviewService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Clear(ctx)
}

func (s *PreviewService) resolve(ctx context.Context, input *models.PreviewInput) *models.PreviewState {
	airline := strings.ToUpper(strings.TrimSpace(input.Airline))
	number := strings.TrimSpace(input.FlightNumber)
	if airline == "" || number == "" {
		airline, number = models.ParseQuery(input.Query)
	}
	if airline == "" || number == "" {
		return &models.PreviewState{
			Error: models.PreviewErrBadQuery,
			Hint:  "enter an airline code and flight number, e.g. AI 157",
			Input: input,
		}
	}

	now := s.Now().UTC()
	date, errState := s.resolveDate(input, now)
	if errState != nil {
		return errState
	}

	depHint := strings.ToUpper(strings.TrimSpace(input.DepAirport))
	sched, err := s.resolver.ResolveSchedule(ctx, airline, number, date, depHint)
	if err != nil || sched == nil {
		if err != nil {
			logging.Warn("Preview schedule lookup failed",
				"airline", airline, "number", number, "date", date, "error", err)
		}
		return &models.PreviewState{
			Error: models.PreviewErrNoMatch,
			Hint:  "no provider returned a schedule for this flight and date",
			Input: input,
		}
	}
	if !sched.Complete() {
		return &models.PreviewState{
			Error: models.PreviewErrIncomplete,
			Hint:  "provider data is missing departure or arrival times",
			Input: input,
		}
	}

	rec := buildRecord(airline, number, date, depHint, input, sched, now)
	s.flights.EnrichAirports(ctx, rec)
	rec.NextDueAt = s.cadence.NextDueAt(rec, now)

	state := &models.PreviewState{
		Ready:  true,
		Input:  input,
		Flight: rec,
	}
	if sched.Ambiguous {
		state.Hint = "multiple routes match this flight number; add a departure airport to pick one"
	}
	return state
}

// resolveDate defaults to today and bounds the date to the tracking window.
func (s *PreviewService) resolveDate(input *models.PreviewInput, now time.Time) (string, *models.PreviewState) {
	raw := strings.TrimSpace(input.Date)
	if raw == "" {
		return now.Format("2006-01-02"), nil
	}

	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return "", &models.PreviewState{
			Error: models.PreviewErrBadDate,
			Hint:  "date must be YYYY-MM-DD",
			Input: input,
		}
	}

	earliest := now.Add(-s.includePast).Truncate(24 * time.Hour).Add(-24 * time.Hour)
	latest := now.AddDate(0, 0, s.daysAhead)
	if parsed.Before(earliest) || parsed.After(latest) {
		return "", &models.PreviewState{
			Error: models.PreviewErrBadDate,
			Hint:  fmt.Sprintf("date must be within the next %d days", s.daysAhead),
			Input: input,
		}
	}
	return raw, nil
}

func buildRecord(airline, number, date, depHint string, input *models.PreviewInput, sched *providers.Schedule, now time.Time) *models.FlightRecord {
	dep := sched.DepAirport
	if dep == "" {
		dep = depHint
	}

	rec := &models.FlightRecord{
		Key: models.FlightKey{
			AirlineCode:   airline,
			FlightNumber:  number,
			DepartureDate: date,
			DepAirport:    dep,
		},
		Origin: models.OriginManual,
		Status: scheduleState(sched.DepScheduled, sched.ArrScheduled, now),
		Dep: models.Leg{
			Airport:   models.Airport{IATA: dep},
			Scheduled: sched.DepScheduled,
		},
		Arr: models.Leg{
			Airport:   models.Airport{IATA: sched.ArrAirport},
			Scheduled: sched.ArrScheduled,
		},
		AircraftType:   sched.AircraftType,
		AirlineName:    sched.AirlineName,
		AirlineLogoURL: models.AirlineLogoURL(airline),
		Travellers:     input.Travellers,
		Notes:          input.Notes,
	}
	return rec
}

// scheduleState derives the state from the schedule alone: scheduled before
// departure, active between departure and arrival, landed after arrival.
// Live providers take over once the flight is confirmed and refreshed.
func scheduleState(dep, arr *time.Time, now time.Time) models.StatusState {
	switch {
	case dep == nil || now.Before(*dep):
		return models.StatusScheduled
	case arr != nil && now.Before(*arr):
		return models.StatusActive
	case arr != nil:
		return models.StatusLanded
	default:
		return models.StatusUnknown
	}
}
