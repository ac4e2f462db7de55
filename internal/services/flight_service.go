package services

import (
	"context"
	"fmt"
	"time"

	"skydeck/flightdeck/internal/db/repositories"
	"skydeck/flightdeck/internal/directory"
	"skydeck/flightdeck/internal/logging"
	"skydeck/flightdeck/internal/metrics"
	"skydeck/flightdeck/internal/models"
	"skydeck/flightdeck/internal/providers"
)

// FlightService owns the manual flight list: add, remove, list, prune, and
// the merge of provider snapshots into stored records.
type FlightService struct {
	repo       *repositories.FlightRepository
	directory  *directory.Service
	metrics    *metrics.MetricsRegistry
	maxFlights int
}

// NewFlightService creates a new flight service
func NewFlightService(
	repo *repositories.FlightRepository,
	dir *directory.Service,
	m *metrics.MetricsRegistry,
	maxFlights int,
) *FlightService {
	return &FlightService{repo: repo, directory: dir, metrics: m, maxFlights: maxFlights}
}

// List returns all tracked flights ordered by departure date.
func (s *FlightService) List(ctx context.Context) ([]*models.FlightRecord, error) {
	return s.repo.GetAll(ctx)
}

// Get returns one flight by canonical key, nil when absent.
func (s *FlightService) Get(ctx context.Context, key string) (*models.FlightRecord, error) {
	return s.repo.GetByKey(ctx, key)
}

// Add stores a flight record, replacing any record with the same key.
// Enforces the tracked-flight cap for genuinely new keys.
func (s *FlightService) Add(ctx context.Context, rec *models.FlightRecord) error {
	if rec == nil {
		return fmt.Errorf("cannot add nil flight")
	}

	if s.maxFlights > 0 {
		existing, err := s.repo.GetByKey(ctx, rec.Key.String())
		if err != nil {
			return err
		}
		if existing == nil {
			count, err := s.repo.Count(ctx)
			if err != nil {
				return err
			}
			if count >= int64(s.maxFlights) {
				return fmt.Errorf("flight limit reached (%d tracked)", s.maxFlights)
			}
		}
	}

	if err := s.repo.Upsert(ctx, rec); err != nil {
		return err
	}
	s.syncTrackedGauge(ctx)
	return nil
}

// Save persists an updated record without the new-flight cap check.
func (s *FlightService) Save(ctx context.Context, rec *models.FlightRecord) error {
	return s.repo.Upsert(ctx, rec)
}

// Remove deletes one flight. Returns whether it existed.
func (s *FlightService) Remove(ctx context.Context, key string) (bool, error) {
	removed, err := s.repo.Delete(ctx, key)
	if err != nil {
		return false, err
	}
	s.syncTrackedGauge(ctx)
	return removed, nil
}

// Clear removes every tracked flight and returns how many were removed.
func (s *FlightService) Clear(ctx context.Context) (int, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.syncTrackedGauge(ctx)
	return n, nil
}

// Count returns the number of tracked flights.
func (s *FlightService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// Due returns the flights whose next refresh is due at or before now.
func (s *FlightService) Due(ctx context.Context, now time.Time) ([]*models.FlightRecord, error) {
	return s.repo.GetDue(ctx, now)
}

// Prune removes landed and cancelled flights whose arrival reference time is
// older than the cutoff. Diverted flights are kept; the traveller should see
// where the flight actually went until they remove it themselves.
func (s *FlightService) Prune(ctx context.Context, cutoff time.Duration, now time.Time) (int, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, rec := range all {
		if rec.Status != models.StatusLanded && rec.Status != models.StatusCancelled {
			continue
		}
		ref := rec.Arr.BestTime()
		if ref == nil {
			ref = rec.Dep.BestTime()
		}
		if ref == nil || now.Sub(*ref) < cutoff {
			continue
		}

		removed, err := s.repo.Delete(ctx, rec.Key.String())
		if err != nil {
			return pruned, err
		}
		if removed {
			pruned++
			logging.Info("Pruned flight", "key", rec.Key.String(), "status", string(rec.Status))
		}
	}

	if pruned > 0 {
		if s.metrics != nil {
			s.metrics.FlightsPrunedTotal.Add(float64(pruned))
		}
		s.syncTrackedGauge(ctx)
	}
	return pruned, nil
}

// ApplyStatus merges a provider snapshot into a stored record in place.
// Provider data fills and overrides flight facts, but the last known good
// state sticks: an unknown snapshot never clobbers a resolved state, and
// manually entered fields are untouched.
func ApplyStatus(rec *models.FlightRecord, snap *providers.StatusSnapshot, now time.Time) {
	if rec == nil || snap == nil {
		return
	}

	if snap.State != models.StatusUnknown && snap.State != "" {
		rec.Status = snap.State
	} else if rec.Status == "" {
		rec.Status = models.StatusUnknown
	}

	applyLeg(&rec.Dep, snap.DepScheduled, snap.DepEstimated, snap.DepActual, snap.DepIATA, snap.DepTerminal, snap.DepGate)
	applyLeg(&rec.Arr, snap.ArrScheduled, snap.ArrEstimated, snap.ArrActual, snap.ArrIATA, snap.ArrTerminal, snap.ArrGate)

	if snap.AirlineName != "" {
		rec.AirlineName = snap.AirlineName
	}
	if snap.AircraftType != "" {
		rec.AircraftType = snap.AircraftType
	}
	if snap.ICAO24 != "" {
		rec.ICAO24 = snap.ICAO24
	}
	if rec.AirlineLogoURL == "" {
		rec.AirlineLogoURL = models.AirlineLogoURL(rec.Key.AirlineCode)
	}

	// The key's departure airport may have been a placeholder at add time.
	if rec.Key.DepAirport == "" && rec.Dep.Airport.IATA != "" {
		rec.Key.DepAirport = rec.Dep.Airport.IATA
	}

	refreshed := now.UTC()
	rec.LastRefreshedAt = &refreshed
}

func applyLeg(leg *models.Leg, scheduled, estimated, actual *time.Time, iata, terminal, gate string) {
	if scheduled != nil {
		leg.Scheduled = scheduled
	}
	if estimated != nil {
		leg.Estimated = estimated
	}
	if actual != nil {
		leg.Actual = actual
	}
	if iata != "" {
		leg.Airport.IATA = iata
	}
	if terminal != "" {
		leg.Terminal = terminal
	}
	if gate != "" {
		leg.Gate = gate
	}
}

// EnrichAirports fills directory metadata for both legs. Lookup failures are
// tolerated; the record just stays sparse.
func (s *FlightService) EnrichAirports(ctx context.Context, rec *models.FlightRecord) {
	if s.directory == nil || rec == nil {
		return
	}
	enrichLeg(ctx, s.directory, &rec.Dep)
	enrichLeg(ctx, s.directory, &rec.Arr)
}

func enrichLeg(ctx context.Context, dir *directory.Service, leg *models.Leg) {
	if leg.Airport.IATA == "" {
		return
	}
	entry, err := dir.Lookup(ctx, leg.Airport.IATA)
	if err != nil || entry == nil {
		return
	}
	leg.Airport.ICAO = entry.ICAO
	leg.Airport.Name = entry.Name
	leg.Airport.City = entry.City
	leg.Airport.Country = entry.Country
	leg.Airport.TZ = entry.TZ
	leg.Airport.TZShort = models.TZShort(entry.TZ, leg.BestTime())
	leg.Airport.Lat = entry.Lat
	leg.Airport.Lon = entry.Lon
}

func (s *FlightService) syncTrackedGauge(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	if count, err := s.repo.Count(ctx); err == nil {
		s.metrics.FlightsTracked.Set(float64(count))
	}
}
