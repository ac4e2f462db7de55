package providers

import (
	"context"
	"strings"
	"time"

	"skydeck/flightdeck/internal/models"
)

// ScheduleProvider answers "when is this flight scheduled to depart/arrive
// and from/to where" for a minimal airline + number + date input.
type ScheduleProvider interface {
	// Name returns the provider identifier
	Name() string

	// ResolveSchedule resolves a schedule for one specific flight.
	// depHint optionally disambiguates flight numbers serving multiple routes
	// on the same date.
	ResolveSchedule(ctx context.Context, airline, number, date, depHint string) (*Schedule, error)
}

// StatusProvider answers "what is this flight's current live status".
type StatusProvider interface {
	Name() string

	// ResolveStatus fetches the current status snapshot for a tracked flight.
	ResolveStatus(ctx context.Context, rec *models.FlightRecord) (*StatusSnapshot, error)
}

// PositionProvider answers "where is this aircraft right now".
type PositionProvider interface {
	Name() string

	ResolvePosition(ctx context.Context, rec *models.FlightRecord) (*models.Position, error)
}

// DirectoryProvider supplies airport reference metadata, used by the
// directory cache as its last-resort fill path.
type DirectoryProvider interface {
	Name() string

	ResolveAirport(ctx context.Context, iata string) (*models.DirectoryEntry, error)
}

// Schedule is a provider-boundary schedule resolution result. All timestamps
// are already normalized to UTC here; nothing downstream re-parses provider
// formats.
type Schedule struct {
	AirlineCode  string
	FlightNumber string
	DepAirport   string
	ArrAirport   string
	DepScheduled *time.Time
	ArrScheduled *time.Time
	AircraftType string
	AirlineName  string

	// Ambiguous is set when the provider saw multiple distinct routes for the
	// same flight number and date and picked the primary match.
	Ambiguous bool
}

// Complete reports whether the schedule satisfies the capability's
// completeness requirement: both scheduled times present.
func (s *Schedule) Complete() bool {
	return s != nil && s.DepScheduled != nil && s.ArrScheduled != nil
}

// StatusSnapshot is a provider-boundary live status result, UTC-normalized.
type StatusSnapshot struct {
	Provider string
	State    models.StatusState

	DepScheduled *time.Time
	DepEstimated *time.Time
	DepActual    *time.Time
	ArrScheduled *time.Time
	ArrEstimated *time.Time
	ArrActual    *time.Time

	DepIATA     string
	ArrIATA     string
	DepTerminal string
	DepGate     string
	ArrTerminal string
	ArrGate     string

	AirlineName  string
	AircraftType string
	DelayMinutes int
	ICAO24       string
}

// Complete reports whether the snapshot satisfies the status capability's
// completeness requirement: a non-unknown state.
func (s *StatusSnapshot) Complete() bool {
	return s != nil && s.State != models.StatusUnknown && s.State != ""
}

// MergeSchedules fills nil/empty fields of dst from src, first non-null wins
// per field. Either argument may be nil.
func MergeSchedules(dst, src *Schedule) *Schedule {
	if dst == nil {
		return src
	}
	if src == nil {
		return dst
	}
	if dst.DepAirport == "" {
		dst.DepAirport = src.DepAirport
	}
	if dst.ArrAirport == "" {
		dst.ArrAirport = src.ArrAirport
	}
	if dst.DepScheduled == nil {
		dst.DepScheduled = src.DepScheduled
	}
	if dst.ArrScheduled == nil {
		dst.ArrScheduled = src.ArrScheduled
	}
	if dst.AircraftType == "" {
		dst.AircraftType = src.AircraftType
	}
	if dst.AirlineName == "" {
		dst.AirlineName = src.AirlineName
	}
	return dst
}

// MergeStatus fills missing fields of dst from src, first non-null wins per
// field. The first non-unknown state sticks.
func MergeStatus(dst, src *StatusSnapshot) *StatusSnapshot {
	if dst == nil {
		return src
	}
	if src == nil {
		return dst
	}
	if dst.State == models.StatusUnknown || dst.State == "" {
		dst.State = src.State
	}
	if dst.DepScheduled == nil {
		dst.DepScheduled = src.DepScheduled
	}
	if dst.DepEstimated == nil {
		dst.DepEstimated = src.DepEstimated
	}
	if dst.DepActual == nil {
		dst.DepActual = src.DepActual
	}
	if dst.ArrScheduled == nil {
		dst.ArrScheduled = src.ArrScheduled
	}
	if dst.ArrEstimated == nil {
		dst.ArrEstimated = src.ArrEstimated
	}
	if dst.ArrActual == nil {
		dst.ArrActual = src.ArrActual
	}
	if dst.DepIATA == "" {
		dst.DepIATA = src.DepIATA
	}
	if dst.ArrIATA == "" {
		dst.ArrIATA = src.ArrIATA
	}
	if dst.DepTerminal == "" {
		dst.DepTerminal = src.DepTerminal
	}
	if dst.DepGate == "" {
		dst.DepGate = src.DepGate
	}
	if dst.ArrTerminal == "" {
		dst.ArrTerminal = src.ArrTerminal
	}
	if dst.ArrGate == "" {
		dst.ArrGate = src.ArrGate
	}
	if dst.AirlineName == "" {
		dst.AirlineName = src.AirlineName
	}
	if dst.AircraftType == "" {
		dst.AircraftType = src.AircraftType
	}
	if dst.DelayMinutes == 0 {
		dst.DelayMinutes = src.DelayMinutes
	}
	if dst.ICAO24 == "" {
		dst.ICAO24 = src.ICAO24
	}
	return dst
}

// timestamp layouts seen across flight-data APIs
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimeUTC parses a provider timestamp string into UTC. Naive timestamps
// are taken as UTC. Returns nil for empty or unparseable input; translation
// happens here, once, at the provider boundary.
func ParseTimeUTC(s string) *time.Time {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return nil
	}
	raw = strings.Replace(raw, "Z", "+00:00", 1)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}
