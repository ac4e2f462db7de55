package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"skydeck/flightdeck/internal/constants"
)

// StatusState is the lifecycle state of a tracked flight.
type StatusState string

const (
	StatusScheduled StatusState = "scheduled"
	StatusActive    StatusState = "active"
	StatusLanded    StatusState = "landed"
	StatusCancelled StatusState = "cancelled"
	StatusDiverted  StatusState = "diverted"
	StatusUnknown   StatusState = "unknown"
)

// Terminal reports whether no further status transition is expected.
// Diverted flights are terminal for refresh purposes but excluded from pruning.
func (s StatusState) Terminal() bool {
	return s == StatusLanded || s == StatusCancelled || s == StatusDiverted
}

// NormalizeStatus maps a provider status string onto the internal enum.
func NormalizeStatus(raw string) StatusState {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "scheduled", "upcoming":
		return StatusScheduled
	case "active", "en-route", "in_air", "started":
		return StatusActive
	case "landed", "arrived":
		return StatusLanded
	case "cancelled", "canceled":
		return StatusCancelled
	case "diverted":
		return StatusDiverted
	default:
		return StatusUnknown
	}
}

// Origin marks how a record entered the store.
type Origin string

const (
	OriginManual   Origin = "manual"
	OriginProvider Origin = "provider"
)

// Airport is resolved directory metadata for one side of a leg.
type Airport struct {
	IATA    string  `json:"iata"`
	ICAO    string  `json:"icao,omitempty"`
	Name    string  `json:"name,omitempty"`
	City    string  `json:"city,omitempty"`
	Country string  `json:"country,omitempty"`
	TZ      string  `json:"tz,omitempty"`
	TZShort string  `json:"tz_short,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lon     float64 `json:"lon,omitempty"`
}

// Leg holds the departure or arrival side of a flight.
// All timestamps are UTC; provider-local formats are translated once at the
// provider boundary, never downstream.
type Leg struct {
	Airport   Airport    `json:"airport"`
	Scheduled *time.Time `json:"scheduled,omitempty"`
	Estimated *time.Time `json:"estimated,omitempty"`
	Actual    *time.Time `json:"actual,omitempty"`
	Terminal  string     `json:"terminal,omitempty"`
	Gate      string     `json:"gate,omitempty"`
}

// BestTime returns the most authoritative known time for the leg.
func (l Leg) BestTime() *time.Time {
	if l.Actual != nil {
		return l.Actual
	}
	if l.Estimated != nil {
		return l.Estimated
	}
	return l.Scheduled
}

// Position is an optional live position snapshot.
type Position struct {
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	AltitudeFt float64   `json:"altitude_ft"`
	SpeedKts   float64   `json:"speed_kts"`
	At         time.Time `json:"at"`
}

// FlightKey is the stable identity of a tracked flight.
type FlightKey struct {
	AirlineCode   string `json:"airline_code"`
	FlightNumber  string `json:"flight_number"`
	DepartureDate string `json:"departure_date"` // YYYY-MM-DD
	DepAirport    string `json:"dep_airport,omitempty"`
}

// String renders the canonical key form, e.g. "AI-157-DEL-2025-06-01".
// The departure airport may be unknown at preview time; a placeholder keeps
// the key stable until the provider resolves it.
func (k FlightKey) String() string {
	dep := strings.ToUpper(strings.TrimSpace(k.DepAirport))
	if dep == "" {
		dep = constants.DepAirportPlaceholder
	}
	return fmt.Sprintf("%s-%s-%s-%s",
		strings.ToUpper(k.AirlineCode), k.FlightNumber, dep, k.DepartureDate)
}

var queryRe = regexp.MustCompile(`^([A-Z0-9]{2,3})\s*([0-9]{1,4}[A-Z]?)$`)

// ParseQuery splits a free-text airline+flight query like "AI 157" or "AI157".
// Returns empty strings when the query does not parse.
func ParseQuery(query string) (airline, number string) {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return "", ""
	}
	q = strings.NewReplacer("-", " ", "/", " ").Replace(q)
	m := queryRe.FindStringSubmatch(q)
	if m == nil {
		m = queryRe.FindStringSubmatch(strings.ReplaceAll(q, " ", ""))
	}
	if m == nil {
		return "", ""
	}
	return m[1], m[2]
}

// FlightRecord is one tracked flight with schedule, live status and
// scheduler bookkeeping.
type FlightRecord struct {
	Key    FlightKey `json:"key"`
	Origin Origin    `json:"origin"`

	Dep    Leg         `json:"dep"`
	Arr    Leg         `json:"arr"`
	Status StatusState `json:"status_state"`

	AircraftType   string    `json:"aircraft_type,omitempty"`
	AirlineName    string    `json:"airline_name,omitempty"`
	AirlineLogoURL string    `json:"airline_logo_url,omitempty"`
	Travellers     []string  `json:"travellers,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	ICAO24         string    `json:"icao24,omitempty"`
	Position       *Position `json:"position,omitempty"`

	LastRefreshedAt *time.Time `json:"last_refreshed_at,omitempty"`
	NextDueAt       *time.Time `json:"next_due_at,omitempty"`
}

// AirlineLogoURL builds the logo CDN URL for an airline IATA code.
func AirlineLogoURL(iata string) string {
	code := strings.ToUpper(strings.TrimSpace(iata))
	if code == "" {
		return ""
	}
	return fmt.Sprintf(constants.AirlineLogoURLFormat, code)
}
