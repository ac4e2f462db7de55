package providers

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"skydeck/flightdeck/internal/constants"
	"skydeck/flightdeck/internal/models"
)

// mockRoutes is a fixed route table; a flight hashes onto one deterministic
// route so tests get stable schedules without any network.
var mockRoutes = []struct {
	dep, arr string
	duration time.Duration
}{
	{"DEL", "CPH", 9 * time.Hour},
	{"LHR", "JFK", 8 * time.Hour},
	{"SIN", "SYD", 8 * time.Hour},
	{"SFO", "HND", 11 * time.Hour},
	{"FRA", "DXB", 6 * time.Hour},
	{"BOM", "LHR", 9 * time.Hour},
}

// MockProvider returns a deterministic synthetic schedule and status.
// Identical inputs always produce identical outputs.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

// Name returns the provider identifier
func (p *MockProvider) Name() string { return constants.ProviderMock }

func mockHash(airline, number string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(airline + number))
	return h.Sum32()
}

// ResolveSchedule synthesizes a schedule seeded from the flight identity.
func (p *MockProvider) ResolveSchedule(_ context.Context, airline, number, date, depHint string) (*Schedule, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: fmt.Sprintf("bad date %q, want YYYY-MM-DD", date),
			Err:     err,
		}
	}

	h := mockHash(airline, number)
	route := mockRoutes[h%uint32(len(mockRoutes))]
	dep := day.Add(time.Duration(6+h%12) * time.Hour).UTC()
	arr := dep.Add(route.duration).UTC()

	depAirport := route.dep
	if depHint != "" {
		depAirport = depHint
	}

	return &Schedule{
		AirlineCode:  airline,
		FlightNumber: number,
		DepAirport:   depAirport,
		ArrAirport:   route.arr,
		DepScheduled: &dep,
		ArrScheduled: &arr,
		AircraftType: "B788",
		AirlineName:  airline + " Airlines",
	}, nil
}

// ResolveStatus reuses the local schedule comparison over the synthetic
// schedule, so mock-backed tests exercise the full status path.
func (p *MockProvider) ResolveStatus(ctx context.Context, rec *models.FlightRecord) (*StatusSnapshot, error) {
	local := NewLocalStatusProvider()
	snap, err := local.ResolveStatus(ctx, rec)
	if err != nil {
		return nil, err
	}
	snap.Provider = constants.ProviderMock
	return snap, nil
}
