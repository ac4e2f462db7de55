package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"skydeck/flightdeck/internal/metrics"
	"skydeck/flightdeck/internal/models"
)

type fakeScheduleProvider struct {
	name  string
	sched *Schedule
	err   error
	calls int
}

func (f *fakeScheduleProvider) Name() string { return f.name }

func (f *fakeScheduleProvider) ResolveSchedule(_ context.Context, _, _, _, _ string) (*Schedule, error) {
	f.calls++
	return f.sched, f.err
}

type fakeStatusProvider struct {
	name  string
	snap  *StatusSnapshot
	err   error
	calls int
}

func (f *fakeStatusProvider) Name() string { return f.name }

func (f *fakeStatusProvider) ResolveStatus(_ context.Context, _ *models.FlightRecord) (*StatusSnapshot, error) {
	f.calls++
	return f.snap, f.err
}

func ts(hour int) *time.Time {
	t := time.Date(2025, 6, 1, hour, 0, 0, 0, time.UTC)
	return &t
}

func TestAutoScheduleMergesPartials(t *testing.T) {
	// First provider knows the departure, second knows the arrival. The
	// merged schedule must carry both, first non-null winning per field.
	first := &fakeScheduleProvider{
		name:  "first",
		sched: &Schedule{DepAirport: "DEL", DepScheduled: ts(6)},
	}
	second := &fakeScheduleProvider{
		name:  "second",
		sched: &Schedule{DepAirport: "BOM", ArrAirport: "CPH", ArrScheduled: ts(15)},
	}

	auto := NewAutoProvider(
		[]ScheduleProvider{first, second}, nil, nil, nil, nil, time.Second)

	sched, err := auto.ResolveSchedule(context.Background(), "AI", "157", "2025-06-01", "")
	if err != nil {
		t.Fatalf("ResolveSchedule returned error: %v", err)
	}
	if !sched.Complete() {
		t.Fatal("merged schedule should be complete")
	}
	if sched.DepAirport != "DEL" {
		t.Errorf("DepAirport = %q, want DEL (first provider wins)", sched.DepAirport)
	}
	if sched.ArrAirport != "CPH" {
		t.Errorf("ArrAirport = %q, want CPH (filled from second provider)", sched.ArrAirport)
	}
	if sched.DepScheduled == nil || sched.ArrScheduled == nil {
		t.Error("both scheduled times should be present after merge")
	}
}

func TestAutoScheduleStopsWhenComplete(t *testing.T) {
	first := &fakeScheduleProvider{
		name: "first",
		sched: &Schedule{
			DepAirport: "DEL", ArrAirport: "CPH",
			DepScheduled: ts(6), ArrScheduled: ts(15),
		},
	}
	second := &fakeScheduleProvider{name: "second"}

	auto := NewAutoProvider(
		[]ScheduleProvider{first, second}, nil, nil, nil, nil, time.Second)

	if _, err := auto.ResolveSchedule(context.Background(), "AI", "157", "2025-06-01", ""); err != nil {
		t.Fatalf("ResolveSchedule returned error: %v", err)
	}
	if second.calls != 0 {
		t.Errorf("second provider called %d times, want 0 once complete", second.calls)
	}
}

func TestAutoStatusAbsorbsFailures(t *testing.T) {
	failing := &fakeStatusProvider{name: "failing", err: errors.New("boom")}
	working := &fakeStatusProvider{
		name: "working",
		snap: &StatusSnapshot{State: models.StatusActive},
	}

	auto := NewAutoProvider(
		nil, []StatusProvider{failing, working}, nil, nil, nil, time.Second)

	snap, err := auto.ResolveStatus(context.Background(), &models.FlightRecord{})
	if err != nil {
		t.Fatalf("failure in the chain should be absorbed, got %v", err)
	}
	if snap.State != models.StatusActive {
		t.Errorf("State = %q, want active from fallback provider", snap.State)
	}
	if failing.calls != 1 || working.calls != 1 {
		t.Errorf("calls = (%d, %d), want (1, 1)", failing.calls, working.calls)
	}
}

func TestAutoStatusBudgetExhaustionIsDeferral(t *testing.T) {
	p := &fakeStatusProvider{
		name: "metered",
		snap: &StatusSnapshot{State: models.StatusActive},
	}

	budgets := NewBudgetRegistry()
	budgets.Register("metered", NewBudget("metered", 0, 0, 1, time.Hour))

	auto := NewAutoProvider(nil, []StatusProvider{p}, nil, nil, budgets, time.Second)

	if _, err := auto.ResolveStatus(context.Background(), &models.FlightRecord{}); err != nil {
		t.Fatalf("first call should succeed: %v", err)
	}

	// Budget is spent; the second call must be a deferral, not a failure.
	_, err := auto.ResolveStatus(context.Background(), &models.FlightRecord{})
	if !IsDeferral(err) {
		t.Fatalf("want deferral error, got %v", err)
	}
	if p.calls != 1 {
		t.Errorf("provider called %d times, want 1 (second call budget-skipped)", p.calls)
	}
}

func TestAutoStatusNoMatch(t *testing.T) {
	empty := &fakeStatusProvider{name: "empty", err: errors.New("nothing")}
	auto := NewAutoProvider(nil, []StatusProvider{empty}, nil, nil, nil, time.Second)

	_, err := auto.ResolveStatus(context.Background(), &models.FlightRecord{})
	if err == nil {
		t.Fatal("want error when no provider returns data")
	}
	if IsDeferral(err) {
		t.Error("real provider failure must not be reported as deferral")
	}
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Errorf("want *ProviderError, got %T", err)
	}
}

func TestAutoRecordsCallMetrics(t *testing.T) {
	failing := &fakeStatusProvider{name: "failing", err: errors.New("boom")}
	working := &fakeStatusProvider{
		name: "working",
		snap: &StatusSnapshot{State: models.StatusActive},
	}

	m := metrics.NewMetricsRegistry()
	auto := NewAutoProvider(
		nil, []StatusProvider{failing, working}, nil, nil, nil, time.Second)
	auto.Metrics = m

	if _, err := auto.ResolveStatus(context.Background(), &models.FlightRecord{}); err != nil {
		t.Fatalf("ResolveStatus: %v", err)
	}

	if got := testutil.ToFloat64(m.ProviderCallsTotal.WithLabelValues("failing", "status", "error")); got != 1 {
		t.Errorf("failing call count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ProviderCallsTotal.WithLabelValues("working", "status", "ok")); got != 1 {
		t.Errorf("working call count = %v, want 1", got)
	}
}

func TestAutoNoProviders(t *testing.T) {
	auto := NewAutoProvider(nil, nil, nil, nil, nil, time.Second)
	if _, err := auto.ResolveStatus(context.Background(), &models.FlightRecord{}); !errors.Is(err, ErrNoProvider) {
		t.Errorf("want ErrNoProvider, got %v", err)
	}
}
