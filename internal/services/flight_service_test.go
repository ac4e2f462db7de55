package services

import (
	"context"
	"testing"
	"time"

	"skydeck/flightdeck/internal/db/repositories"
	"skydeck/flightdeck/internal/models"
	"skydeck/flightdeck/internal/providers"
)

func newFlightService(t *testing.T, maxFlights int) *FlightService {
	t.Helper()
	repo := repositories.NewFlightRepository(newTestDB(t))
	return NewFlightService(repo, nil, nil, maxFlights)
}

func storedRecord(key string, status models.StatusState, arr *time.Time) *models.FlightRecord {
	dep := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	return &models.FlightRecord{
		Key:    models.FlightKey{AirlineCode: "AI", FlightNumber: key, DepartureDate: "2025-06-01", DepAirport: "DEL"},
		Origin: models.OriginManual,
		Status: status,
		Dep:    models.Leg{Airport: models.Airport{IATA: "DEL"}, Scheduled: &dep},
		Arr:    models.Leg{Airport: models.Airport{IATA: "CPH"}, Actual: arr},
	}
}

func TestAddReplacesDuplicateKey(t *testing.T) {
	svc := newFlightService(t, 10)
	ctx := context.Background()

	rec := storedRecord("157", models.StatusScheduled, nil)
	rec.Notes = "first"
	if err := svc.Add(ctx, rec); err != nil {
		t.Fatalf("Add: %v", err)
	}

	rec2 := storedRecord("157", models.StatusScheduled, nil)
	rec2.Notes = "second"
	if err := svc.Add(ctx, rec2); err != nil {
		t.Fatalf("Add duplicate: %v", err)
	}

	all, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("len(all) = %d, want 1 (duplicate replaces)", len(all))
	}
	if all[0].Notes != "second" {
		t.Errorf("Notes = %q, want the replacing record", all[0].Notes)
	}
}

func TestAddEnforcesFlightCap(t *testing.T) {
	svc := newFlightService(t, 2)
	ctx := context.Background()

	if err := svc.Add(ctx, storedRecord("101", models.StatusScheduled, nil)); err != nil {
		t.Fatalf("Add 1: %v", err)
	}
	if err := svc.Add(ctx, storedRecord("102", models.StatusScheduled, nil)); err != nil {
		t.Fatalf("Add 2: %v", err)
	}
	if err := svc.Add(ctx, storedRecord("103", models.StatusScheduled, nil)); err == nil {
		t.Fatal("Add beyond cap should fail")
	}

	// Replacing an existing key is allowed at the cap.
	if err := svc.Add(ctx, storedRecord("101", models.StatusScheduled, nil)); err != nil {
		t.Errorf("replacing at cap should succeed: %v", err)
	}
}

func TestRemoveAndClear(t *testing.T) {
	svc := newFlightService(t, 10)
	ctx := context.Background()

	rec := storedRecord("157", models.StatusScheduled, nil)
	if err := svc.Add(ctx, rec); err != nil {
		t.Fatalf("Add: %v", err)
	}

	removed, err := svc.Remove(ctx, rec.Key.String())
	if err != nil || !removed {
		t.Fatalf("Remove = (%v, %v), want (true, nil)", removed, err)
	}
	removed, err = svc.Remove(ctx, rec.Key.String())
	if err != nil || removed {
		t.Fatalf("second Remove = (%v, %v), want (false, nil)", removed, err)
	}

	svc.Add(ctx, storedRecord("201", models.StatusScheduled, nil))
	svc.Add(ctx, storedRecord("202", models.StatusScheduled, nil))
	n, err := svc.Clear(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Clear = (%d, %v), want (2, nil)", n, err)
	}
}

func TestPrunePolicy(t *testing.T) {
	svc := newFlightService(t, 10)
	ctx := context.Background()
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	oldArr := now.Add(-8 * time.Hour)
	recentArr := now.Add(-30 * time.Minute)

	// Landed long ago: pruned. Landed recently: kept. Diverted: always kept.
	svc.Add(ctx, storedRecord("101", models.StatusLanded, &oldArr))
	svc.Add(ctx, storedRecord("102", models.StatusLanded, &recentArr))
	svc.Add(ctx, storedRecord("103", models.StatusDiverted, &oldArr))
	svc.Add(ctx, storedRecord("104", models.StatusActive, nil))

	pruned, err := svc.Prune(ctx, 6*time.Hour, now)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}

	all, _ := svc.List(ctx)
	if len(all) != 3 {
		t.Fatalf("remaining = %d, want 3", len(all))
	}
	for _, rec := range all {
		if rec.Key.FlightNumber == "101" {
			t.Error("stale landed flight should have been pruned")
		}
	}
}

func TestApplyStatusPreservesManualFields(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := storedRecord("157", models.StatusScheduled, nil)
	rec.Travellers = []string{"Asha", "Ravi"}
	rec.Notes = "window seat"

	est := time.Date(2025, 6, 1, 6, 25, 0, 0, time.UTC)
	snap := &providers.StatusSnapshot{
		State:        models.StatusActive,
		DepEstimated: &est,
		ArrIATA:      "CPH",
		DepGate:      "12A",
		AircraftType: "B789",
	}
	ApplyStatus(rec, snap, now)

	if rec.Status != models.StatusActive {
		t.Errorf("Status = %q, want active", rec.Status)
	}
	if rec.Dep.Estimated == nil || !rec.Dep.Estimated.Equal(est) {
		t.Error("provider estimate should be applied")
	}
	if rec.Dep.Gate != "12A" || rec.AircraftType != "B789" {
		t.Error("provider facts should be applied")
	}
	if len(rec.Travellers) != 2 || rec.Notes != "window seat" {
		t.Error("manual fields must survive a refresh")
	}
	if rec.LastRefreshedAt == nil || !rec.LastRefreshedAt.Equal(now) {
		t.Error("LastRefreshedAt should be stamped")
	}
}

func TestApplyStatusUnknownKeepsLastGood(t *testing.T) {
	now := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	rec := storedRecord("157", models.StatusActive, nil)

	ApplyStatus(rec, &providers.StatusSnapshot{State: models.StatusUnknown}, now)
	if rec.Status != models.StatusActive {
		t.Errorf("Status = %q, unknown snapshot must not clobber last good state", rec.Status)
	}
}

func TestApplyStatusResolvesPlaceholderKey(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := storedRecord("157", models.StatusScheduled, nil)
	rec.Key.DepAirport = ""
	rec.Dep.Airport.IATA = ""

	ApplyStatus(rec, &providers.StatusSnapshot{State: models.StatusScheduled, DepIATA: "DEL"}, now)
	if rec.Key.DepAirport != "DEL" {
		t.Errorf("Key.DepAirport = %q, want DEL resolved from provider", rec.Key.DepAirport)
	}
}
