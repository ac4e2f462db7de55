package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"skydeck/flightdeck/internal/db/repositories"
	"skydeck/flightdeck/internal/models"
	"skydeck/flightdeck/internal/providers"
)

type failingResolver struct{ err error }

func (f *failingResolver) ResolveSchedule(_ context.Context, _, _, _, _ string) (*providers.Schedule, error) {
	return nil, f.err
}

// newPreviewService wires a preview service over an in-memory store and the
// deterministic mock provider, with a frozen clock.
func newPreviewService(t *testing.T, resolver scheduleResolver) (*PreviewService, *FlightService) {
	t.Helper()
	db := newTestDB(t)
	flightSvc := NewFlightService(repositories.NewFlightRepository(db), nil, nil, 50)
	cadence := NewCadencePolicy(testThresholds(), 5*time.Minute)
	if resolver == nil {
		resolver = providers.NewMockProvider()
	}

	svc := NewPreviewService(repositories.NewPreviewRepository(db), flightSvc, resolver, cadence, 30, 6)
	svc.Now = func() time.Time { return time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC) }
	return svc, flightSvc
}

func TestPreviewBadQuery(t *testing.T) {
	svc, _ := newPreviewService(t, nil)
	state, err := svc.Preview(context.Background(), &models.PreviewInput{Query: "not a flight"})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if state.Ready || state.Error != models.PreviewErrBadQuery {
		t.Errorf("state = (ready=%v, error=%q), want bad_query", state.Ready, state.Error)
	}
	if state.Hint == "" {
		t.Error("bad query should carry a hint")
	}
}

func TestPreviewBadDate(t *testing.T) {
	svc, _ := newPreviewService(t, nil)

	state, _ := svc.Preview(context.Background(), &models.PreviewInput{Query: "AI 157", Date: "01-06-2025"})
	if state.Error != models.PreviewErrBadDate {
		t.Errorf("malformed date error = %q, want bad_date", state.Error)
	}

	state, _ = svc.Preview(context.Background(), &models.PreviewInput{Query: "AI 157", Date: "2026-01-01"})
	if state.Error != models.PreviewErrBadDate {
		t.Errorf("out-of-window date error = %q, want bad_date", state.Error)
	}
}

func TestPreviewNoMatch(t *testing.T) {
	svc, _ := newPreviewService(t, &failingResolver{err: errors.New("provider down")})
	state, err := svc.Preview(context.Background(), &models.PreviewInput{Query: "AI 157", Date: "2025-06-01"})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if state.Ready || state.Error != models.PreviewErrNoMatch {
		t.Errorf("state = (ready=%v, error=%q), want no_match_or_no_provider", state.Ready, state.Error)
	}
}

func TestPreviewThenConfirm(t *testing.T) {
	svc, flights := newPreviewService(t, nil)
	ctx := context.Background()

	input := &models.PreviewInput{
		Query:      "AI 157",
		Date:       "2025-06-01",
		Travellers: []string{"Asha"},
		Notes:      "anniversary trip",
	}
	state, err := svc.Preview(ctx, input)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if !state.Ready || state.Flight == nil {
		t.Fatalf("state not ready: error=%q", state.Error)
	}
	if state.Flight.Key.AirlineCode != "AI" || state.Flight.Key.DepartureDate != "2025-06-01" {
		t.Errorf("unexpected key %+v", state.Flight.Key)
	}
	if state.Flight.NextDueAt == nil {
		t.Error("previewed flight should carry an initial refresh time")
	}

	rec, err := svc.Confirm(ctx)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if len(rec.Travellers) != 1 || rec.Notes != "anniversary trip" {
		t.Error("manual fields should survive confirm")
	}

	stored, err := flights.Get(ctx, rec.Key.String())
	if err != nil || stored == nil {
		t.Fatalf("confirmed flight not persisted: %v", err)
	}

	// Confirm clears the slot.
	current, err := svc.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if current.Ready || current.Flight != nil {
		t.Error("preview slot should be empty after confirm")
	}
}

func TestConfirmEmptySlotFails(t *testing.T) {
	svc, _ := newPreviewService(t, nil)
	if _, err := svc.Confirm(context.Background()); err == nil {
		t.Fatal("confirming an empty slot should fail")
	}
}

func TestConfirmErrorPreviewFails(t *testing.T) {
	svc, _ := newPreviewService(t, nil)
	ctx := context.Background()

	if _, err := svc.Preview(ctx, &models.PreviewInput{Query: "garbage input"}); err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if _, err := svc.Confirm(ctx); err == nil {
		t.Fatal("confirming an errored preview should fail")
	}
}

func TestPreviewReplacesSlot(t *testing.T) {
	svc, _ := newPreviewService(t, nil)
	ctx := context.Background()

	if _, err := svc.Preview(ctx, &models.PreviewInput{Query: "AI 157", Date: "2025-06-01"}); err != nil {
		t.Fatalf("Preview 1: %v", err)
	}
	if _, err := svc.Preview(ctx, &models.PreviewInput{Query: "BA 9", Date: "2025-06-02"}); err != nil {
		t.Fatalf("Preview 2: %v", err)
	}

	current, err := svc.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if current.Flight == nil || current.Flight.Key.AirlineCode != "BA" {
		t.Error("second preview should replace the first")
	}
}

func TestClearPreview(t *testing.T) {
	svc, _ := newPreviewService(t, nil)
	ctx := context.Background()

	svc.Preview(ctx, &models.PreviewInput{Query: "AI 157", Date: "2025-06-01"})
	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	current, _ := svc.Current(ctx)
	if current.Ready {
		t.Error("cleared slot should be empty")
	}
}

func TestPreviewStateFromSchedule(t *testing.T) {
	// The mock schedule for AI 157 on 2025-06-01 departs 12:00Z and arrives
	// 21:00Z; the staged state must reflect where the clock falls in that
	// window, not a blanket "scheduled".
	tests := []struct {
		name string
		now  time.Time
		want models.StatusState
	}{
		{"before departure", time.Date(2025, 5, 31, 10, 0, 0, 0, time.UTC), models.StatusScheduled},
		{"in the air", time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC), models.StatusActive},
		{"after arrival", time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC), models.StatusLanded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newPreviewService(t, nil)
			svc.Now = func() time.Time { return tt.now }

			state, err := svc.Preview(context.Background(), &models.PreviewInput{Query: "AI 157", Date: "2025-06-01"})
			if err != nil {
				t.Fatalf("Preview: %v", err)
			}
			if !state.Ready || state.Flight == nil {
				t.Fatalf("state not ready: error=%q", state.Error)
			}
			if state.Flight.Status != tt.want {
				t.Errorf("preview status = %q, want %q computed from schedule comparison", state.Flight.Status, tt.want)
			}
		})
	}
}

func TestAddManualBypassesSlot(t *testing.T) {
	svc, flights := newPreviewService(t, nil)
	ctx := context.Background()

	svc.Preview(ctx, &models.PreviewInput{Query: "BA 9", Date: "2025-06-02"})

	rec, err := svc.AddManual(ctx, &models.PreviewInput{Query: "AI 157", Date: "2025-06-01"})
	if err != nil {
		t.Fatalf("AddManual: %v", err)
	}
	stored, err := flights.Get(ctx, rec.Key.String())
	if err != nil || stored == nil {
		t.Fatalf("added flight not persisted: %v", err)
	}

	// The staged preview is untouched by a direct add.
	current, _ := svc.Current(ctx)
	if current.Flight == nil || current.Flight.Key.AirlineCode != "BA" {
		t.Error("direct add must not disturb the staged preview")
	}
}

func TestAddManualBadInputFails(t *testing.T) {
	svc, flights := newPreviewService(t, nil)
	ctx := context.Background()

	if _, err := svc.AddManual(ctx, &models.PreviewInput{Query: "garbage input"}); err == nil {
		t.Fatal("direct add with an unparseable query should fail")
	}
	if n, _ := flights.Count(ctx); n != 0 {
		t.Errorf("Count = %d, want 0 after a failed add", n)
	}
}

func TestPreviewDefaultsToToday(t *testing.T) {
	svc, _ := newPreviewService(t, nil)
	state, err := svc.Preview(context.Background(), &models.PreviewInput{Query: "AI 157"})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if !state.Ready {
		t.Fatalf("state not ready: error=%q", state.Error)
	}
	if got := state.Flight.Key.DepartureDate; got != "2025-05-20" {
		t.Errorf("DepartureDate = %q, want today 2025-05-20", got)
	}
}
