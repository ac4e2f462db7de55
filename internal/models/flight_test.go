package models

import (
	"testing"
	"time"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		query       string
		wantAirline string
		wantNumber  string
	}{
		{"AI 157", "AI", "157"},
		{"AI157", "AI", "157"},
		{"ai157", "AI", "157"},
		{"  ba 9 ", "BA", "9"},
		{"SK-955", "SK", "955"},
		{"6E 2001", "6E", "2001"},
		{"UA1234A", "UA", "1234A"},
		{"", "", ""},
		{"not a flight", "", ""},
		{"12345678", "", ""},
	}

	for _, tt := range tests {
		airline, number := ParseQuery(tt.query)
		if airline != tt.wantAirline || number != tt.wantNumber {
			t.Errorf("ParseQuery(%q) = (%q, %q), want (%q, %q)",
				tt.query, airline, number, tt.wantAirline, tt.wantNumber)
		}
	}
}

func TestFlightKeyString(t *testing.T) {
	key := FlightKey{AirlineCode: "AI", FlightNumber: "157", DepartureDate: "2025-06-01", DepAirport: "DEL"}
	if got := key.String(); got != "AI-157-DEL-2025-06-01" {
		t.Errorf("key.String() = %q, want AI-157-DEL-2025-06-01", got)
	}

	// Unknown departure airport keeps the key stable via the placeholder.
	key.DepAirport = ""
	if got := key.String(); got != "AI-157-XXX-2025-06-01" {
		t.Errorf("key.String() without airport = %q, want AI-157-XXX-2025-06-01", got)
	}
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want StatusState
	}{
		{"scheduled", StatusScheduled},
		{"Active", StatusActive},
		{"en-route", StatusActive},
		{"landed", StatusLanded},
		{"arrived", StatusLanded},
		{"cancelled", StatusCancelled},
		{"canceled", StatusCancelled},
		{"diverted", StatusDiverted},
		{"", StatusUnknown},
		{"gibberish", StatusUnknown},
	}
	for _, tt := range tests {
		if got := NormalizeStatus(tt.raw); got != tt.want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, s := range []StatusState{StatusLanded, StatusCancelled, StatusDiverted} {
		if !s.Terminal() {
			t.Errorf("%q should be terminal", s)
		}
	}
	for _, s := range []StatusState{StatusScheduled, StatusActive, StatusUnknown} {
		if s.Terminal() {
			t.Errorf("%q should not be terminal", s)
		}
	}
}

func TestLegBestTime(t *testing.T) {
	sched := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	est := sched.Add(15 * time.Minute)
	act := sched.Add(22 * time.Minute)

	leg := Leg{Scheduled: &sched}
	if got := leg.BestTime(); !got.Equal(sched) {
		t.Errorf("BestTime with only scheduled = %v, want %v", got, sched)
	}

	leg.Estimated = &est
	if got := leg.BestTime(); !got.Equal(est) {
		t.Errorf("BestTime with estimated = %v, want %v", got, est)
	}

	leg.Actual = &act
	if got := leg.BestTime(); !got.Equal(act) {
		t.Errorf("BestTime with actual = %v, want %v", got, act)
	}
}
