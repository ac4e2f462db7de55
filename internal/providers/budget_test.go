package providers

import (
	"testing"
	"time"
)

func TestBudgetWindowLimit(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b := NewBudget("metered", 0, 0, 2, time.Hour)

	if !b.Allow(now) || !b.Allow(now) {
		t.Fatal("first two calls should be allowed")
	}
	if b.Allow(now) {
		t.Error("third call inside window should be deferred")
	}
	if got := b.Remaining(now); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}

	// Window rolls over, counter resets.
	later := now.Add(time.Hour)
	if !b.Allow(later) {
		t.Error("call after window rollover should be allowed")
	}
}

func TestBudgetUnlimited(t *testing.T) {
	b := NewBudget("free", 0, 0, 0, 0)
	now := time.Now()
	for i := 0; i < 100; i++ {
		if !b.Allow(now) {
			t.Fatalf("unlimited budget denied call %d", i)
		}
	}
	if got := b.Remaining(now); got != -1 {
		t.Errorf("Remaining = %d, want -1 for unlimited", got)
	}
}

func TestBudgetPerSecondGate(t *testing.T) {
	b := NewBudget("strict", 1, 1, 0, 0)
	now := time.Now()

	if !b.Allow(now) {
		t.Fatal("first call should pass the rate gate")
	}
	if b.Allow(now) {
		t.Error("immediate second call should be rate limited")
	}
}

func TestBudgetRegistryDefaultsUnlimited(t *testing.T) {
	r := NewBudgetRegistry()
	now := time.Now()

	// Unregistered providers (local, mock) never defer.
	for i := 0; i < 50; i++ {
		if !r.For("local").Allow(now) {
			t.Fatal("default budget should be unlimited")
		}
	}

	r.Register("metered", NewBudget("metered", 0, 0, 1, time.Hour))
	if !r.For("metered").Allow(now) {
		t.Fatal("registered budget should allow first call")
	}
	if r.For("metered").Allow(now) {
		t.Error("registered budget should defer second call")
	}
}
