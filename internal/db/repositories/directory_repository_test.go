package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"skydeck/flightdeck/internal/models"
)

func newDirectoryRepo(t *testing.T) *DirectoryRepository {
	t.Helper()
	db, err := sqlx.Connect("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo, err := NewDirectoryRepository(db)
	if err != nil {
		t.Fatalf("NewDirectoryRepository: %v", err)
	}
	return repo
}

func sampleEntry(iata string) *models.DirectoryEntry {
	return &models.DirectoryEntry{
		IATA:      iata,
		ICAO:      "VIDP",
		Name:      "Indira Gandhi International Airport",
		City:      "Delhi",
		Country:   "India",
		TZ:        "Asia/Kolkata",
		Lat:       28.5665,
		Lon:       77.103088,
		Source:    "seed",
		FetchedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestDirectoryPutGet(t *testing.T) {
	repo := newDirectoryRepo(t)
	ctx := context.Background()

	if got, err := repo.Get(ctx, "DEL"); err != nil || got != nil {
		t.Fatalf("Get on empty store = (%v, %v), want (nil, nil)", got, err)
	}

	if err := repo.Put(ctx, sampleEntry("DEL")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := repo.Get(ctx, "DEL")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.City != "Delhi" || got.TZ != "Asia/Kolkata" {
		t.Errorf("Get = %+v", got)
	}

	// Put on an existing code replaces the entry.
	updated := sampleEntry("DEL")
	updated.Name = "Delhi International"
	if err := repo.Put(ctx, updated); err != nil {
		t.Fatalf("Put update: %v", err)
	}
	got, _ = repo.Get(ctx, "DEL")
	if got.Name != "Delhi International" {
		t.Errorf("Name = %q, want updated value", got.Name)
	}
}

func TestDirectoryReplaceAll(t *testing.T) {
	repo := newDirectoryRepo(t)
	ctx := context.Background()

	repo.Put(ctx, sampleEntry("OLD"))

	refreshedAt := time.Date(2025, 6, 15, 3, 0, 0, 0, time.UTC)
	entries := []*models.DirectoryEntry{sampleEntry("DEL"), sampleEntry("BOM")}
	if err := repo.ReplaceAll(ctx, entries, refreshedAt); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	if got, _ := repo.Get(ctx, "OLD"); got != nil {
		t.Error("wholesale replace should drop entries missing from the new set")
	}
	count, err := repo.Count(ctx)
	if err != nil || count != 2 {
		t.Errorf("Count = (%d, %v), want 2", count, err)
	}

	last, err := repo.LastFullRefresh(ctx)
	if err != nil {
		t.Fatalf("LastFullRefresh: %v", err)
	}
	if !last.Equal(refreshedAt) {
		t.Errorf("LastFullRefresh = %v, want %v", last, refreshedAt)
	}
}

func TestDirectoryLastFullRefreshUnset(t *testing.T) {
	repo := newDirectoryRepo(t)
	last, err := repo.LastFullRefresh(context.Background())
	if err != nil {
		t.Fatalf("LastFullRefresh: %v", err)
	}
	if !last.IsZero() {
		t.Errorf("LastFullRefresh = %v, want zero when never refreshed", last)
	}
}
