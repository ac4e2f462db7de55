package directory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"skydeck/flightdeck/internal/common"
	"skydeck/flightdeck/internal/db/repositories"
	"skydeck/flightdeck/internal/models"
	"skydeck/flightdeck/internal/providers"
)

type fakeDirectoryProvider struct {
	entries map[string]*models.DirectoryEntry
	calls   int
}

func (f *fakeDirectoryProvider) Name() string { return "fake" }

func (f *fakeDirectoryProvider) ResolveAirport(_ context.Context, iata string) (*models.DirectoryEntry, error) {
	f.calls++
	return f.entries[iata], nil
}

// newTestService wires the service over an in-memory store with the bulk
// dataset layer disabled, so lookups exercise cache, store, seed and the
// provider fallback only.
func newTestService(t *testing.T, cache common.CacheInterface, fallback providers.DirectoryProvider) (*Service, *repositories.DirectoryRepository) {
	t.Helper()
	db, err := sqlx.Connect("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo, err := repositories.NewDirectoryRepository(db)
	if err != nil {
		t.Fatalf("NewDirectoryRepository: %v", err)
	}
	if cache == nil {
		cache = common.NewCacheService(time.Minute, time.Minute)
	}
	return NewService(cache, repo, fallback, nil, "", 30*24*time.Hour, nil), repo
}

func TestLookupDeterministicBetweenRefreshes(t *testing.T) {
	fallback := &fakeDirectoryProvider{
		entries: map[string]*models.DirectoryEntry{
			"TST": {IATA: "TST", ICAO: "TTST", Name: "Test Field", TZ: "Europe/London"},
		},
	}
	svc, _ := newTestService(t, nil, fallback)
	ctx := context.Background()

	first, err := svc.Lookup(ctx, "tst")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if first == nil || first.IATA != "TST" || first.Source != "fake" {
		t.Fatalf("first lookup = %+v, want the provider entry", first)
	}

	second, err := svc.Lookup(ctx, "TST")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if second == nil || second.IATA != first.IATA || second.Name != first.Name || second.TZ != first.TZ {
		t.Errorf("second lookup = %+v, want identical to first %+v", second, first)
	}
	if fallback.calls != 1 {
		t.Errorf("provider called %d times, want 1 (second lookup served from cache)", fallback.calls)
	}
}

func TestLookupSeedLayerWritesThrough(t *testing.T) {
	svc, repo := newTestService(t, nil, nil)
	ctx := context.Background()

	entry, err := svc.Lookup(ctx, "DEL")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if entry == nil || entry.ICAO != "VIDP" || entry.TZ != "Asia/Kolkata" {
		t.Fatalf("Lookup(DEL) = %+v, want the seed entry", entry)
	}

	// A seed-answered lookup lands in the durable store.
	stored, err := repo.Get(ctx, "DEL")
	if err != nil || stored == nil {
		t.Fatalf("seed entry not persisted: (%+v, %v)", stored, err)
	}
}

func TestLookupUnresolvable(t *testing.T) {
	svc, _ := newTestService(t, nil, &fakeDirectoryProvider{})

	entry, err := svc.Lookup(context.Background(), "ZQX")
	if err != nil || entry != nil {
		t.Errorf("Lookup(ZQX) = (%+v, %v), want (nil, nil)", entry, err)
	}

	// Placeholder and empty codes short-circuit before any layer.
	if entry, _ := svc.Lookup(context.Background(), "XXX"); entry != nil {
		t.Errorf("Lookup(XXX) = %+v, want nil", entry)
	}
	if entry, _ := svc.Lookup(context.Background(), ""); entry != nil {
		t.Errorf("Lookup(\"\") = %+v, want nil", entry)
	}
}

// jsonRoundTripCache degrades stored values the way a serializing backend
// does: entries come back as generic maps, not typed pointers.
type jsonRoundTripCache struct {
	inner common.CacheInterface
}

func (c *jsonRoundTripCache) Set(key string, value interface{}, duration time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	var degraded interface{}
	if err := json.Unmarshal(raw, &degraded); err != nil {
		return
	}
	c.inner.Set(key, degraded, duration)
}

func (c *jsonRoundTripCache) Get(key string) (interface{}, bool) { return c.inner.Get(key) }
func (c *jsonRoundTripCache) Delete(key string)                  { c.inner.Delete(key) }
func (c *jsonRoundTripCache) Close() error                       { return c.inner.Close() }

func (c *jsonRoundTripCache) GetOrSet(key string, duration time.Duration, loader func() (any, error)) (interface{}, error) {
	return c.inner.GetOrSet(key, duration, loader)
}

func TestLookupHitsSerializingCache(t *testing.T) {
	fallback := &fakeDirectoryProvider{
		entries: map[string]*models.DirectoryEntry{
			"TST": {IATA: "TST", Name: "Test Field", TZ: "Europe/London"},
		},
	}
	cache := &jsonRoundTripCache{inner: common.NewCacheService(time.Minute, time.Minute)}
	svc, _ := newTestService(t, cache, fallback)
	ctx := context.Background()

	if _, err := svc.Lookup(ctx, "TST"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	entry, err := svc.Lookup(ctx, "TST")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if entry == nil || entry.IATA != "TST" || entry.Name != "Test Field" {
		t.Fatalf("Lookup from serialized cache = %+v", entry)
	}
	if fallback.calls != 1 {
		t.Errorf("provider called %d times, want 1 (map-shaped cache value must still hit)", fallback.calls)
	}
}
