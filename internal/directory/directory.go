package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"skydeck/flightdeck/internal/common"
	"skydeck/flightdeck/internal/constants"
	"skydeck/flightdeck/internal/db/repositories"
	"skydeck/flightdeck/internal/logging"
	"skydeck/flightdeck/internal/metrics"
	"skydeck/flightdeck/internal/models"
	"skydeck/flightdeck/internal/providers"
)

// hotTTL bounds how long a lookup result stays in the in-process cache.
// The durable store underneath is the source of truth between refreshes.
const hotTTL = 1 * time.Hour

// bulkRetryBackoff spaces out re-attempts after a failed bulk dataset fetch.
const bulkRetryBackoff = 1 * time.Hour

// Service resolves airport reference metadata through a fill chain:
// hot cache, durable store, embedded seed dataset, bulk openflights dataset,
// then the provider directory capability as last resort. A resolved entry is
// written back to every layer above the one that answered, so repeated
// lookups for the same code are deterministic until the next full refresh.
type Service struct {
	cache          common.CacheInterface
	repo           *repositories.DirectoryRepository
	fallback       providers.DirectoryProvider
	client         *http.Client
	openflightsURL string
	entryTTL       time.Duration
	metrics        *metrics.MetricsRegistry

	seedOnce sync.Once
	seed     map[string]*models.DirectoryEntry

	bulkMu        sync.Mutex
	bulk          map[string]*models.DirectoryEntry
	bulkLastTried time.Time
}

// NewService builds the directory service. fallback may be nil when no
// directory-capable provider is configured; entryTTL is how long a stored
// entry counts as fresh.
func NewService(
	cache common.CacheInterface,
	repo *repositories.DirectoryRepository,
	fallback providers.DirectoryProvider,
	client *http.Client,
	openflightsURL string,
	entryTTL time.Duration,
	m *metrics.MetricsRegistry,
) *Service {
	if client == nil {
		client = &http.Client{Timeout: constants.DefaultProviderTimeout}
	}
	return &Service{
		cache:          cache,
		repo:           repo,
		fallback:       fallback,
		client:         client,
		openflightsURL: openflightsURL,
		entryTTL:       entryTTL,
		metrics:        m,
	}
}

// Lookup resolves one airport by IATA code. Returns nil without error when
// the code cannot be resolved by any layer; an unknown airport is not a
// failure, the flight card just stays sparse.
func (s *Service) Lookup(ctx context.Context, iata string) (*models.DirectoryEntry, error) {
	code := strings.ToUpper(strings.TrimSpace(iata))
	if code == "" || code == constants.DepAirportPlaceholder {
		return nil, nil
	}

	cacheKey := constants.CachePrefixAirports + code
	if cached, found := s.cache.Get(cacheKey); found {
		if entry := decodeCached(cached); entry != nil {
			s.countCacheHit()
			return entry, nil
		}
	}
	s.countCacheMiss()

	var stale *models.DirectoryEntry
	stored, err := s.repo.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		if s.entryTTL <= 0 || time.Since(stored.FetchedAt) < s.entryTTL {
			s.finish(cacheKey, stored)
			return stored, nil
		}
		stale = stored
	}

	if entry := s.lookupSeed(code); entry != nil {
		s.persist(ctx, cacheKey, entry)
		return entry, nil
	}

	if entry := s.lookupBulk(ctx, code); entry != nil {
		s.persist(ctx, cacheKey, entry)
		return entry, nil
	}

	if s.fallback != nil {
		entry, err := s.fallback.ResolveAirport(ctx, code)
		if err != nil {
			logging.Warn("Directory provider lookup failed", "iata", code, "error", err)
		} else if entry != nil {
			entry.Source = s.fallback.Name()
			s.persist(ctx, cacheKey, entry)
			return entry, nil
		}
	}

	// A stale stored entry beats returning nothing.
	if stale != nil {
		s.finish(cacheKey, stale)
		return stale, nil
	}
	return nil, nil
}

// RefreshAll replaces the durable directory wholesale from the bulk dataset.
// Falls back to the embedded seed when the download fails and the store is
// still empty, so a fresh deployment is never without reference data.
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	index, err := FetchOpenflights(ctx, s.client, s.openflightsURL)
	if err != nil {
		count, countErr := s.repo.Count(ctx)
		if countErr == nil && count > 0 {
			return 0, fmt.Errorf("bulk dataset refresh failed, keeping existing directory: %w", err)
		}
		logging.Warn("Bulk dataset unavailable, seeding directory from embedded data", "error", err)
		index, err = LoadSeed()
		if err != nil {
			return 0, err
		}
	}

	now := time.Now().UTC()
	entries := make([]*models.DirectoryEntry, 0, len(index))
	for _, entry := range index {
		entry.TZShort = models.TZShort(entry.TZ, nil)
		entries = append(entries, entry)
	}
	if err := s.repo.ReplaceAll(ctx, entries, now); err != nil {
		return 0, err
	}

	s.bulkMu.Lock()
	s.bulk = index
	s.bulkMu.Unlock()

	logging.Info("Airport directory refreshed", "airports", len(entries))
	return len(entries), nil
}

// RefreshIfDue runs RefreshAll when the last full refresh is older than the
// entry TTL. Returns whether a refresh ran.
func (s *Service) RefreshIfDue(ctx context.Context) (bool, error) {
	if s.entryTTL <= 0 {
		return false, nil
	}
	last, err := s.repo.LastFullRefresh(ctx)
	if err != nil {
		return false, err
	}
	if !last.IsZero() && time.Since(last) < s.entryTTL {
		return false, nil
	}
	if _, err := s.RefreshAll(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) lookupSeed(code string) *models.DirectoryEntry {
	s.seedOnce.Do(func() {
		index, err := LoadSeed()
		if err != nil {
			logging.Error("Failed to load embedded airport seed", "error", err)
			index = map[string]*models.DirectoryEntry{}
		}
		s.seed = index
	})
	return s.seed[code]
}

// lookupBulk consults the openflights index, downloading it lazily on first
// miss. Failed downloads are retried at most once per backoff window.
func (s *Service) lookupBulk(ctx context.Context, code string) *models.DirectoryEntry {
	if s.openflightsURL == "" {
		return nil
	}

	s.bulkMu.Lock()
	defer s.bulkMu.Unlock()

	if s.bulk == nil {
		if time.Since(s.bulkLastTried) < bulkRetryBackoff {
			return nil
		}
		s.bulkLastTried = time.Now()
		index, err := FetchOpenflights(ctx, s.client, s.openflightsURL)
		if err != nil {
			logging.Warn("Bulk airport dataset fetch failed", "error", err)
			return nil
		}
		s.bulk = index
	}
	return s.bulk[code]
}

// persist writes a freshly resolved entry through to the durable store and
// the hot cache.
func (s *Service) persist(ctx context.Context, cacheKey string, entry *models.DirectoryEntry) {
	if entry.TZShort == "" {
		entry.TZShort = models.TZShort(entry.TZ, nil)
	}
	if entry.FetchedAt.IsZero() {
		entry.FetchedAt = time.Now().UTC()
	}
	if err := s.repo.Put(ctx, entry); err != nil {
		logging.Warn("Failed to persist directory entry", "iata", entry.IATA, "error", err)
	}
	s.finish(cacheKey, entry)
}

func (s *Service) finish(cacheKey string, entry *models.DirectoryEntry) {
	if entry.TZShort == "" {
		entry.TZShort = models.TZShort(entry.TZ, nil)
	}
	s.cache.Set(cacheKey, entry, hotTTL)
}

// decodeCached recovers an entry from whatever shape the cache backend hands
// back. The in-memory cache returns the stored pointer; the Redis backend
// serializes through JSON and returns a generic map, which is re-decoded here.
func decodeCached(v interface{}) *models.DirectoryEntry {
	switch e := v.(type) {
	case *models.DirectoryEntry:
		return e
	case models.DirectoryEntry:
		return &e
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		var entry models.DirectoryEntry
		if err := json.Unmarshal(raw, &entry); err != nil || entry.IATA == "" {
			return nil
		}
		return &entry
	}
}

func (s *Service) countCacheHit() {
	if s.metrics != nil {
		s.metrics.CacheHitsTotal.WithLabelValues(constants.CachePrefixAirports).Inc()
	}
}

func (s *Service) countCacheMiss() {
	if s.metrics != nil {
		s.metrics.CacheMissesTotal.WithLabelValues(constants.CachePrefixAirports).Inc()
	}
}
