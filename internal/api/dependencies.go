package api

import (
	"fmt"
	"net/http"
	"time"

	"skydeck/flightdeck/internal/common"
	"skydeck/flightdeck/internal/config"
	"skydeck/flightdeck/internal/constants"
	"skydeck/flightdeck/internal/db"
	"skydeck/flightdeck/internal/db/repositories"
	"skydeck/flightdeck/internal/directory"
	"skydeck/flightdeck/internal/logging"
	"skydeck/flightdeck/internal/metrics"
	"skydeck/flightdeck/internal/providers"
	"skydeck/flightdeck/internal/services"
)

type Repositories struct {
	Flights   *repositories.FlightRepository
	Preview   *repositories.PreviewRepository
	Directory *repositories.DirectoryRepository
}

type Services struct {
	Cache     common.CacheInterface
	Auto      *providers.AutoProvider
	Cadence   *services.CadencePolicy
	Directory *directory.Service
	Flights   *services.FlightService
	Preview   *services.PreviewService
}

type Dependencies struct {
	Cfg      *config.Config
	Repo     *Repositories
	Services *Services
	Metrics  *metrics.MetricsRegistry
}

// InitDependencies wires repositories, providers and services from config.
// Expects db.InitORM and db.InitSQLX to have run.
func InitDependencies(cfg *config.Config, metricsReg *metrics.MetricsRegistry) (*Dependencies, error) {
	directoryRepo, err := repositories.NewDirectoryRepository(db.SQLX)
	if err != nil {
		return nil, err
	}

	repos := &Repositories{
		Flights:   repositories.NewFlightRepository(db.ORM),
		Preview:   repositories.NewPreviewRepository(db.ORM),
		Directory: directoryRepo,
	}

	cache, err := initCache(cfg)
	if err != nil {
		return nil, err
	}

	auto := buildAutoProvider(cfg, metricsReg)
	cadence := services.NewCadencePolicy(cfg.Cadence, cfg.StatusTTL)

	directorySvc := directory.NewService(
		cache,
		repos.Directory,
		directoryFallback(auto, cfg),
		&http.Client{Timeout: cfg.ProviderTimeout},
		cfg.OpenflightsURL,
		time.Duration(cfg.DirectoryTTLDays)*24*time.Hour,
		metricsReg,
	)

	flightSvc := services.NewFlightService(repos.Flights, directorySvc, metricsReg, cfg.MaxFlights)
	previewSvc := services.NewPreviewService(
		repos.Preview,
		flightSvc,
		auto,
		cadence,
		cfg.DaysAhead,
		cfg.IncludePastHours,
	)

	return &Dependencies{
		Cfg:  cfg,
		Repo: repos,
		Services: &Services{
			Cache:     cache,
			Auto:      auto,
			Cadence:   cadence,
			Directory: directorySvc,
			Flights:   flightSvc,
			Preview:   previewSvc,
		},
		Metrics: metricsReg,
	}, nil
}

func initCache(cfg *config.Config) (common.CacheInterface, error) {
	if cfg.CacheBackend == "redis" {
		cache, err := common.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis cache: %w", err)
		}
		logging.Info("Cache backend initialized", "backend", "redis", "addr", cfg.RedisAddr)
		return cache, nil
	}
	logging.Info("Cache backend initialized", "backend", "memory")
	return common.NewCacheService(cfg.StatusTTL, 10*time.Minute), nil
}

// buildAutoProvider assembles the per-capability fallback chains from the
// configured provider name lists. Unknown names and providers missing their
// credentials are skipped with a warning, not an error, so a partially
// configured engine still runs on what it has.
func buildAutoProvider(cfg *config.Config, m *metrics.MetricsRegistry) *providers.AutoProvider {
	var (
		aviationstack *providers.AviationstackProvider
		airlabs       *providers.AirLabsProvider
		opensky       *providers.OpenSkyProvider
		mock          = providers.NewMockProvider()
		local         = providers.NewLocalStatusProvider()
	)
	if cfg.AviationstackKey != "" {
		aviationstack = providers.NewAviationstackProvider(cfg.AviationstackKey)
	}
	if cfg.AirLabsKey != "" {
		airlabs = providers.NewAirLabsProvider(cfg.AirLabsKey)
	}
	opensky = providers.NewOpenSkyProvider(cfg.OpenSkyUsername, cfg.OpenSkyPassword)

	var scheduleChain []providers.ScheduleProvider
	for _, name := range cfg.ScheduleProviders {
		switch name {
		case constants.ProviderAviationstack:
			if aviationstack != nil {
				scheduleChain = append(scheduleChain, aviationstack)
			} else {
				logging.Warn("Schedule provider skipped, no credentials", "provider", name)
			}
		case constants.ProviderMock:
			scheduleChain = append(scheduleChain, mock)
		default:
			logging.Warn("Unknown schedule provider", "provider", name)
		}
	}

	var statusChain []providers.StatusProvider
	for _, name := range cfg.StatusProviders {
		switch name {
		case constants.ProviderAviationstack:
			if aviationstack != nil {
				statusChain = append(statusChain, aviationstack)
			} else {
				logging.Warn("Status provider skipped, no credentials", "provider", name)
			}
		case constants.ProviderAirLabs:
			if airlabs != nil {
				statusChain = append(statusChain, airlabs)
			} else {
				logging.Warn("Status provider skipped, no credentials", "provider", name)
			}
		case constants.ProviderLocal:
			statusChain = append(statusChain, local)
		case constants.ProviderMock:
			statusChain = append(statusChain, mock)
		default:
			logging.Warn("Unknown status provider", "provider", name)
		}
	}

	var positionChain []providers.PositionProvider
	if cfg.PositionEnabled {
		positionChain = append(positionChain, opensky)
	}

	var directoryChain []providers.DirectoryProvider
	for _, name := range cfg.DirectoryProviders {
		switch name {
		case constants.ProviderAviationstack:
			if aviationstack != nil {
				directoryChain = append(directoryChain, aviationstack)
			}
		default:
			logging.Warn("Unknown directory provider", "provider", name)
		}
	}

	budgets := providers.NewBudgetRegistry()
	for name, hint := range cfg.RateHints {
		budgets.Register(name, providers.NewBudget(
			name, hint.PerSecond, hint.Burst, hint.CallsPerWindow, hint.Window))
	}

	auto := providers.NewAutoProvider(
		scheduleChain, statusChain, positionChain, directoryChain,
		budgets, cfg.ProviderTimeout)
	auto.Metrics = m
	return auto
}

// directoryFallback exposes the auto directory chain to the directory cache,
// or nil when no directory-capable provider is configured.
func directoryFallback(auto *providers.AutoProvider, cfg *config.Config) providers.DirectoryProvider {
	if len(cfg.DirectoryProviders) == 0 {
		return nil
	}
	return auto
}
