package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// RateHint describes the call budget for one provider. Zero values mean
// "no limit" for that dimension.
type RateHint struct {
	PerSecond      float64
	Burst          int
	CallsPerWindow int
	Window         time.Duration
}

// CadenceThresholds are the configurable knobs of the refresh ladder.
// Every value can be overridden from the environment.
type CadenceThresholds struct {
	FarInterval        time.Duration // departure > 48h away
	DayInterval        time.Duration // departure > 24h away
	NearInterval       time.Duration // departure > 6h away
	ApproachInterval   time.Duration // departure > 2h away
	ImminentInterval   time.Duration // departure < 2h away
	InFlightInterval   time.Duration // boarding window through arrival
	UnknownPastGrace   time.Duration // unknown status past departure
	UnknownPastRetry   time.Duration
	FarThreshold       time.Duration
	DayThreshold       time.Duration
	NearThreshold      time.Duration
	ApproachThreshold  time.Duration
	BoardingWindow     time.Duration
	FallbackInterval   time.Duration
}

// Config holds all configuration for the engine. The host supplies values via
// the environment; Load validates and applies defaults.
type Config struct {
	AppEnv     string
	ListenAddr string

	// Storage
	DBDriver string // sqlite | postgres
	DBDSN    string

	// Cache backend: memory | redis
	CacheBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Provider chains, highest priority first
	ScheduleProviders  []string
	StatusProviders    []string
	DirectoryProviders []string
	PositionEnabled    bool

	// Provider credentials
	AviationstackKey string
	AirLabsKey       string
	OpenSkyUsername  string
	OpenSkyPassword  string

	// Engine knobs
	StatusTTL        time.Duration
	SweepTick        time.Duration
	ProviderTimeout  time.Duration
	MaxConcurrent    int
	IncludePastHours int
	DaysAhead        int
	MaxFlights       int
	AutoRemove       bool
	PruneCutoffHours int
	Cadence          CadenceThresholds

	// Directory cache
	DirectoryTTLDays     int
	DirectoryRefreshTick time.Duration
	OpenflightsURL       string

	// Per-provider rate-limit hints
	RateHints map[string]RateHint

	// Optional HS256 secret; when set, mutating endpoints require a bearer token
	AuthSecret string
}

// Load reads configuration from the environment with defaults.
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		AppEnv:     getEnv("APP_ENV", "development"),
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),

		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBDSN:    getEnv("DB_DSN", "flightdeck.db"),

		CacheBackend:  getEnv("CACHE_BACKEND", "memory"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		ScheduleProviders:  getEnvList("SCHEDULE_PROVIDERS", []string{"aviationstack"}),
		StatusProviders:    getEnvList("STATUS_PROVIDERS", []string{"aviationstack", "airlabs", "local"}),
		DirectoryProviders: getEnvList("DIRECTORY_PROVIDERS", []string{"aviationstack"}),
		PositionEnabled:    getEnvAsBool("POSITION_ENABLED", false),

		AviationstackKey: getEnv("AVIATIONSTACK_ACCESS_KEY", ""),
		AirLabsKey:       getEnv("AIRLABS_API_KEY", ""),
		OpenSkyUsername:  getEnv("OPENSKY_USERNAME", ""),
		OpenSkyPassword:  getEnv("OPENSKY_PASSWORD", ""),

		StatusTTL:        minutes("STATUS_TTL_MINUTES", 5),
		SweepTick:        minutes("SWEEP_TICK_MINUTES", 5),
		ProviderTimeout:  time.Duration(getEnvAsInt("PROVIDER_TIMEOUT_SECONDS", 25)) * time.Second,
		MaxConcurrent:    getEnvAsInt("MAX_CONCURRENT_REFRESH", 3),
		IncludePastHours: getEnvAsInt("INCLUDE_PAST_HOURS", 6),
		DaysAhead:        getEnvAsInt("DAYS_AHEAD", 30),
		MaxFlights:       getEnvAsInt("MAX_FLIGHTS", 50),
		AutoRemove:       getEnvAsBool("AUTO_REMOVE", true),
		PruneCutoffHours: getEnvAsInt("PRUNE_CUTOFF_HOURS", 6),

		Cadence: CadenceThresholds{
			FarInterval:       hours("CADENCE_FAR_HOURS", 12),
			DayInterval:       hours("CADENCE_DAY_HOURS", 6),
			NearInterval:      hours("CADENCE_NEAR_HOURS", 2),
			ApproachInterval:  minutes("CADENCE_APPROACH_MINUTES", 30),
			ImminentInterval:  minutes("CADENCE_IMMINENT_MINUTES", 10),
			InFlightInterval:  minutes("CADENCE_INFLIGHT_MINUTES", 15),
			UnknownPastGrace:  hours("UNKNOWN_PAST_GRACE_HOURS", 2),
			UnknownPastRetry:  minutes("UNKNOWN_PAST_RETRY_MINUTES", 30),
			FarThreshold:      hours("CADENCE_FAR_THRESHOLD_HOURS", 48),
			DayThreshold:      hours("CADENCE_DAY_THRESHOLD_HOURS", 24),
			NearThreshold:     hours("CADENCE_NEAR_THRESHOLD_HOURS", 6),
			ApproachThreshold: hours("CADENCE_APPROACH_THRESHOLD_HOURS", 2),
			BoardingWindow:    hours("CADENCE_BOARDING_WINDOW_HOURS", 1),
			FallbackInterval:  hours("CADENCE_FALLBACK_HOURS", 1),
		},

		DirectoryTTLDays:     getEnvAsInt("DIRECTORY_TTL_DAYS", 30),
		DirectoryRefreshTick: hours("DIRECTORY_REFRESH_TICK_HOURS", 24),
		OpenflightsURL:       getEnv("OPENFLIGHTS_AIRPORTS_URL", "https://raw.githubusercontent.com/jpatokal/openflights/master/data/airports.dat"),

		RateHints: loadRateHints(),

		AuthSecret: getEnv("AUTH_SECRET", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want sqlite or postgres)", c.DBDriver)
	}
	switch c.CacheBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported CACHE_BACKEND %q (want memory or redis)", c.CacheBackend)
	}
	if len(c.StatusProviders) == 0 {
		return fmt.Errorf("STATUS_PROVIDERS must name at least one provider")
	}
	if c.MaxConcurrent < 1 {
		c.MaxConcurrent = 1
	}
	if c.StatusTTL < time.Minute {
		c.StatusTTL = time.Minute
	}
	return nil
}

// loadRateHints reads RATE_<PROVIDER>_* variables, e.g.
// RATE_AVIATIONSTACK_PER_SECOND=1, RATE_AVIATIONSTACK_CALLS_PER_WINDOW=90,
// RATE_AVIATIONSTACK_WINDOW_HOURS=720.
func loadRateHints() map[string]RateHint {
	hints := make(map[string]RateHint)
	for _, name := range []string{"aviationstack", "airlabs", "opensky"} {
		prefix := "RATE_" + strings.ToUpper(name) + "_"
		hint := RateHint{
			PerSecond:      getEnvAsFloat(prefix+"PER_SECOND", 1),
			Burst:          getEnvAsInt(prefix+"BURST", 1),
			CallsPerWindow: getEnvAsInt(prefix+"CALLS_PER_WINDOW", 0),
			Window:         hours(prefix+"WINDOW_HOURS", 24),
		}
		hints[name] = hint
	}
	return hints
}

func minutes(key string, def int) time.Duration {
	return time.Duration(getEnvAsInt(key, def)) * time.Minute
}

func hours(key string, def int) time.Duration {
	return time.Duration(getEnvAsInt(key, def)) * time.Hour
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
