package constants

import "time"

// Cache key prefixes
const (
	CachePrefixAirports = "airports:"
	CachePrefixAirlines = "airlines:"
	CachePrefixPreviews = "previews:"
)

// Provider identifiers
const (
	ProviderAviationstack = "aviationstack"
	ProviderAirLabs       = "airlabs"
	ProviderOpenSky       = "opensky"
	ProviderLocal         = "local"
	ProviderMock          = "mock"
	ProviderAuto          = "auto"
)

// Capabilities a provider may declare
const (
	CapabilitySchedule  = "schedule"
	CapabilityStatus    = "status"
	CapabilityPosition  = "position"
	CapabilityDirectory = "directory"
)

// DepAirportPlaceholder is used in flight keys when the departure airport is
// not yet known at preview time, so the key stays stable.
const DepAirportPlaceholder = "XXX"

// AirlineLogoURLFormat is the lightweight logo CDN pattern, keyed by IATA code.
const AirlineLogoURLFormat = "https://pics.avs.io/64/64/%s.png"

// DefaultProviderTimeout bounds every outbound provider call.
const DefaultProviderTimeout = 25 * time.Second
