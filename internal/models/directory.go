package models

import "time"

// DirectoryEntry is cached airport metadata keyed by IATA code.
type DirectoryEntry struct {
	IATA      string    `json:"iata"`
	ICAO      string    `json:"icao,omitempty"`
	Name      string    `json:"name,omitempty"`
	City      string    `json:"city,omitempty"`
	Country   string    `json:"country,omitempty"`
	TZ        string    `json:"tz,omitempty"`
	TZShort   string    `json:"tz_short,omitempty"`
	LogoURL   string    `json:"logo_url,omitempty"`
	Lat       float64   `json:"lat,omitempty"`
	Lon       float64   `json:"lon,omitempty"`
	Source    string    `json:"source,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}
