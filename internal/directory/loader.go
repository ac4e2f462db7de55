package directory

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	_ "embed"

	"skydeck/flightdeck/internal/models"
)

//go:embed seed_airports.json
var seedAirportsJSON []byte

// rawSeedAirport mirrors the shipped reference dataset.
type rawSeedAirport struct {
	IATA    string  `json:"iata"`
	ICAO    string  `json:"icao"`
	Name    string  `json:"name"`
	City    string  `json:"city"`
	Country string  `json:"country"`
	TZ      string  `json:"tz"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// LoadSeed parses the embedded reference dataset, keyed by IATA code.
func LoadSeed() (map[string]*models.DirectoryEntry, error) {
	var raw map[string]rawSeedAirport
	if err := json.Unmarshal(seedAirportsJSON, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode seed airports: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("no airport data found in seed dataset")
	}

	now := time.Now().UTC()
	index := make(map[string]*models.DirectoryEntry, len(raw))
	for _, a := range raw {
		iata := strings.ToUpper(strings.TrimSpace(a.IATA))
		if iata == "" {
			continue
		}
		index[iata] = &models.DirectoryEntry{
			IATA:      iata,
			ICAO:      strings.ToUpper(strings.TrimSpace(a.ICAO)),
			Name:      strings.TrimSpace(a.Name),
			City:      strings.TrimSpace(a.City),
			Country:   strings.TrimSpace(a.Country),
			TZ:        strings.TrimSpace(a.TZ),
			Lat:       a.Lat,
			Lon:       a.Lon,
			Source:    "seed",
			FetchedAt: now,
		}
	}
	return index, nil
}

// FetchOpenflights downloads an airports.dat-style CSV and indexes it by
// IATA code. Row format: Airport ID, Name, City, Country, IATA, ICAO, Lat,
// Lon, Altitude, Timezone, DST, TZ database time zone, type, source.
func FetchOpenflights(ctx context.Context, client *http.Client, url string) (map[string]*models.DirectoryEntry, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download airports dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("airports dataset returned HTTP %d", resp.StatusCode)
	}

	return parseOpenflights(resp.Body)
}

func parseOpenflights(r io.Reader) (map[string]*models.DirectoryEntry, error) {
	now := time.Now().UTC()
	index := make(map[string]*models.DirectoryEntry)

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Tolerate malformed rows; the dataset is community-maintained.
			continue
		}
		if len(row) < 12 {
			continue
		}

		iata := scrub(row[4])
		if iata == "" {
			continue
		}
		iata = strings.ToUpper(iata)

		tz := scrub(row[11])
		// Normalize legacy alias to modern IANA name
		if tz == "Asia/Calcutta" {
			tz = "Asia/Kolkata"
		}

		entry := &models.DirectoryEntry{
			IATA:      iata,
			ICAO:      strings.ToUpper(scrub(row[5])),
			Name:      scrub(row[1]),
			City:      scrub(row[2]),
			Country:   scrub(row[3]),
			TZ:        tz,
			Source:    "openflights",
			FetchedAt: now,
		}
		if lat, err := strconv.ParseFloat(scrub(row[6]), 64); err == nil {
			entry.Lat = lat
		}
		if lon, err := strconv.ParseFloat(scrub(row[7]), 64); err == nil {
			entry.Lon = lon
		}
		index[iata] = entry
	}

	if len(index) == 0 {
		return nil, fmt.Errorf("no airports parsed from dataset")
	}
	return index, nil
}

// scrub trims a CSV field and maps openflights' "\N" null marker to empty.
func scrub(s string) string {
	v := strings.TrimSpace(s)
	if v == `\N` {
		return ""
	}
	return v
}
