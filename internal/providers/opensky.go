package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"skydeck/flightdeck/internal/constants"
	"skydeck/flightdeck/internal/models"
)

// Unit conversions for OpenSky state vectors (SI units on the wire).
const (
	metersToFeet = 3.28084
	mpsToKnots   = 1.94384
)

// OpenSkyProvider resolves live aircraft positions from ADS-B state vectors.
// It needs the transponder hex code (icao24), which the status chain fills in
// from AirLabs or Aviationstack responses.
type OpenSkyProvider struct {
	Username string
	Password string
	BaseURL  string
	Client   *http.Client
}

// NewOpenSkyProvider creates a new OpenSky provider
func NewOpenSkyProvider(username, password string) *OpenSkyProvider {
	return &OpenSkyProvider{
		Username: strings.TrimSpace(username),
		Password: strings.TrimSpace(password),
		BaseURL:  "https://opensky-network.org/api",
		Client:   &http.Client{Timeout: constants.DefaultProviderTimeout},
	}
}

// Name returns the provider identifier
func (p *OpenSkyProvider) Name() string { return constants.ProviderOpenSky }

type osStatesResponse struct {
	Time   int64           `json:"time"`
	States [][]interface{} `json:"states"`
}

// ResolvePosition fetches the latest state vector for the flight's icao24.
func (p *OpenSkyProvider) ResolvePosition(ctx context.Context, rec *models.FlightRecord) (*models.Position, error) {
	icao24 := strings.ToLower(strings.TrimSpace(rec.ICAO24))
	if icao24 == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("icao24", icao24)

	req, err := http.NewRequestWithContext(ctx, "GET", p.BaseURL+"/states/all?"+params.Encode(), nil)
	if err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "Failed to create request",
			Err:     err,
		}
	}
	if p.Username != "" {
		req.SetBasicAuth(p.Username, p.Password)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &ProviderError{
			Code:    constants.ErrCodeRateLimited,
			Message: constants.GetErrorMessage(constants.ErrCodeRateLimited),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: fmt.Sprintf("HTTP %d from /states/all", resp.StatusCode),
		}
	}

	var payload osStatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: "Failed to decode response",
			Err:     err,
		}
	}
	if len(payload.States) == 0 {
		return nil, nil
	}

	// State vector: [icao24, callsign, origin_country, time_position,
	// last_contact, longitude, latitude, baro_altitude, on_ground, velocity, ...]
	s := payload.States[0]
	if len(s) < 10 {
		return nil, nil
	}

	lon, okLon := asFloat(s[5])
	lat, okLat := asFloat(s[6])
	if !okLon || !okLat {
		return nil, nil
	}

	pos := &models.Position{
		Lat: lat,
		Lon: lon,
		At:  time.Unix(payload.Time, 0).UTC(),
	}
	if alt, ok := asFloat(s[7]); ok {
		pos.AltitudeFt = alt * metersToFeet
	}
	if vel, ok := asFloat(s[9]); ok {
		pos.SpeedKts = vel * mpsToKnots
	}
	return pos, nil
}

func asFloat(v interface{}) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}
