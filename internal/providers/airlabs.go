package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"skydeck/flightdeck/internal/constants"
	"skydeck/flightdeck/internal/models"
)

// AirLabsProvider implements status resolution against the AirLabs API.
// AirLabs responses also carry the transponder hex code, which feeds the
// position chain.
type AirLabsProvider struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewAirLabsProvider creates a new AirLabs provider
func NewAirLabsProvider(apiKey string) *AirLabsProvider {
	return &AirLabsProvider{
		APIKey:  strings.TrimSpace(apiKey),
		BaseURL: "https://airlabs.co/api/v9",
		Client:  &http.Client{Timeout: constants.DefaultProviderTimeout},
	}
}

// Name returns the provider identifier
func (p *AirLabsProvider) Name() string { return constants.ProviderAirLabs }

type alFlightResponse struct {
	Response *alFlight       `json:"response"`
	Error    json.RawMessage `json:"error"`
}

// AirLabs renames fields between plan tiers; keep the fallbacks.
type alFlight struct {
	Status string `json:"status"`

	DepScheduled string `json:"dep_scheduled"`
	DepTimeUTC   string `json:"dep_time_utc"`
	DepTime      string `json:"dep_time"`
	DepEstimated string `json:"dep_estimated_utc"`
	DepActual    string `json:"dep_actual_utc"`

	ArrScheduled string `json:"arr_scheduled"`
	ArrTimeUTC   string `json:"arr_time_utc"`
	ArrTime      string `json:"arr_time"`
	ArrEstimated string `json:"arr_estimated_utc"`
	ArrActual    string `json:"arr_actual_utc"`

	DepIATA     string `json:"dep_iata"`
	ArrIATA     string `json:"arr_iata"`
	DepTerminal string `json:"dep_terminal"`
	DepGate     string `json:"dep_gate"`
	ArrTerminal string `json:"arr_terminal"`
	ArrGate     string `json:"arr_gate"`

	AirlineName string `json:"airline_name"`
	Aircraft    string `json:"aircraft_icao"`
	Delay       int    `json:"delay"`
	Hex         string `json:"hex"`
}

// ResolveStatus fetches flight status from AirLabs and normalizes fields.
func (p *AirLabsProvider) ResolveStatus(ctx context.Context, rec *models.FlightRecord) (*StatusSnapshot, error) {
	if p.APIKey == "" {
		return nil, &ProviderError{
			Code:    constants.ErrCodeInvalidAPIKey,
			Message: "airlabs API key is not configured",
		}
	}

	flightIATA := strings.ToUpper(rec.Key.AirlineCode) + rec.Key.FlightNumber
	params := url.Values{}
	params.Set("api_key", p.APIKey)
	params.Set("flight_iata", flightIATA)

	reqURL := p.BaseURL + "/flight?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "Failed to create request",
			Err:     err,
		}
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

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		code := constants.ErrCodeNetworkError
		if resp.StatusCode == http.StatusTooManyRequests {
			code = constants.ErrCodeRateLimited
		}
		return nil, &ProviderError{
			Code:    code,
			Message: fmt.Sprintf("HTTP %d from /flight", resp.StatusCode),
			Details: string(bodyBytes),
		}
	}

	var payload alFlightResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: "Failed to decode response",
			Err:     err,
		}
	}
	if payload.Response == nil {
		if len(payload.Error) > 0 {
			return nil, &ProviderError{
				Code:    constants.ErrCodeRateLimited,
				Message: constants.GetErrorMessage(constants.ErrCodeRateLimited),
				Details: string(payload.Error),
			}
		}
		return nil, nil
	}

	f := payload.Response
	return &StatusSnapshot{
		Provider:     constants.ProviderAirLabs,
		State:        models.NormalizeStatus(f.Status),
		DepScheduled: firstTime(f.DepScheduled, f.DepTimeUTC, f.DepTime),
		DepEstimated: ParseTimeUTC(f.DepEstimated),
		DepActual:    ParseTimeUTC(f.DepActual),
		ArrScheduled: firstTime(f.ArrScheduled, f.ArrTimeUTC, f.ArrTime),
		ArrEstimated: ParseTimeUTC(f.ArrEstimated),
		ArrActual:    ParseTimeUTC(f.ArrActual),
		DepIATA:      strings.ToUpper(f.DepIATA),
		ArrIATA:      strings.ToUpper(f.ArrIATA),
		DepTerminal:  f.DepTerminal,
		DepGate:      f.DepGate,
		ArrTerminal:  f.ArrTerminal,
		ArrGate:      f.ArrGate,
		AirlineName:  f.AirlineName,
		AircraftType: f.Aircraft,
		DelayMinutes: f.Delay,
		ICAO24:       strings.ToLower(strings.TrimSpace(f.Hex)),
	}, nil
}

func firstTime(candidates ...string) *time.Time {
	for _, c := range candidates {
		if t := ParseTimeUTC(c); t != nil {
			return t
		}
	}
	return nil
}
