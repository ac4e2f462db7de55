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

// AviationstackProvider implements schedule, status and directory resolution
// against the Aviationstack REST API.
type AviationstackProvider struct {
	AccessKey string
	// Free plans often require plain HTTP; http is tried before https.
	BaseURLs []string
	Client   *http.Client
}

// NewAviationstackProvider creates a new Aviationstack provider
func NewAviationstackProvider(accessKey string) *AviationstackProvider {
	return &AviationstackProvider{
		AccessKey: strings.TrimSpace(accessKey),
		BaseURLs: []string{
			"http://api.aviationstack.com/v1",
			"https://api.aviationstack.com/v1",
		},
		Client: &http.Client{Timeout: constants.DefaultProviderTimeout},
	}
}

// Name returns the provider identifier
func (p *AviationstackProvider) Name() string { return constants.ProviderAviationstack }

// ============================================================================
// Response DTOs
// ============================================================================

type asLeg struct {
	Airport   string `json:"airport"`
	IATA      string `json:"iata"`
	Terminal  string `json:"terminal"`
	Gate      string `json:"gate"`
	Delay     *int   `json:"delay"`
	Scheduled string `json:"scheduled"`
	Estimated string `json:"estimated"`
	Actual    string `json:"actual"`
}

type asFlight struct {
	FlightStatus string `json:"flight_status"`
	Departure    asLeg  `json:"departure"`
	Arrival      asLeg  `json:"arrival"`
	Airline      struct {
		Name string `json:"name"`
		IATA string `json:"iata"`
	} `json:"airline"`
	Flight struct {
		Number string `json:"number"`
		IATA   string `json:"iata"`
	} `json:"flight"`
	Aircraft *struct {
		IATA   string `json:"iata"`
		ICAO24 string `json:"icao24"`
	} `json:"aircraft"`
}

type asFlightsResponse struct {
	Data  []asFlight      `json:"data"`
	Error json.RawMessage `json:"error"`
}

type asAirport struct {
	AirportName string `json:"airport_name"`
	IATACode    string `json:"iata_code"`
	ICAOCode    string `json:"icao_code"`
	Timezone    string `json:"timezone"`
	CountryName string `json:"country_name"`
	City        string `json:"city"`
	Latitude    string `json:"latitude"`
	Longitude   string `json:"longitude"`
}

type asAirportsResponse struct {
	Data  []asAirport     `json:"data"`
	Error json.RawMessage `json:"error"`
}

// ============================================================================
// Capabilities
// ============================================================================

// ResolveSchedule resolves dep/arr airports and scheduled times for
// airline+number+date. When the same flight number serves multiple routes on
// the date, depHint disambiguates; otherwise the primary match is used and
// flagged ambiguous.
func (p *AviationstackProvider) ResolveSchedule(ctx context.Context, airline, number, date, depHint string) (*Schedule, error) {
	flights, err := p.fetchFlights(ctx, airline, number, date)
	if err != nil {
		return nil, err
	}
	if len(flights) == 0 {
		return nil, nil
	}

	hint := strings.ToUpper(strings.TrimSpace(depHint))
	best := flights[0]
	if hint != "" {
		for _, f := range flights {
			if strings.EqualFold(f.Departure.IATA, hint) {
				best = f
				break
			}
		}
	}

	routes := make(map[string]bool)
	for _, f := range flights {
		routes[f.Departure.IATA+"-"+f.Arrival.IATA] = true
	}

	return &Schedule{
		AirlineCode:  airline,
		FlightNumber: number,
		DepAirport:   strings.ToUpper(best.Departure.IATA),
		ArrAirport:   strings.ToUpper(best.Arrival.IATA),
		DepScheduled: ParseTimeUTC(best.Departure.Scheduled),
		ArrScheduled: ParseTimeUTC(best.Arrival.Scheduled),
		AirlineName:  best.Airline.Name,
		AircraftType: aircraftType(best),
		Ambiguous:    hint == "" && len(routes) > 1,
	}, nil
}

// ResolveStatus fetches the live status snapshot for a tracked flight.
// The best match is picked by dep/arr airport when the record knows them.
func (p *AviationstackProvider) ResolveStatus(ctx context.Context, rec *models.FlightRecord) (*StatusSnapshot, error) {
	flights, err := p.fetchFlights(ctx, rec.Key.AirlineCode, rec.Key.FlightNumber, rec.Key.DepartureDate)
	if err != nil {
		return nil, err
	}
	if len(flights) == 0 {
		return nil, nil
	}

	depIATA := strings.ToUpper(rec.Dep.Airport.IATA)
	arrIATA := strings.ToUpper(rec.Arr.Airport.IATA)

	best := flights[0]
	if depIATA != "" && arrIATA != "" {
		for _, f := range flights {
			if strings.EqualFold(f.Departure.IATA, depIATA) && strings.EqualFold(f.Arrival.IATA, arrIATA) {
				best = f
				break
			}
		}
	}

	delay := 0
	if best.Departure.Delay != nil {
		delay = *best.Departure.Delay
	} else if best.Arrival.Delay != nil {
		delay = *best.Arrival.Delay
	}

	snap := &StatusSnapshot{
		Provider:     constants.ProviderAviationstack,
		State:        models.NormalizeStatus(best.FlightStatus),
		DepScheduled: ParseTimeUTC(best.Departure.Scheduled),
		DepEstimated: ParseTimeUTC(best.Departure.Estimated),
		DepActual:    ParseTimeUTC(best.Departure.Actual),
		ArrScheduled: ParseTimeUTC(best.Arrival.Scheduled),
		ArrEstimated: ParseTimeUTC(best.Arrival.Estimated),
		ArrActual:    ParseTimeUTC(best.Arrival.Actual),
		DepIATA:      strings.ToUpper(best.Departure.IATA),
		ArrIATA:      strings.ToUpper(best.Arrival.IATA),
		DepTerminal:  best.Departure.Terminal,
		DepGate:      best.Departure.Gate,
		ArrTerminal:  best.Arrival.Terminal,
		ArrGate:      best.Arrival.Gate,
		AirlineName:  best.Airline.Name,
		AircraftType: aircraftType(best),
		DelayMinutes: delay,
	}
	if best.Aircraft != nil {
		snap.ICAO24 = strings.ToLower(best.Aircraft.ICAO24)
	}
	return snap, nil
}

// ResolveAirport looks up airport directory metadata by IATA code.
func (p *AviationstackProvider) ResolveAirport(ctx context.Context, iata string) (*models.DirectoryEntry, error) {
	code := strings.ToUpper(strings.TrimSpace(iata))
	if code == "" {
		return nil, &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: "IATA code cannot be empty",
		}
	}

	params := url.Values{}
	params.Set("iata_code", code)
	params.Set("limit", "5")

	var resp asAirportsResponse
	if err := p.doGET(ctx, "/airports", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}

	a := resp.Data[0]
	entry := &models.DirectoryEntry{
		IATA:      code,
		ICAO:      a.ICAOCode,
		Name:      a.AirportName,
		City:      a.City,
		Country:   a.CountryName,
		TZ:        a.Timezone,
		Source:    constants.ProviderAviationstack,
		FetchedAt: time.Now().UTC(),
	}
	fmt.Sscanf(a.Latitude, "%f", &entry.Lat)
	fmt.Sscanf(a.Longitude, "%f", &entry.Lon)
	return entry, nil
}

// ============================================================================
// HTTP Helpers
// ============================================================================

func (p *AviationstackProvider) fetchFlights(ctx context.Context, airline, number, date string) ([]asFlight, error) {
	flightIATA := strings.ToUpper(strings.TrimSpace(airline)) + strings.TrimSpace(number)

	// Try with and without flight_date; plans vary in what they accept.
	variants := []url.Values{}
	if date != "" {
		withDate := url.Values{}
		withDate.Set("flight_iata", flightIATA)
		withDate.Set("flight_date", date)
		withDate.Set("limit", "10")
		variants = append(variants, withDate)
	}
	bare := url.Values{}
	bare.Set("flight_iata", flightIATA)
	bare.Set("limit", "10")
	variants = append(variants, bare)

	var lastErr error
	for _, params := range variants {
		var resp asFlightsResponse
		if err := p.doGET(ctx, "/flights", params, &resp); err != nil {
			lastErr = err
			continue
		}
		if len(resp.Error) > 0 {
			lastErr = &ProviderError{
				Code:    constants.ErrCodeRateLimited,
				Message: constants.GetErrorMessage(constants.ErrCodeRateLimited),
				Details: string(resp.Error),
			}
			continue
		}
		if len(resp.Data) > 0 {
			return resp.Data, nil
		}
	}
	return nil, lastErr
}

// doGET performs a GET against the first base URL that answers.
func (p *AviationstackProvider) doGET(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	if p.AccessKey == "" {
		return &ProviderError{
			Code:    constants.ErrCodeInvalidAPIKey,
			Message: "aviationstack access key is not configured",
		}
	}
	params.Set("access_key", p.AccessKey)

	var lastErr error
	for _, base := range p.BaseURLs {
		reqURL := base + endpoint + "?" + params.Encode()
		req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
		if err != nil {
			return &ProviderError{
				Code:    constants.ErrCodeNetworkError,
				Message: "Failed to create request",
				Err:     err,
			}
		}

		resp, err := p.Client.Do(req)
		if err != nil {
			lastErr = &ProviderError{
				Code:    constants.ErrCodeNetworkError,
				Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
				Err:     err,
			}
			continue
		}

		if err := p.handleHTTPError(resp, endpoint); err != nil {
			resp.Body.Close()
			lastErr = err
			continue
		}

		err = json.NewDecoder(resp.Body).Decode(result)
		resp.Body.Close()
		if err != nil {
			lastErr = &ProviderError{
				Code:    constants.ErrCodeInvalidDataFormat,
				Message: "Failed to decode response",
				Err:     err,
			}
			continue
		}
		return nil
	}
	return lastErr
}

func (p *AviationstackProvider) handleHTTPError(resp *http.Response, endpoint string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	bodyBytes, _ := io.ReadAll(resp.Body)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &ProviderError{
			Code:    constants.ErrCodeInvalidAPIKey,
			Message: fmt.Sprintf("Authentication failed for endpoint %s", endpoint),
			Details: string(bodyBytes),
		}
	case http.StatusTooManyRequests:
		return &ProviderError{
			Code:    constants.ErrCodeRateLimited,
			Message: constants.GetErrorMessage(constants.ErrCodeRateLimited),
			Details: string(bodyBytes),
		}
	default:
		return &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, endpoint),
			Details: string(bodyBytes),
		}
	}
}

func aircraftType(f asFlight) string {
	if f.Aircraft == nil {
		return ""
	}
	return f.Aircraft.IATA
}
