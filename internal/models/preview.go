package models

// PreviewInput is the minimal user input that starts an add-flight preview.
type PreviewInput struct {
	Query        string   `json:"query,omitempty"`   // legacy: "AI 157"
	Airline      string   `json:"airline,omitempty"` // IATA like "AI"
	FlightNumber string   `json:"flight_number,omitempty"`
	Date         string   `json:"date,omitempty"` // YYYY-MM-DD
	DepAirport   string   `json:"dep_airport,omitempty"`
	Travellers   []string `json:"travellers,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// Preview error codes surfaced to the caller.
const (
	PreviewErrBadDate    = "bad_date"
	PreviewErrBadQuery   = "bad_query"
	PreviewErrIncomplete = "incomplete"
	PreviewErrNoMatch    = "no_match_or_no_provider"
)

// PreviewState is the single staged add-flight slot. At most one exists per
// engine instance; a new preview replaces it, confirm or clear empties it.
type PreviewState struct {
	Ready  bool          `json:"ready"`
	Error  string        `json:"error,omitempty"`
	Hint   string        `json:"hint,omitempty"`
	Input  *PreviewInput `json:"input,omitempty"`
	Flight *FlightRecord `json:"flight,omitempty"`
}
