package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"skydeck/flightdeck/internal/models"
)

type flightListResponse struct {
	Flights []*models.FlightRecord `json:"flights"`
	Count   int                    `json:"count"`
}

// ListFlightsHandler handles GET /api/v1/flights
func (h *Handlers) ListFlightsHandler(w http.ResponseWriter, r *http.Request) {
	flights, err := h.deps.Services.Flights.List(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list flights")
		return
	}
	if flights == nil {
		flights = []*models.FlightRecord{}
	}
	respondWithSuccess(w, http.StatusOK, &flightListResponse{Flights: flights, Count: len(flights)})
}

// GetFlightHandler handles GET /api/v1/flights/{key}
func (h *Handlers) GetFlightHandler(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	rec, err := h.deps.Services.Flights.Get(r.Context(), key)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to fetch flight")
		return
	}
	if rec == nil {
		respondWithError(w, http.StatusNotFound, "flight not found")
		return
	}
	respondWithSuccess(w, http.StatusOK, rec)
}

// RemoveFlightHandler handles DELETE /api/v1/flights/{key}
func (h *Handlers) RemoveFlightHandler(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	removed, err := h.deps.Services.Flights.Remove(r.Context(), key)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to remove flight")
		return
	}
	if !removed {
		respondWithError(w, http.StatusNotFound, "flight not found")
		return
	}
	respondWithSuccess(w, http.StatusOK, &map[string]string{"removed": key})
}

// ClearFlightsHandler handles DELETE /api/v1/flights
func (h *Handlers) ClearFlightsHandler(w http.ResponseWriter, r *http.Request) {
	n, err := h.deps.Services.Flights.Clear(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to clear flights")
		return
	}
	respondWithSuccess(w, http.StatusOK, &map[string]int{"removed": n})
}

// AddFlightHandler handles POST /api/v1/flights. It resolves and persists
// the flight in one step without going through the preview slot.
func (h *Handlers) AddFlightHandler(w http.ResponseWriter, r *http.Request) {
	var input models.PreviewInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.deps.Services.Preview.AddManual(r.Context(), &input)
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondWithSuccess(w, http.StatusCreated, rec)
}

// PruneFlightsHandler handles POST /api/v1/flights/prune
func (h *Handlers) PruneFlightsHandler(w http.ResponseWriter, r *http.Request) {
	cutoff := time.Duration(h.deps.Cfg.PruneCutoffHours) * time.Hour
	n, err := h.deps.Services.Flights.Prune(r.Context(), cutoff, time.Now().UTC())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "prune failed")
		return
	}
	respondWithSuccess(w, http.StatusOK, &map[string]int{"pruned": n})
}

// RefreshFlightsHandler handles POST /api/v1/flights/refresh. It refreshes
// every non-terminal flight immediately; provider budgets still apply.
func (h *Handlers) RefreshFlightsHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := h.refreshJob.RefreshAll(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "refresh failed")
		return
	}
	if summary == nil {
		respondWithError(w, http.StatusConflict, "a refresh sweep is already running")
		return
	}
	respondWithSuccess(w, http.StatusOK, summary)
}
