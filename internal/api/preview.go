package api

import (
	"encoding/json"
	"net/http"

	"skydeck/flightdeck/internal/models"
)

// PreviewHandler handles POST /api/v1/preview. It resolves the input into a
// candidate flight and stages it; input problems come back inside the state.
func (h *Handlers) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	var input models.PreviewInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.deps.Services.Preview.Preview(r.Context(), &input)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to stage preview")
		return
	}
	respondWithSuccess(w, http.StatusOK, state)
}

// CurrentPreviewHandler handles GET /api/v1/preview
func (h *Handlers) CurrentPreviewHandler(w http.ResponseWriter, r *http.Request) {
	state, err := h.deps.Services.Preview.Current(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load preview")
		return
	}
	respondWithSuccess(w, http.StatusOK, state)
}

// ConfirmPreviewHandler handles POST /api/v1/preview/confirm
func (h *Handlers) ConfirmPreviewHandler(w http.ResponseWriter, r *http.Request) {
	rec, err := h.deps.Services.Preview.Confirm(r.Context())
	if err != nil {
		respondWithError(w, http.StatusConflict, err.Error())
		return
	}
	respondWithSuccess(w, http.StatusCreated, rec)
}

// ClearPreviewHandler handles DELETE /api/v1/preview
func (h *Handlers) ClearPreviewHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Services.Preview.Clear(r.Context()); err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to clear preview")
		return
	}
	respondWithSuccess(w, http.StatusOK, &map[string]string{"preview": "cleared"})
}
