package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dearxcorex/MakeItFast/internal/api/middleware"
	"github.com/dearxcorex/MakeItFast/internal/api/models"
	"github.com/dearxcorex/MakeItFast/internal/api/response"
	"github.com/dearxcorex/MakeItFast/internal/featureflags"
	"github.com/dearxcorex/MakeItFast/internal/station"
)

// StationHandler handles station endpoints.
type StationHandler struct {
	stations *station.Service
	flags    *featureflags.Service
}

// NewStationHandler creates a new StationHandler.
func NewStationHandler(stations *station.Service, flags *featureflags.Service) *StationHandler {
	return &StationHandler{
		stations: stations,
		flags:    flags,
	}
}

// ListStations handles GET /v1/stations - full collection, name ascending.
func (h *StationHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	list, err := h.stations.List(r.Context())
	if err != nil {
		response.InternalError(w, r, "failed to load stations")
		return
	}

	response.JSON(w, r, http.StatusOK, list)
}

// GetStation handles GET /v1/stations/{stationId}.
func (h *StationHandler) GetStation(w http.ResponseWriter, r *http.Request) {
	id, ok := stationID(w, r)
	if !ok {
		return
	}

	st, err := h.stations.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, station.ErrStationNotFound) {
			h.writeNotFound(w, r, id)
			return
		}
		response.InternalError(w, r, "failed to load station")
		return
	}

	response.JSON(w, r, http.StatusOK, st)
}

// PatchStation handles PATCH /v1/stations/{stationId} - partial update.
func (h *StationHandler) PatchStation(w http.ResponseWriter, r *http.Request) {
	id, ok := stationID(w, r)
	if !ok {
		return
	}

	if h.flags != nil && h.flags.ReadOnlyMode(r.Context()) {
		traceID := middleware.GetRequestID(r.Context())
		problem := models.NewServiceUnavailable(traceID, "station edits are frozen").
			WithCode(models.CodeReadOnlyMode).
			WithHint("Retry after the audit window closes.")
		response.Error(w, r, problem)
		return
	}

	var req models.StationPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	updated, err := h.stations.Patch(r.Context(), id, &req)
	if err != nil {
		h.writePatchError(w, r, id, err)
		return
	}

	response.JSON(w, r, http.StatusOK, updated)
}

// RecentlyChanged handles GET /v1/stations/recent?since=<seconds>.
func (h *StationHandler) RecentlyChanged(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("since")
	if raw == "" {
		response.BadRequest(w, r, "since is required", []models.FieldError{
			{Field: "since", Message: "must be provided", Code: models.CodeInvalidField},
		})
		return
	}

	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seconds < 1 || seconds > 86400 {
		response.BadRequest(w, r, "invalid since parameter", []models.FieldError{
			{Field: "since", Message: "must be an integer between 1 and 86400", Code: models.CodeInvalidField},
		})
		return
	}

	list, err := h.stations.RecentlyChanged(r.Context(), time.Duration(seconds)*time.Second)
	if err != nil {
		var verr *station.ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(w, r, "invalid since parameter", verr.Errors)
			return
		}
		response.InternalError(w, r, "failed to load recent changes")
		return
	}

	response.JSON(w, r, http.StatusOK, list)
}

// stationID extracts and validates the station id path parameter. Malformed
// ids are rejected with a validation problem, never coerced to a number.
func stationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "stationId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		response.BadRequest(w, r, "invalid station id", []models.FieldError{
			{Field: "stationId", Message: "must be a positive integer", Code: models.CodeInvalidField},
		})
		return 0, false
	}
	return id, true
}

func (h *StationHandler) writeNotFound(w http.ResponseWriter, r *http.Request, id int64) {
	traceID := middleware.GetRequestID(r.Context())
	problem := models.NewNotFound(traceID, "station "+strconv.FormatInt(id, 10)+" does not exist").
		WithCode(models.CodeStationNotFound).
		WithHint("The station may have been removed; refresh the list.")
	response.Error(w, r, problem)
}

func (h *StationHandler) writePatchError(w http.ResponseWriter, r *http.Request, id int64, err error) {
	switch {
	case errors.Is(err, station.ErrStationNotFound):
		h.writeNotFound(w, r, id)
	case errors.Is(err, station.ErrEmptyPatch):
		traceID := middleware.GetRequestID(r.Context())
		problem := models.NewBadRequest(traceID, "patch contains no fields", nil).
			WithCode(models.CodeEmptyPatch).
			WithHint("Send at least one of onAir, inspection68, details, unwanted, submitRequest.")
		response.Error(w, r, problem)
	default:
		var verr *station.ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(w, r, "validation error", verr.Errors)
			return
		}
		response.InternalError(w, r, "failed to update station")
	}
}
