package handler

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/dearxcorex/MakeItFast/internal/api/models"
	"github.com/dearxcorex/MakeItFast/internal/api/response"
	"github.com/dearxcorex/MakeItFast/internal/featureflags"
)

// FeatureFlagsHandler handles runtime flag endpoints.
type FeatureFlagsHandler struct {
	service *featureflags.Service
}

// NewFeatureFlagsHandler creates a new FeatureFlagsHandler.
func NewFeatureFlagsHandler(service *featureflags.Service) *FeatureFlagsHandler {
	return &FeatureFlagsHandler{service: service}
}

// ListFlags handles GET /v1/flags - all flags, key ascending.
func (h *FeatureFlagsHandler) ListFlags(w http.ResponseWriter, r *http.Request) {
	flags := h.service.GetAllFlags(r.Context())

	items := make([]models.Flag, 0, len(flags))
	for _, f := range flags {
		items = append(items, toAPIFlag(f))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })

	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

// GetFlag handles GET /v1/flags/{key} - public read of a single flag.
func (h *FeatureFlagsHandler) GetFlag(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	flag := h.service.GetFlag(r.Context(), key)
	if flag == nil {
		response.NotFound(w, r, "unknown flag "+key)
		return
	}

	response.JSON(w, r, http.StatusOK, toAPIFlag(flag))
}

// SetFlag handles PUT /v1/flags/{key} - authenticated flag write.
func (h *FeatureFlagsHandler) SetFlag(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req models.FlagUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if req.Enabled == nil {
		response.BadRequest(w, r, "validation error", []models.FieldError{
			{Field: "enabled", Message: "enabled is required", Code: models.CodeInvalidField},
		})
		return
	}

	flag := &featureflags.Flag{Key: key, Enabled: *req.Enabled}
	if err := h.service.SetFlag(r.Context(), flag); err != nil {
		response.InternalError(w, r, "failed to update flag")
		return
	}

	response.JSON(w, r, http.StatusOK, toAPIFlag(flag))
}

func toAPIFlag(f *featureflags.Flag) models.Flag {
	return models.Flag{
		Key:       f.Key,
		Enabled:   f.Enabled,
		UpdatedAt: models.Timestamp(f.UpdatedAt),
	}
}
