// Package handler provides HTTP handlers for the MakeItFast API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/dearxcorex/MakeItFast/internal/api/models"
	"github.com/dearxcorex/MakeItFast/internal/api/response"
	"github.com/dearxcorex/MakeItFast/internal/featureflags"
)

// Pinger checks connectivity to a backing store. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	db        Pinger
	flags     *featureflags.Service
}

// NewOpsHandler creates a new OpsHandler. db and flags are optional; absent
// dependencies are simply left out of the status report.
func NewOpsHandler(version, buildTime string, db Pinger, flags *featureflags.Service) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		db:        db,
		flags:     flags,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. Fails while
// the database is unreachable so the load balancer routes elsewhere.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			health.Status = models.HealthStatusFail
			health.Details = map[string]interface{}{"postgres": err.Error()}
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - subsystem and flag status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())
	status := models.SystemStatus{
		Status: models.HealthStatusOK,
		Time:   now,
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		sub := models.SubsystemStatus{Name: "postgres", Status: models.HealthStatusOK}
		if err := h.db.Ping(ctx); err != nil {
			detail := err.Error()
			sub.Status = models.HealthStatusFail
			sub.Detail = &detail
			status.Status = models.HealthStatusFail
		}
		status.Subsystems = append(status.Subsystems, sub)
	}

	if h.flags != nil {
		if h.flags.ReadOnlyMode(r.Context()) {
			status.ActiveDegradationFlags = append(status.ActiveDegradationFlags, featureflags.FlagReadOnlyMode)
		}
		if !h.flags.LiveFeedEnabled(r.Context()) {
			// The feed being withdrawn degrades trackers to polling.
			status.ActiveDegradationFlags = append(status.ActiveDegradationFlags, "live_feed_disabled")
		}
		if status.Status == models.HealthStatusOK && len(status.ActiveDegradationFlags) > 0 {
			status.Status = models.HealthStatusDegraded
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}
