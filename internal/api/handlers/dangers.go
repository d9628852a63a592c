// Package handlers contains the HTTP handler implementations for the
// SafeWalk API: hazard reporting, danger-aware route computation, and the
// free-text location search passthrough.
package handlers

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"

	"github.com/go-chi/chi/v5"

	"safewalk/internal/core"
	"safewalk/internal/danger"
	"safewalk/internal/types"
)

// ReportLocator decides where a hazard report without coordinates lands.
// The production implementation scatters reports around the configured
// default location; tests substitute a deterministic one.
type ReportLocator func() (lat, lng float64)

// JitteredLocator returns a ReportLocator that places reports uniformly
// within jitterDeg degrees of (lat, lng) on both axes.
func JitteredLocator(lat, lng, jitterDeg float64) ReportLocator {
	return func() (float64, float64) {
		return lat + (rand.Float64()*2-1)*jitterDeg,
			lng + (rand.Float64()*2-1)*jitterDeg
	}
}

// dangerReportRequest is the body for POST /api/danger. Both fields are
// optional; a report without coordinates is placed by the locator.
type dangerReportRequest struct {
	Lat *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng *float64 `json:"lng" validate:"omitempty,longitude"`
}

// dangerReportResponse confirms a recorded hazard.
type dangerReportResponse struct {
	Status string             `json:"status"`
	Point  *types.DangerPoint `json:"point"`
}

// DangerHandler manages the hazard report lifecycle: list, report, wipe.
type DangerHandler struct {
	store     danger.Store
	locator   ReportLocator
	validator *core.Validator
	logger    *slog.Logger
}

// NewDangerHandler creates a DangerHandler with the provided dependencies.
func NewDangerHandler(store danger.Store, locator ReportLocator, v *core.Validator, l *slog.Logger) *DangerHandler {
	if l == nil {
		l = slog.Default()
	}
	return &DangerHandler{
		store:     store,
		locator:   locator,
		validator: v,
		logger:    l,
	}
}

// RegisterRoutes mounts the hazard routes on the provided chi.Router.
func (h *DangerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dangers", h.List)
	r.Post("/danger", h.Report)
	r.Post("/dangers/clear", h.Clear)
}

// List handles GET /api/dangers. The response is always a JSON array,
// never null, including when the store is empty or freshly wiped.
func (h *DangerHandler) List(w http.ResponseWriter, r *http.Request) {
	points, err := h.store.List(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if points == nil {
		points = []types.DangerPoint{}
	}
	core.JSON(w, r, http.StatusOK, points)
}

// Report handles POST /api/danger. The body may carry explicit
// coordinates; when either is absent the report is auto-located. An empty
// or absent body is treated the same as an empty object, so a bare POST
// records an auto-located hazard.
func (h *DangerHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req dangerReportRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := core.DecodeJSON(w, r, &req); err != nil {
			core.Error(w, r, err)
			return
		}
		if err := h.validator.ValidateStruct(req); err != nil {
			core.Error(w, r, err)
			return
		}
	}

	var lat, lng float64
	if req.Lat != nil && req.Lng != nil {
		lat, lng = *req.Lat, *req.Lng
	} else {
		lat, lng = h.locator()
	}

	point, err := h.store.Add(r.Context(), lat, lng)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	h.logger.Info("hazard recorded",
		slog.String("id", point.ID),
		slog.Float64("lat", point.Lat),
		slog.Float64("lng", point.Lng),
	)

	core.JSON(w, r, http.StatusCreated, dangerReportResponse{
		Status: "added",
		Point:  point,
	})
}

// Clear handles POST /api/dangers/clear, wiping every recorded hazard.
func (h *DangerHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(r.Context()); err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, map[string]string{"status": "cleared"})
}

// StoreProbe adapts a pingable store into a core.HealthProbe.
type StoreProbe struct {
	Pinger interface {
		Ping(ctx context.Context) error
	}
}

// Name implements core.HealthProbe.
func (StoreProbe) Name() string { return "store" }

// Check implements core.HealthProbe.
func (p StoreProbe) Check(ctx context.Context) error { return p.Pinger.Ping(ctx) }
