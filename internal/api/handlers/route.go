package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"safewalk/internal/core"
	"safewalk/internal/danger"
	"safewalk/internal/routing"
	"safewalk/internal/types"
)

// routeRequest is the body for POST /api/route. Start and end are
// [lat, lng] pairs.
type routeRequest struct {
	Start []float64 `json:"start" validate:"required,len=2"`
	End   []float64 `json:"end" validate:"required,len=2"`
}

// routeResponse wraps the classified candidate list.
type routeResponse struct {
	Routes []types.RouteCandidate `json:"routes"`
}

// RouteHandler computes danger-aware walking routes.
type RouteHandler struct {
	planner    *routing.Planner
	store      danger.Store
	configured bool
	validator  *core.Validator
	logger     *slog.Logger
}

// NewRouteHandler creates a RouteHandler. configured reports whether the
// Directions provider credential is present; when false the endpoint
// returns a configuration error without touching the store or planner.
func NewRouteHandler(planner *routing.Planner, store danger.Store, configured bool, v *core.Validator, l *slog.Logger) *RouteHandler {
	if l == nil {
		l = slog.Default()
	}
	return &RouteHandler{
		planner:    planner,
		store:      store,
		configured: configured,
		validator:  v,
		logger:     l,
	}
}

// RegisterRoutes mounts the route computation endpoint.
func (h *RouteHandler) RegisterRoutes(r chi.Router) {
	r.Post("/route", h.Compute)
}

// Compute handles POST /api/route.
//
// The provider credential check runs before anything else: without it the
// endpoint is unavailable while the rest of the API keeps working. Past
// validation, the handler never fails the request on external-provider
// errors; the pipeline degrades instead and always produces at least one
// candidate.
func (h *RouteHandler) Compute(w http.ResponseWriter, r *http.Request) {
	if !h.configured {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeConfigMissingCredential,
			"routing provider API key is not configured",
			nil,
		))
		return
	}

	var req routeRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	start := types.Coordinate{Lat: req.Start[0], Lng: req.Start[1]}
	end := types.Coordinate{Lat: req.End[0], Lng: req.End[1]}
	if !start.Valid() || !end.Valid() {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationInvalidCoord,
			"start and end must be valid [lat, lng] pairs",
			nil,
		))
		return
	}

	snapshot, err := h.store.List(r.Context())
	if err != nil {
		// A failed snapshot read degrades to hazard-blind routing rather
		// than failing the request.
		h.logger.Warn("hazard snapshot unavailable, routing without hazards", slog.Any("error", err))
		snapshot = nil
	}

	candidates := h.planner.ComputeRoutes(r.Context(), start, end, snapshot)

	core.JSON(w, r, http.StatusOK, routeResponse{Routes: candidates})
}
