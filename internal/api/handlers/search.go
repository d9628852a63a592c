package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"safewalk/internal/core"
	"safewalk/internal/external"
	"safewalk/internal/types"
)

// SearchHandler is the free-text geocoding passthrough. It carries no
// decision logic: queries go straight to the geocoder and any failure
// collapses to an empty result list.
type SearchHandler struct {
	geocoder external.Geocoder
	logger   *slog.Logger
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(geocoder external.Geocoder, l *slog.Logger) *SearchHandler {
	if l == nil {
		l = slog.Default()
	}
	return &SearchHandler{geocoder: geocoder, logger: l}
}

// RegisterRoutes mounts the search endpoint.
func (h *SearchHandler) RegisterRoutes(r chi.Router) {
	r.Get("/search", h.Search)
}

// Search handles GET /api/search?q=. An empty or whitespace query and a
// geocoder failure both return an empty array with status 200.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		core.JSON(w, r, http.StatusOK, []types.Place{})
		return
	}

	places, err := h.geocoder.Search(r.Context(), q)
	if err != nil {
		h.logger.Warn("geocoder search failed", slog.String("query", q), slog.Any("error", err))
		core.JSON(w, r, http.StatusOK, []types.Place{})
		return
	}
	if places == nil {
		places = []types.Place{}
	}

	core.JSON(w, r, http.StatusOK, places)
}
