package handlers

import (
	"net/http"
	"strings"

	"github.com/snapmap/storefinder/backend/internal/application/services"
	"github.com/snapmap/storefinder/backend/internal/domain/providers"
)

// EnrichmentHandler exposes the budget-gated places proxy
type EnrichmentHandler struct {
	enrichment *services.EnrichmentService
}

// NewEnrichmentHandler creates a new enrichment handler
func NewEnrichmentHandler(enrichment *services.EnrichmentService) *EnrichmentHandler {
	return &EnrichmentHandler{enrichment: enrichment}
}

// SearchPlaces handles GET /api/places/search?q=...&region=...
func (h *EnrichmentHandler) SearchPlaces(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "q parameter is required")
		return
	}

	result, err := h.enrichment.Fetch(r.Context(), providers.PlacesOpTextSearch, services.EnrichmentParams{
		Query:  query,
		Region: strings.TrimSpace(r.URL.Query().Get("region")),
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// GetPlaceDetails handles GET /api/places/details?place_id=...&fields=name,rating
func (h *EnrichmentHandler) GetPlaceDetails(w http.ResponseWriter, r *http.Request) {
	placeID := strings.TrimSpace(r.URL.Query().Get("place_id"))
	if placeID == "" {
		respondWithError(w, http.StatusBadRequest, "place_id parameter is required")
		return
	}

	var fields []string
	if fieldsParam := strings.TrimSpace(r.URL.Query().Get("fields")); fieldsParam != "" {
		for _, f := range strings.Split(fieldsParam, ",") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
	}

	result, err := h.enrichment.Fetch(r.Context(), providers.PlacesOpPlaceDetails, services.EnrichmentParams{
		PlaceID: placeID,
		Fields:  fields,
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
