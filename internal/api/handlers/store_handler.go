package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/snapmap/storefinder/backend/internal/application/services"
	"github.com/snapmap/storefinder/backend/internal/domain/entities"
	"github.com/snapmap/storefinder/backend/internal/domain/repositories"
	apperrors "github.com/snapmap/storefinder/backend/pkg/errors"
)

// StoreHandler handles store search and click HTTP requests
type StoreHandler struct {
	searchService *services.SearchService
	clickRepo     repositories.ClickEventRepository
}

// NewStoreHandler creates a new store handler
func NewStoreHandler(searchService *services.SearchService, clickRepo repositories.ClickEventRepository) *StoreHandler {
	return &StoreHandler{
		searchService: searchService,
		clickRepo:     clickRepo,
	}
}

// SearchStores handles GET /api/stores/search
func (h *StoreHandler) SearchStores(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	req := entities.SearchRequest{
		Query:    strings.TrimSpace(query.Get("q")),
		City:     strings.TrimSpace(query.Get("city")),
		State:    strings.TrimSpace(query.Get("state")),
		Zip:      strings.TrimSpace(query.Get("zip")),
		Category: strings.TrimSpace(query.Get("category")),
	}

	if typesParam := strings.TrimSpace(query.Get("types")); typesParam != "" {
		for _, t := range strings.Split(typesParam, ",") {
			if t = strings.TrimSpace(t); t != "" {
				req.StoreTypes = append(req.StoreTypes, t)
			}
		}
	}

	latStr := strings.TrimSpace(query.Get("lat"))
	lngStr := strings.TrimSpace(query.Get("lng"))
	if latStr != "" || lngStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid lat parameter")
			return
		}
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid lng parameter")
			return
		}
		req.Origin = &entities.Location{Latitude: lat, Longitude: lng}
	}

	if radiusStr := strings.TrimSpace(query.Get("radius")); radiusStr != "" {
		radius, err := strconv.ParseFloat(radiusStr, 64)
		if err != nil || radius <= 0 {
			respondWithError(w, http.StatusBadRequest, "invalid radius parameter")
			return
		}
		req.RadiusMiles = radius
	}

	stores, err := h.searchService.Search(r.Context(), req)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"stores": stores,
		"count":  len(stores),
	})
}

type clickRequest struct {
	StoreID string  `json:"store_id"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// RecordClick handles POST /api/stores/click
func (h *StoreHandler) RecordClick(w http.ResponseWriter, r *http.Request) {
	var body clickRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(body.StoreID) == "" {
		respondWithError(w, http.StatusBadRequest, "store_id is required")
		return
	}

	event := &entities.ClickEvent{
		StoreID: body.StoreID,
		UserLat: body.Lat,
		UserLng: body.Lng,
	}
	if err := h.clickRepo.Record(r.Context(), event); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{
		"id": event.ID,
	})
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps typed application errors onto HTTP status codes
func respondWithAppError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		switch appErr.Type {
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
		case apperrors.ErrorTypeBudgetExceeded:
			respondWithError(w, http.StatusTooManyRequests, appErr.Message)
		case apperrors.ErrorTypeEnrichmentUpstream, apperrors.ErrorTypeUpstreamQuery:
			respondWithError(w, http.StatusBadGateway, appErr.Message)
		default:
			respondWithError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}
