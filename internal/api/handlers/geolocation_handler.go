package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/snapmap/storefinder/backend/internal/application/services"
)

// GeolocationHandler handles session geolocation endpoints
type GeolocationHandler struct {
	geolocation *services.SessionGeolocationService
}

// NewGeolocationHandler creates a new geolocation handler
func NewGeolocationHandler(geolocation *services.SessionGeolocationService) *GeolocationHandler {
	return &GeolocationHandler{geolocation: geolocation}
}

// ResolveLocation handles GET /api/geolocation?session_id=...
func (h *GeolocationHandler) ResolveLocation(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session_id parameter is required")
		return
	}

	resolved, err := h.geolocation.Resolve(r.Context(), sessionID, clientIP(r))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resolved)
}

type pinRequest struct {
	SessionID string  `json:"session_id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

// PinLocation handles POST /api/geolocation with browser GPS coordinates
func (h *GeolocationHandler) PinLocation(w http.ResponseWriter, r *http.Request) {
	var body pinRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(body.SessionID) == "" {
		respondWithError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if body.Lat < -90 || body.Lat > 90 || body.Lng < -180 || body.Lng > 180 {
		respondWithError(w, http.StatusBadRequest, "coordinates out of range")
		return
	}

	resolved, err := h.geolocation.PinGPS(r.Context(), body.SessionID, body.Lat, body.Lng)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resolved)
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
