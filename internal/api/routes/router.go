package routes

import (
	"net/http"

	"github.com/snapmap/storefinder/backend/internal/api/handlers"
	"github.com/snapmap/storefinder/backend/internal/api/middleware"
	"github.com/snapmap/storefinder/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	storeHandler       *handlers.StoreHandler
	enrichmentHandler  *handlers.EnrichmentHandler
	geolocationHandler *handlers.GeolocationHandler
	usageHandler       *handlers.UsageHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	storeHandler *handlers.StoreHandler,
	enrichmentHandler *handlers.EnrichmentHandler,
	geolocationHandler *handlers.GeolocationHandler,
	usageHandler *handlers.UsageHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		storeHandler:       storeHandler,
		enrichmentHandler:  enrichmentHandler,
		geolocationHandler: geolocationHandler,
		usageHandler:       usageHandler,

		metrics: metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Store endpoints
	r.mux.HandleFunc("GET /api/stores/search", r.storeHandler.SearchStores)
	r.mux.HandleFunc("POST /api/stores/click", r.storeHandler.RecordClick)

	// Places enrichment endpoints
	r.mux.HandleFunc("GET /api/places/search", r.enrichmentHandler.SearchPlaces)
	r.mux.HandleFunc("GET /api/places/details", r.enrichmentHandler.GetPlaceDetails)

	// Geolocation endpoints
	r.mux.HandleFunc("GET /api/geolocation", r.geolocationHandler.ResolveLocation)
	r.mux.HandleFunc("POST /api/geolocation", r.geolocationHandler.PinLocation)

	// Usage reporting endpoint
	r.mux.HandleFunc("GET /api/usage", r.usageHandler.GetUsage)

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so error responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
