package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Generation
	mux.HandleFunc("/api/itinerary", s.app.ItineraryHandler.GenerateHandler) // POST

	// API routes - Places
	mux.HandleFunc("/api/places/lookup", s.app.PlacesHandler.LookupHandler)    // GET
	mux.HandleFunc("/api/steps/enrich", s.app.PlacesHandler.EnrichStepHandler) // POST

	// API routes - Maintenance
	mux.HandleFunc("/api/maintenance/jobs", s.app.MaintenanceHandler.ListJobsHandler) // GET
	mux.HandleFunc("/api/maintenance/jobs/", s.handleMaintenanceJobRoutes)            // POST /{name}/run

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleMaintenanceJobRoutes routes /api/maintenance/jobs/{name}/run
func (s *Server) handleMaintenanceJobRoutes(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/run") {
		s.app.MaintenanceHandler.RunJobHandler(w, r)
		return
	}
	s.app.APIHandler.NotFoundHandler(w, r)
}
