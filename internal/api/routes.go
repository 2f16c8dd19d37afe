package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Published state (read-only, plus the explicit earnings reset command)
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/price", handler.GetPrice).Methods("GET")
	api.HandleFunc("/status", handler.GetStatus).Methods("GET")
	api.HandleFunc("/earnings", handler.GetEarnings).Methods("GET")
	api.HandleFunc("/earnings/reset", handler.ResetEarnings).Methods("POST")
	api.HandleFunc("/sensors", handler.GetSensors).Methods("GET")
	api.HandleFunc("/zones", handler.GetZones).Methods("GET")

	return r
}
