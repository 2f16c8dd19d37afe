package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gtanker/ercot-spp-sellback/internal/models"
	"github.com/gtanker/ercot-spp-sellback/internal/poller"
	"github.com/gtanker/ercot-spp-sellback/internal/sensors"
)

// PriceReader exposes the coordinator's published state
type PriceReader interface {
	Snapshot() (*models.Snapshot, bool)
	Status() poller.Status
}

// EarningsService exposes the accumulator's published state and the
// explicit reset command
type EarningsService interface {
	State() models.EarningsState
	Reset(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	prices   PriceReader
	earnings EarningsService
	fraction decimal.Decimal
}

// NewHandler creates a new Handler
func NewHandler(prices PriceReader, earnings EarningsService, fraction decimal.Decimal) *Handler {
	return &Handler{
		prices:   prices,
		earnings: earnings,
		fraction: fraction,
	}
}

// HealthCheck handles GET /health. It reports degraded (but still 200)
// while failures accumulate, and flags a zone mismatch loudly since that
// condition recurs every cycle until the configuration is fixed.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := h.prices.Status()

	health := map[string]interface{}{
		"status":               "ok",
		"zone":                 status.Zone,
		"consecutive_failures": status.ConsecutiveFailures,
	}
	if !status.LastSuccess.IsZero() {
		health["last_success"] = status.LastSuccess.Format(time.RFC3339)
	}
	if status.ZoneMismatch {
		health["status"] = "degraded"
		health["detail"] = "configured zone does not match source column layout"
	} else if status.ConsecutiveFailures > 0 {
		health["status"] = "degraded"
	}

	respondJSON(w, http.StatusOK, health)
}

// GetPrice handles GET /api/v1/price
func (h *Handler) GetPrice(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.prices.Snapshot()
	if !ok {
		http.Error(w, "no price published yet", http.StatusServiceUnavailable)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// GetStatus handles GET /api/v1/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.prices.Status())
}

// GetEarnings handles GET /api/v1/earnings
func (h *Handler) GetEarnings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.earnings.State())
}

// ResetEarnings handles POST /api/v1/earnings/reset
func (h *Handler) ResetEarnings(w http.ResponseWriter, r *http.Request) {
	if err := h.earnings.Reset(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, h.earnings.State())
}

// GetSensors handles GET /api/v1/sensors
func (h *Handler) GetSensors(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.prices.Snapshot()
	if !ok {
		http.Error(w, "no price published yet", http.StatusServiceUnavailable)
		return
	}
	respondJSON(w, http.StatusOK, sensors.All(snap, h.earnings.State(), h.fraction))
}

// GetZones handles GET /api/v1/zones
func (h *Handler) GetZones(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.AllZones())
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
