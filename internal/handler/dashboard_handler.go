// internal/handler/dashboard_handler.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/bidtracker-backend/internal/repository"
)

type StatsProvider interface {
	Stats(ctx context.Context) (*repository.DashboardStats, error)
}

// DashboardHandler serves the headline counts for the dashboard screen.
type DashboardHandler struct {
	Stats StatsProvider
	Log   *zap.Logger
}

func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Stats.Stats(r.Context())
	if err != nil {
		h.Log.Error("Failed to load dashboard stats", zap.Error(err))
		http.Error(w, "failed to load stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func Banner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Bid Tracker API"})
}
