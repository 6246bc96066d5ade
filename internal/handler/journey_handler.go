// internal/handler/journey_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/o4villegas/lead-fuego-sub001/internal/repository"
)

// JourneyHandler exposes read-only journey state for the dashboard.
type JourneyHandler struct {
	JourneyRepo repository.JourneyRepositoryInterface
	Logger      *zap.Logger
}

// GetJourneyHandler returns one journey by ID, counters included.
func (h *JourneyHandler) GetJourneyHandler(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "invalid journey id", http.StatusBadRequest)
		return
	}

	journey, err := h.JourneyRepo.GetByID(id)
	if err != nil {
		h.Logger.Error("failed to fetch journey", zap.Int("journey_id", id), zap.Error(err))
		http.Error(w, "failed to fetch journey: "+err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(journey)
}
