package handlers

import (
	"net/http"

	"github.com/storedir/backend/internal/api/middleware"
	"github.com/storedir/backend/internal/application/services"
)

// HeartHandler handles favourite-related HTTP requests
type HeartHandler struct {
	hearts *services.HeartService
}

// NewHeartHandler creates a new heart handler
func NewHeartHandler(hearts *services.HeartService) *HeartHandler {
	return &HeartHandler{hearts: hearts}
}

// ToggleHeart handles POST /api/stores/{id}/heart
func (h *HeartHandler) ToggleHeart(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	storeID := r.PathValue("id")
	if storeID == "" {
		respondWithError(w, http.StatusBadRequest, "store ID is required")
		return
	}

	hearts, err := h.hearts.Toggle(r.Context(), userID, storeID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"hearts": hearts,
		"count":  len(hearts),
	})
}

// ListHeartedStores handles GET /api/hearts
func (h *HeartHandler) ListHeartedStores(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	stores, err := h.hearts.Stores(r.Context(), userID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"stores": stores,
		"count":  len(stores),
	})
}
