package handlers

import (
	"net/http"

	"github.com/storedir/backend/internal/application/services"
)

// SearchHandler handles full-text search requests
type SearchHandler struct {
	stores *services.StoreService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(stores *services.StoreService) *SearchHandler {
	return &SearchHandler{stores: stores}
}

// Search handles GET /api/search?q=...
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	stores, err := h.stores.Search(r.Context(), query, queryInt(r, "limit", 0))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"stores": stores,
		"count":  len(stores),
	})
}
