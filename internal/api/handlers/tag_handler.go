package handlers

import (
	"net/http"

	"github.com/storedir/backend/internal/application/services"
)

// TagHandler handles tag-related HTTP requests
type TagHandler struct {
	stores *services.StoreService
}

// NewTagHandler creates a new tag handler
func NewTagHandler(stores *services.StoreService) *TagHandler {
	return &TagHandler{stores: stores}
}

// ListTags handles GET /api/tags
func (h *TagHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.stores.ListTags(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"tags":  tags,
		"count": len(tags),
	})
}

// StoresByTag handles GET /api/tags/{tag}/stores
func (h *TagHandler) StoresByTag(w http.ResponseWriter, r *http.Request) {
	stores, err := h.stores.ListByTag(r.Context(), r.PathValue("tag"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"stores": stores,
		"count":  len(stores),
	})
}
