package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/storedir/backend/internal/api/middleware"
	"github.com/storedir/backend/internal/application/services"
	"github.com/storedir/backend/internal/domain/entities"
	"github.com/storedir/backend/internal/domain/repositories"
)

// StoreHandler handles store-related HTTP requests
type StoreHandler struct {
	stores *services.StoreService
	photos *services.PhotoService
}

// NewStoreHandler creates a new store handler
func NewStoreHandler(stores *services.StoreService, photos *services.PhotoService) *StoreHandler {
	return &StoreHandler{
		stores: stores,
		photos: photos,
	}
}

// CreateStore handles POST /api/stores
func (h *StoreHandler) CreateStore(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	var input services.StoreInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	store, err := h.stores.Create(r.Context(), &input, userID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, store)
}

// UpdateStore handles PUT /api/stores/{id}
func (h *StoreHandler) UpdateStore(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	storeID := r.PathValue("id")
	if storeID == "" {
		respondWithError(w, http.StatusBadRequest, "store ID is required")
		return
	}

	var input services.StoreInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	store, err := h.stores.Update(r.Context(), storeID, &input, userID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, store)
}

// GetStore handles GET /api/stores/{id}
func (h *StoreHandler) GetStore(w http.ResponseWriter, r *http.Request) {
	storeID := r.PathValue("id")
	if storeID == "" {
		respondWithError(w, http.StatusBadRequest, "store ID is required")
		return
	}

	store, err := h.stores.GetByID(r.Context(), storeID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, store)
}

// GetStoreBySlug handles GET /api/store/{slug}
func (h *StoreHandler) GetStoreBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		respondWithError(w, http.StatusBadRequest, "store slug is required")
		return
	}

	store, err := h.stores.GetBySlug(r.Context(), slug)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, store)
}

// ListStores handles GET /api/stores
func (h *StoreHandler) ListStores(w http.ResponseWriter, r *http.Request) {
	filter := repositories.StoreFilter{
		Tag:      r.URL.Query().Get("tag"),
		AuthorID: r.URL.Query().Get("author"),
		Limit:    queryInt(r, "limit", 0),
		Offset:   queryInt(r, "offset", 0),
	}

	stores, err := h.stores.List(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"stores": stores,
		"count":  len(stores),
	})
}

// TopStores handles GET /api/stores/top
func (h *StoreHandler) TopStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.stores.TopStores(r.Context(), queryInt(r, "min_reviews", 0), queryInt(r, "limit", 0))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"stores": stores,
		"count":  len(stores),
	})
}

// NearbyStores handles GET /api/stores/near
func (h *StoreHandler) NearbyStores(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil {
		respondWithError(w, http.StatusBadRequest, "lat and lng query parameters are required")
		return
	}

	radius, _ := strconv.ParseFloat(r.URL.Query().Get("radius"), 64)

	stores, err := h.stores.Nearby(r.Context(), entities.Location{Latitude: lat, Longitude: lng}, radius, queryInt(r, "limit", 0))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"stores": stores,
		"count":  len(stores),
	})
}

// UploadPhoto handles POST /api/stores/{id}/photo
func (h *StoreHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	storeID := r.PathValue("id")
	if storeID == "" {
		respondWithError(w, http.StatusBadRequest, "store ID is required")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "photo file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "failed to read photo")
		return
	}

	ref, err := h.photos.Process(r.Context(), header.Header.Get("Content-Type"), data)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	store, err := h.stores.AttachPhoto(r.Context(), storeID, userID, ref)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, store)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
