package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/storedir/backend/internal/api/middleware"
	"github.com/storedir/backend/internal/application/services"
)

// ReviewHandler handles review-related HTTP requests
type ReviewHandler struct {
	reviews *services.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviews *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

type createReviewRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

// CreateReview handles POST /api/stores/{id}/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	storeID := r.PathValue("id")
	if storeID == "" {
		respondWithError(w, http.StatusBadRequest, "store ID is required")
		return
	}

	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	review, err := h.reviews.Create(r.Context(), storeID, userID, req.Rating, req.Text)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, review)
}

// ListReviews handles GET /api/stores/{id}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	storeID := r.PathValue("id")
	if storeID == "" {
		respondWithError(w, http.StatusBadRequest, "store ID is required")
		return
	}

	reviews, err := h.reviews.ListByStore(r.Context(), storeID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	// An authenticated caller also learns whether they may still review
	// this store.
	payload := map[string]interface{}{
		"reviews": reviews,
		"count":   len(reviews),
	}
	if userID, ok := middleware.UserID(r.Context()); ok {
		canReview, err := h.reviews.CanReview(r.Context(), storeID, userID)
		if err == nil {
			payload["can_review"] = canReview
		}
	}
	respondWithJSON(w, http.StatusOK, payload)
}
