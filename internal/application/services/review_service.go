package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storedir/backend/internal/domain/entities"
	"github.com/storedir/backend/internal/domain/repositories"
	apperrors "github.com/storedir/backend/pkg/errors"
)

// ReviewService handles business logic for store reviews
type ReviewService struct {
	reviews repositories.ReviewRepository
	stores  repositories.StoreRepository
}

// NewReviewService creates a new review service
func NewReviewService(reviews repositories.ReviewRepository, stores repositories.StoreRepository) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		stores:  stores,
	}
}

// Create adds a review to a store. Each author may review a store at most
// once; the database's unique constraint makes the insert and the
// uniqueness check a single atomic operation, so a concurrent duplicate
// surfaces as a DuplicateError rather than a second row.
func (s *ReviewService) Create(ctx context.Context, storeID, authorID string, rating int, text string) (*entities.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5")
	}
	// Text is optional; a rating-only review is fine.
	text = strings.TrimSpace(text)

	// Confirm the store exists so a bad ID yields 404 rather than a
	// foreign key error.
	if _, err := s.stores.GetByID(ctx, storeID); err != nil {
		return nil, err
	}

	review := &entities.Review{
		ID:        uuid.New().String(),
		StoreID:   storeID,
		AuthorID:  authorID,
		Rating:    rating,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// CanReview reports whether the author has not yet reviewed the store.
// Callers use this to decide whether to offer the review form; the actual
// write is still guarded by the unique constraint.
func (s *ReviewService) CanReview(ctx context.Context, storeID, authorID string) (bool, error) {
	exists, err := s.reviews.ExistsForAuthor(ctx, storeID, authorID)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// ListByStore returns a store's reviews, newest first.
func (s *ReviewService) ListByStore(ctx context.Context, storeID string) ([]*entities.Review, error) {
	return s.reviews.ListByStore(ctx, storeID)
}
