package services

import (
	"context"

	"github.com/storedir/backend/internal/domain/entities"
	"github.com/storedir/backend/internal/domain/repositories"
)

// HeartService handles business logic for user favourites
type HeartService struct {
	hearts repositories.HeartRepository
	stores repositories.StoreRepository
}

// NewHeartService creates a new heart service
func NewHeartService(hearts repositories.HeartRepository, stores repositories.StoreRepository) *HeartService {
	return &HeartService{
		hearts: hearts,
		stores: stores,
	}
}

// Toggle flips the user's heart on a store and returns the user's full
// hearted set afterwards. Toggling twice restores the original state.
func (s *HeartService) Toggle(ctx context.Context, userID, storeID string) ([]string, error) {
	// Reject unknown stores up front so a heart can never dangle.
	if _, err := s.stores.GetByID(ctx, storeID); err != nil {
		return nil, err
	}
	return s.hearts.Toggle(ctx, userID, storeID)
}

// Set returns the IDs of the stores the user has hearted.
func (s *HeartService) Set(ctx context.Context, userID string) ([]string, error) {
	return s.hearts.Set(ctx, userID)
}

// Stores returns the full store records the user has hearted.
func (s *HeartService) Stores(ctx context.Context, userID string) ([]*entities.Store, error) {
	ids, err := s.hearts.Set(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*entities.Store{}, nil
	}
	return s.stores.GetByIDs(ctx, ids)
}
