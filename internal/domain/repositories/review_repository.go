package repositories

import (
	"context"

	"github.com/storedir/backend/internal/domain/entities"
)

// ReviewRepository defines the interface for review operations. Reviews are
// write-once: there is no update or delete.
type ReviewRepository interface {
	// Create persists a new review. The (store_id, author_id) pair is
	// unique; inserting a second review for the same pair returns a
	// DUPLICATE error.
	Create(ctx context.Context, review *entities.Review) error

	// ListByStore retrieves reviews for a store, newest first
	ListByStore(ctx context.Context, storeID string) ([]*entities.Review, error)

	// ExistsForAuthor reports whether the author already reviewed the store
	ExistsForAuthor(ctx context.Context, storeID, authorID string) (bool, error)
}
