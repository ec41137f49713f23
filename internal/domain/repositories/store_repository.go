package repositories

import (
	"context"

	"github.com/storedir/backend/internal/domain/entities"
)

// StoreRepository defines the interface for store data operations
type StoreRepository interface {
	// Create creates a new store
	Create(ctx context.Context, store *entities.Store) error

	// GetByID retrieves a store by ID
	GetByID(ctx context.Context, id string) (*entities.Store, error)

	// GetBySlug retrieves a store by its slug
	GetBySlug(ctx context.Context, slug string) (*entities.Store, error)

	// GetByIDs retrieves multiple stores by their IDs
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Store, error)

	// Update replaces a store's mutable fields (author is never touched)
	Update(ctx context.Context, store *entities.Store) error

	// List retrieves stores with filters
	List(ctx context.Context, filter StoreFilter) ([]*entities.Store, error)

	// CountSlugMatches counts existing slugs matching base or base-N
	CountSlugMatches(ctx context.Context, base string) (int, error)

	// ListTags returns distinct tags with usage counts, most used first
	ListTags(ctx context.Context) ([]*entities.TagCount, error)

	// TopStores ranks stores by average review rating, requiring at least
	// minReviews reviews per store
	TopStores(ctx context.Context, minReviews, limit int) ([]*entities.RankedStore, error)

	// Nearby returns stores within radiusMeters of origin, closest first
	Nearby(ctx context.Context, origin entities.Location, radiusMeters float64, limit int) ([]*entities.NearbyStore, error)

	// Search returns stores matching the query by text relevance
	Search(ctx context.Context, query string, limit int) ([]*entities.Store, error)
}

// StoreSearchRepository defines the interface for the search index
// (e.g. Typesense)
type StoreSearchRepository interface {
	// Search returns stores matching the query by text relevance
	Search(ctx context.Context, query string, limit int) ([]*entities.Store, error)

	// Nearby returns stores within radiusMeters of origin, closest first
	Nearby(ctx context.Context, origin entities.Location, radiusMeters float64, limit int) ([]*entities.NearbyStore, error)

	// Index upserts a store document
	Index(ctx context.Context, store *entities.Store) error

	// Delete removes a store document
	Delete(ctx context.Context, id string) error
}

// StoreFilter defines filters for listing stores
type StoreFilter struct {
	Tag      string
	AnyTag   bool // match stores with at least one tag
	AuthorID string
	Limit    int
	Offset   int
}
