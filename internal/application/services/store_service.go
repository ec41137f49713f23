package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storedir/backend/internal/domain/entities"
	"github.com/storedir/backend/internal/domain/repositories"
	"github.com/storedir/backend/internal/infrastructure/observability"
	"github.com/storedir/backend/pkg/config"
	apperrors "github.com/storedir/backend/pkg/errors"
	"github.com/storedir/backend/pkg/slug"
)

// slugAttempts bounds how many times a create or rename retries slug
// generation when a concurrent writer claims the same slug first.
const slugAttempts = 3

// StoreService handles business logic for stores
type StoreService struct {
	repo       repositories.StoreRepository
	searchRepo repositories.StoreSearchRepository
	cfg        *config.DiscoveryConfig
}

// NewStoreService creates a new store service
func NewStoreService(repo repositories.StoreRepository, searchRepo repositories.StoreSearchRepository, cfg *config.DiscoveryConfig) *StoreService {
	return &StoreService{
		repo:       repo,
		searchRepo: searchRepo,
		cfg:        cfg,
	}
}

// StoreInput carries the caller-editable store fields.
type StoreInput struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Tags        []string           `json:"tags"`
	Address     string             `json:"address"`
	Location    *entities.Location `json:"location"`
}

// Create validates the input, derives a unique slug and persists the store.
// The new store is indexed in the search engine on a best-effort basis.
func (s *StoreService) Create(ctx context.Context, input *StoreInput, authorID string) (*entities.Store, error) {
	if err := validateStoreInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	store := &entities.Store{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Tags:        normalizeTags(input.Tags),
		Address:     strings.TrimSpace(input.Address),
		Location:    *input.Location,
		AuthorID:    authorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.createWithSlug(ctx, store); err != nil {
		return nil, err
	}

	s.index(ctx, store)
	return store, nil
}

// createWithSlug derives the slug from the store name and inserts the row.
// The slug is base when no existing slug matches base or base-N, otherwise
// base-(N+1) where N is the number of matches. A unique index on the slug
// column closes the window between the count and the insert; on a collision
// the count is re-run and the insert retried.
func (s *StoreService) createWithSlug(ctx context.Context, store *entities.Store) error {
	base := slug.Normalize(store.Name)

	var lastErr error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		matches, err := s.repo.CountSlugMatches(ctx, base)
		if err != nil {
			return err
		}
		store.Slug = slug.Next(base, matches)

		err = s.repo.Create(ctx, store)
		if err == nil {
			return nil
		}
		if !apperrors.IsType(err, apperrors.ErrorTypeConflict) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// GetByID retrieves a store by ID
func (s *StoreService) GetByID(ctx context.Context, id string) (*entities.Store, error) {
	return s.repo.GetByID(ctx, id)
}

// GetBySlug retrieves a store by its URL slug
func (s *StoreService) GetBySlug(ctx context.Context, storeSlug string) (*entities.Store, error) {
	return s.repo.GetBySlug(ctx, storeSlug)
}

// List returns stores matching the filter, newest first.
func (s *StoreService) List(ctx context.Context, filter repositories.StoreFilter) ([]*entities.Store, error) {
	return s.repo.List(ctx, filter)
}

// ListByTag returns stores carrying the given tag. An empty tag selects
// every store that has at least one tag.
func (s *StoreService) ListByTag(ctx context.Context, tag string) ([]*entities.Store, error) {
	filter := repositories.StoreFilter{}
	if strings.TrimSpace(tag) == "" {
		filter.AnyTag = true
	} else {
		filter.Tag = tag
	}
	return s.repo.List(ctx, filter)
}

// ListTags returns every distinct tag with its usage count.
func (s *StoreService) ListTags(ctx context.Context) ([]*entities.TagCount, error) {
	return s.repo.ListTags(ctx)
}

// TopStores returns the highest-rated stores that have collected enough
// reviews to qualify. Zero arguments fall back to the configured defaults.
func (s *StoreService) TopStores(ctx context.Context, minReviews, limit int) ([]*entities.RankedStore, error) {
	if minReviews <= 0 {
		minReviews = s.cfg.TopMinReviews
	}
	if limit <= 0 {
		limit = s.cfg.TopLimit
	}
	return s.repo.TopStores(ctx, minReviews, limit)
}

// Update replaces the editable fields of a store. Only the store's author
// may update it. The slug is recomputed only when the name actually changed.
func (s *StoreService) Update(ctx context.Context, id string, input *StoreInput, currentUserID string) (*entities.Store, error) {
	if err := validateStoreInput(input); err != nil {
		return nil, err
	}

	store, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if store.AuthorID != currentUserID {
		return nil, apperrors.NewUnauthorizedError("you must own a store in order to edit it")
	}

	newName := strings.TrimSpace(input.Name)
	nameChanged := newName != store.Name

	store.Name = newName
	store.Description = strings.TrimSpace(input.Description)
	store.Tags = normalizeTags(input.Tags)
	store.Address = strings.TrimSpace(input.Address)
	store.Location = *input.Location
	store.UpdatedAt = time.Now().UTC()

	if nameChanged {
		if err := s.updateWithSlug(ctx, store); err != nil {
			return nil, err
		}
	} else {
		if err := s.repo.Update(ctx, store); err != nil {
			return nil, err
		}
	}

	s.index(ctx, store)
	return store, nil
}

func (s *StoreService) updateWithSlug(ctx context.Context, store *entities.Store) error {
	base := slug.Normalize(store.Name)

	var lastErr error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		matches, err := s.repo.CountSlugMatches(ctx, base)
		if err != nil {
			return err
		}
		store.Slug = slug.Next(base, matches)

		err = s.repo.Update(ctx, store)
		if err == nil {
			return nil
		}
		if !apperrors.IsType(err, apperrors.ErrorTypeConflict) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// AttachPhoto records the stored photo reference on a store. Only the
// store's author may change its photo.
func (s *StoreService) AttachPhoto(ctx context.Context, id, currentUserID, photoRef string) (*entities.Store, error) {
	store, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if store.AuthorID != currentUserID {
		return nil, apperrors.NewUnauthorizedError("you must own a store in order to edit it")
	}

	store.Photo = photoRef
	store.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, store); err != nil {
		return nil, err
	}
	return store, nil
}

// Nearby returns stores within radiusMeters of the origin, closest first.
// The search engine serves the query when available, otherwise the database
// computes distances directly.
func (s *StoreService) Nearby(ctx context.Context, origin entities.Location, radiusMeters float64, limit int) ([]*entities.NearbyStore, error) {
	if err := validateLocation(origin); err != nil {
		return nil, err
	}
	if radiusMeters <= 0 {
		radiusMeters = s.cfg.NearbyRadiusMeters
	}
	if limit <= 0 {
		limit = s.cfg.NearbyLimit
	}

	if s.searchRepo != nil {
		stores, err := s.searchRepo.Nearby(ctx, origin, radiusMeters, limit)
		if err == nil {
			return stores, nil
		}
		observability.GetLogger().Warn().Err(err).Msg("search engine nearby query failed, falling back to database")
	}
	return s.repo.Nearby(ctx, origin, radiusMeters, limit)
}

// Search performs a full-text search over store names and descriptions.
// A blank query returns an empty result without touching any backend.
func (s *StoreService) Search(ctx context.Context, query string, limit int) ([]*entities.Store, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*entities.Store{}, nil
	}
	if limit <= 0 {
		limit = s.cfg.SearchLimit
	}

	if s.searchRepo != nil {
		stores, err := s.searchRepo.Search(ctx, query, limit)
		if err == nil {
			return stores, nil
		}
		observability.GetLogger().Warn().Err(err).Msg("search engine text query failed, falling back to database")
	}
	return s.repo.Search(ctx, query, limit)
}

// index pushes the store into the search engine. Indexing failures are
// logged but never fail the write (eventual consistency).
func (s *StoreService) index(ctx context.Context, store *entities.Store) {
	if s.searchRepo == nil {
		return
	}
	if err := s.searchRepo.Index(ctx, store); err != nil {
		observability.GetLogger().Warn().Err(err).Str("store_id", store.ID).Msg("failed to index store")
	}
}

func validateStoreInput(input *StoreInput) error {
	if input == nil {
		return apperrors.NewValidationError("request body is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return apperrors.NewValidationError("store name is required")
	}
	if strings.TrimSpace(input.Address) == "" {
		return apperrors.NewValidationError("store address is required")
	}
	if input.Location == nil {
		return apperrors.NewValidationError("store location is required")
	}
	return validateLocation(*input.Location)
}

func validateLocation(loc entities.Location) error {
	if math.IsNaN(loc.Latitude) || math.IsInf(loc.Latitude, 0) ||
		math.IsNaN(loc.Longitude) || math.IsInf(loc.Longitude, 0) {
		return apperrors.NewInvalidInputError("coordinates must be finite numbers")
	}
	if loc.Latitude < -90 || loc.Latitude > 90 {
		return apperrors.NewInvalidInputError("latitude must be between -90 and 90")
	}
	if loc.Longitude < -180 || loc.Longitude > 180 {
		return apperrors.NewInvalidInputError("longitude must be between -180 and 180")
	}
	return nil
}

// normalizeTags trims each tag and drops empties while keeping order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
