package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/storedir/backend/internal/domain/entities"
	"github.com/storedir/backend/internal/domain/providers"
	"github.com/storedir/backend/internal/domain/repositories"
)

// Cache TTLs. Aggregations are cheap to recompute but sit on hot pages, so
// short TTLs keep them fresh without hammering Postgres.
const (
	storeBySlugTTL = 5 * time.Minute
	tagListTTL     = 3 * time.Minute
	topStoresTTL   = 2 * time.Minute
)

// CachedStoreAdapter wraps a StoreRepository with read-through caching for
// the hot read paths: slug lookups, the tag aggregation and the top-stores
// ranking. Writes invalidate the aggregate keys.
type CachedStoreAdapter struct {
	adapter repositories.StoreRepository
	cache   providers.CacheProvider
}

// NewCachedStoreAdapter creates a new cached store adapter
func NewCachedStoreAdapter(adapter repositories.StoreRepository, cache providers.CacheProvider) repositories.StoreRepository {
	return &CachedStoreAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

func storeSlugCacheKey(slug string) string {
	return fmt.Sprintf("store:slug:%s", slug)
}

func topStoresCacheKey(minReviews, limit int) string {
	return fmt.Sprintf("stores:top:%d:%d", minReviews, limit)
}

const tagListCacheKey = "stores:tags"

// GetBySlug retrieves a store by slug with caching
func (a *CachedStoreAdapter) GetBySlug(ctx context.Context, slug string) (*entities.Store, error) {
	key := storeSlugCacheKey(slug)

	if cached, err := a.cache.Get(ctx, key); err == nil {
		var store entities.Store
		if err := json.Unmarshal(cached, &store); err == nil {
			return &store, nil
		}
	}

	store, err := a.adapter.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	a.storeInCache(key, store, storeBySlugTTL)
	return store, nil
}

// ListTags returns the tag aggregation with caching
func (a *CachedStoreAdapter) ListTags(ctx context.Context) ([]*entities.TagCount, error) {
	if cached, err := a.cache.Get(ctx, tagListCacheKey); err == nil {
		var tags []*entities.TagCount
		if err := json.Unmarshal(cached, &tags); err == nil {
			return tags, nil
		}
	}

	tags, err := a.adapter.ListTags(ctx)
	if err != nil {
		return nil, err
	}

	a.storeInCache(tagListCacheKey, tags, tagListTTL)
	return tags, nil
}

// TopStores returns the ranking with caching
func (a *CachedStoreAdapter) TopStores(ctx context.Context, minReviews, limit int) ([]*entities.RankedStore, error) {
	key := topStoresCacheKey(minReviews, limit)

	if cached, err := a.cache.Get(ctx, key); err == nil {
		var ranked []*entities.RankedStore
		if err := json.Unmarshal(cached, &ranked); err == nil {
			return ranked, nil
		}
	}

	ranked, err := a.adapter.TopStores(ctx, minReviews, limit)
	if err != nil {
		return nil, err
	}

	a.storeInCache(key, ranked, topStoresTTL)
	return ranked, nil
}

// Create delegates and invalidates aggregate keys
func (a *CachedStoreAdapter) Create(ctx context.Context, store *entities.Store) error {
	if err := a.adapter.Create(ctx, store); err != nil {
		return err
	}
	a.invalidate(ctx, tagListCacheKey)
	return nil
}

// Update delegates and invalidates keys derived from the store. The
// pre-update row is read first so a rename also drops the old slug's key
// and the store stops answering at its old slug.
func (a *CachedStoreAdapter) Update(ctx context.Context, store *entities.Store) error {
	previous, prevErr := a.adapter.GetByID(ctx, store.ID)

	if err := a.adapter.Update(ctx, store); err != nil {
		return err
	}

	keys := []string{tagListCacheKey, storeSlugCacheKey(store.Slug)}
	if prevErr == nil && previous.Slug != store.Slug {
		keys = append(keys, storeSlugCacheKey(previous.Slug))
	}
	a.invalidate(ctx, keys...)
	return nil
}

// GetByID delegates to the underlying adapter
func (a *CachedStoreAdapter) GetByID(ctx context.Context, id string) (*entities.Store, error) {
	return a.adapter.GetByID(ctx, id)
}

// GetByIDs delegates to the underlying adapter
func (a *CachedStoreAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Store, error) {
	return a.adapter.GetByIDs(ctx, ids)
}

// List delegates to the underlying adapter
func (a *CachedStoreAdapter) List(ctx context.Context, filter repositories.StoreFilter) ([]*entities.Store, error) {
	return a.adapter.List(ctx, filter)
}

// CountSlugMatches delegates to the underlying adapter. Slug counting backs
// a uniqueness decision and must never read stale data.
func (a *CachedStoreAdapter) CountSlugMatches(ctx context.Context, base string) (int, error) {
	return a.adapter.CountSlugMatches(ctx, base)
}

// Nearby delegates to the underlying adapter
func (a *CachedStoreAdapter) Nearby(ctx context.Context, origin entities.Location, radiusMeters float64, limit int) ([]*entities.NearbyStore, error) {
	return a.adapter.Nearby(ctx, origin, radiusMeters, limit)
}

// Search delegates to the underlying adapter
func (a *CachedStoreAdapter) Search(ctx context.Context, query string, limit int) ([]*entities.Store, error) {
	return a.adapter.Search(ctx, query, limit)
}

func (a *CachedStoreAdapter) storeInCache(key string, value interface{}, ttl time.Duration) {
	// Write behind the response; a failed cache write only costs a reread.
	go func() {
		data, err := json.Marshal(value)
		if err != nil {
			return
		}
		if err := a.cache.Set(context.Background(), key, data, ttl); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("cache write failed")
		}
	}()
}

func (a *CachedStoreAdapter) invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := a.cache.Delete(ctx, key); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("cache invalidation failed")
		}
	}
}
