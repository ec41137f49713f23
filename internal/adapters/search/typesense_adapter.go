package search

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/storedir/backend/internal/domain/entities"
	"github.com/storedir/backend/internal/domain/repositories"
	tsclient "github.com/storedir/backend/internal/infrastructure/clients/typesense"
	apperrors "github.com/storedir/backend/pkg/errors"
)

// TypesenseAdapter implements store search on Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.StoreSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// Index upserts a store document
func (a *TypesenseAdapter) Index(ctx context.Context, store *entities.Store) error {
	document := map[string]interface{}{
		"id":          store.ID,
		"name":        store.Name,
		"description": store.Description,
		"slug":        store.Slug,
		"tags":        store.Tags,
		"location":    []float64{store.Location.Latitude, store.Location.Longitude},
		"address":     store.Address,
		"author_id":   store.AuthorID,
		"created_at":  store.CreatedAt.Unix(),
	}

	_, err := a.client.Client().Collection(tsclient.StoresCollection).Documents().Upsert(ctx, document)
	if err != nil {
		return apperrors.NewExternalError("failed to index store", err)
	}

	return nil
}

// Delete removes a store document from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.StoresCollection).Document(id).Delete(ctx)
	if err != nil {
		return apperrors.NewExternalError("failed to delete store from index", err)
	}
	return nil
}

// Search runs a relevance query over name and description. Typesense ranks
// by text match score, which is monotonic in matched terms.
func (a *TypesenseAdapter) Search(ctx context.Context, query string, limit int) ([]*entities.Store, error) {
	params := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("name,description"),
		PerPage: pointer.Int(limit),
		Page:    pointer.Int(1),
	}

	result, err := a.client.Client().Collection(tsclient.StoresCollection).Documents().Search(ctx, params)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to search stores", err)
	}

	stores := []*entities.Store{}
	if result.Hits == nil {
		return stores, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		stores = append(stores, documentToStore(*hit.Document))
	}

	return stores, nil
}

// Nearby filters by geopoint radius and sorts by distance ascending.
func (a *TypesenseAdapter) Nearby(ctx context.Context, origin entities.Location, radiusMeters float64, limit int) ([]*entities.NearbyStore, error) {
	radiusKm := radiusMeters / 1000.0
	params := &api.SearchCollectionParams{
		Q:        pointer.String("*"),
		QueryBy:  pointer.String("name"),
		FilterBy: pointer.String(fmt.Sprintf("location:(%f, %f, %f km)", origin.Latitude, origin.Longitude, radiusKm)),
		SortBy:   pointer.String(fmt.Sprintf("location(%f, %f):asc", origin.Latitude, origin.Longitude)),
		PerPage:  pointer.Int(limit),
		Page:     pointer.Int(1),
	}

	result, err := a.client.Client().Collection(tsclient.StoresCollection).Documents().Search(ctx, params)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to search nearby stores", err)
	}

	stores := []*entities.NearbyStore{}
	if result.Hits == nil {
		return stores, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		store := documentToStore(*hit.Document)
		stores = append(stores, &entities.NearbyStore{
			Store:          *store,
			DistanceMeters: haversineMeters(origin, store.Location),
		})
	}

	return stores, nil
}

func documentToStore(doc map[string]interface{}) *entities.Store {
	store := &entities.Store{}

	if v, ok := doc["id"].(string); ok {
		store.ID = v
	}
	if v, ok := doc["name"].(string); ok {
		store.Name = v
	}
	if v, ok := doc["description"].(string); ok {
		store.Description = v
	}
	if v, ok := doc["slug"].(string); ok {
		store.Slug = v
	}
	if v, ok := doc["address"].(string); ok {
		store.Address = v
	}
	if v, ok := doc["author_id"].(string); ok {
		store.AuthorID = v
	}
	if v, ok := doc["tags"].([]interface{}); ok {
		for _, tag := range v {
			if s, ok := tag.(string); ok {
				store.Tags = append(store.Tags, s)
			}
		}
	}
	if v, ok := doc["location"].([]interface{}); ok && len(v) == 2 {
		if lat, ok := v[0].(float64); ok {
			store.Location.Latitude = lat
		}
		if lng, ok := v[1].(float64); ok {
			store.Location.Longitude = lng
		}
	}
	if v, ok := doc["created_at"].(float64); ok {
		store.CreatedAt = time.Unix(int64(v), 0)
	}

	return store
}

func haversineMeters(from, to entities.Location) float64 {
	const earthRadiusMeters = 6371000.0

	dLat := degreesToRadians(to.Latitude - from.Latitude)
	dLng := degreesToRadians(to.Longitude - from.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(from.Latitude))*math.Cos(degreesToRadians(to.Latitude))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
