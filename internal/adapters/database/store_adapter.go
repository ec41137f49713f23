package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
	"github.com/storedir/backend/internal/domain/entities"
	"github.com/storedir/backend/internal/domain/repositories"
	"github.com/storedir/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/storedir/backend/pkg/errors"
	"github.com/storedir/backend/pkg/slug"
)

var storeColumns = []interface{}{
	"id", "name", "slug", "description", "tags", "address",
	"latitude", "longitude", "photo", "author_id", "created_at", "updated_at",
}

// StoreAdapter implements the StoreRepository interface
type StoreAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewStoreAdapter creates a new store adapter
func NewStoreAdapter(client *postgres.Client) repositories.StoreRepository {
	return &StoreAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts a new store. The slug column carries a unique index, so a
// concurrent writer that picked the same slug surfaces as a CONFLICT here
// rather than a second row.
func (a *StoreAdapter) Create(ctx context.Context, store *entities.Store) error {
	query, args, err := a.db.Insert("stores").Rows(storeRecord(store)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build store insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err, "stores_slug_key") {
			return apperrors.NewConflictError(fmt.Sprintf("slug %s already taken", store.Slug))
		}
		return apperrors.NewInternalError("failed to create store", err)
	}

	return nil
}

// GetByID retrieves a store by ID
func (a *StoreAdapter) GetByID(ctx context.Context, id string) (*entities.Store, error) {
	return a.getByField(ctx, "id", id)
}

// GetBySlug retrieves a store by its slug
func (a *StoreAdapter) GetBySlug(ctx context.Context, s string) (*entities.Store, error) {
	return a.getByField(ctx, "slug", s)
}

func (a *StoreAdapter) getByField(ctx context.Context, field, value string) (*entities.Store, error) {
	query, args, err := a.db.Select(storeColumns...).
		From("stores").
		Where(goqu.Ex{field: value}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build store query", err)
	}

	row := a.client.DB().QueryRowContext(ctx, query, args...)
	store, err := scanStoreRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("store with %s %s not found", field, value))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get store", err)
	}

	return store, nil
}

// GetByIDs retrieves multiple stores by their IDs
func (a *StoreAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Store, error) {
	if len(ids) == 0 {
		return []*entities.Store{}, nil
	}

	query, args, err := a.db.Select(storeColumns...).
		From("stores").
		Where(goqu.Ex{"id": ids}).
		Order(goqu.I("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build store query", err)
	}

	return a.queryStores(ctx, query, args)
}

// Update replaces a store's mutable fields. The author column is deliberately
// absent from the record: authorship never changes.
func (a *StoreAdapter) Update(ctx context.Context, store *entities.Store) error {
	store.UpdatedAt = time.Now()

	record := goqu.Record{
		"name":        store.Name,
		"slug":        store.Slug,
		"description": sql.NullString{String: store.Description, Valid: store.Description != ""},
		"tags":        pq.Array(store.Tags),
		"address":     store.Address,
		"latitude":    store.Location.Latitude,
		"longitude":   store.Location.Longitude,
		"photo":       sql.NullString{String: store.Photo, Valid: store.Photo != ""},
		"updated_at":  store.UpdatedAt,
	}

	query, args, err := a.db.Update("stores").
		Set(record).
		Where(goqu.Ex{"id": store.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build store update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err, "stores_slug_key") {
			return apperrors.NewConflictError(fmt.Sprintf("slug %s already taken", store.Slug))
		}
		return apperrors.NewInternalError("failed to update store", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("store with id %s not found", store.ID))
	}

	return nil
}

// List retrieves stores with filters
func (a *StoreAdapter) List(ctx context.Context, filter repositories.StoreFilter) ([]*entities.Store, error) {
	ds := a.db.Select(storeColumns...).From("stores")

	if filter.Tag != "" {
		ds = ds.Where(goqu.L("? = ANY(tags)", filter.Tag))
	} else if filter.AnyTag {
		ds = ds.Where(goqu.L("cardinality(tags) > 0"))
	}
	if filter.AuthorID != "" {
		ds = ds.Where(goqu.Ex{"author_id": filter.AuthorID})
	}

	ds = ds.Order(goqu.I("created_at").Desc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build store list query", err)
	}

	return a.queryStores(ctx, query, args)
}

// CountSlugMatches counts slugs matching base or base-N, case-insensitively.
func (a *StoreAdapter) CountSlugMatches(ctx context.Context, base string) (int, error) {
	query, args, err := a.db.Select(goqu.COUNT(goqu.Star())).
		From("stores").
		Where(goqu.L("slug ~* ?", slug.Pattern(base))).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build slug count query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count slug matches", err)
	}

	return count, nil
}

// ListTags unnests every store's tag array and counts usage per tag.
// Ordering is count descending with tag ascending as tiebreak, so the
// result is deterministic.
func (a *StoreAdapter) ListTags(ctx context.Context) ([]*entities.TagCount, error) {
	query, args, err := a.db.From(goqu.T("stores"), goqu.L("unnest(tags) AS tag")).
		Select(goqu.C("tag"), goqu.COUNT(goqu.Star()).As("count")).
		GroupBy(goqu.C("tag")).
		Order(goqu.I("count").Desc(), goqu.I("tag").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build tag aggregation query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to aggregate tags", err)
	}
	defer rows.Close()

	tags := []*entities.TagCount{}
	for rows.Next() {
		tc := &entities.TagCount{}
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, apperrors.NewInternalError("failed to scan tag count", err)
		}
		tags = append(tags, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating tag counts", err)
	}

	return tags, nil
}

// TopStores joins reviews, averages ratings, and keeps only stores with at
// least minReviews reviews. Stores without qualifying reviews never appear.
// Ties on average rating break on store id for a stable order.
func (a *StoreAdapter) TopStores(ctx context.Context, minReviews, limit int) ([]*entities.RankedStore, error) {
	cols := []interface{}{
		goqu.I("s.id"), goqu.I("s.name"), goqu.I("s.slug"), goqu.I("s.description"),
		goqu.I("s.tags"), goqu.I("s.address"), goqu.I("s.latitude"), goqu.I("s.longitude"),
		goqu.I("s.photo"), goqu.I("s.author_id"), goqu.I("s.created_at"), goqu.I("s.updated_at"),
		goqu.AVG(goqu.I("r.rating")).As("average_rating"),
		goqu.COUNT(goqu.I("r.id")).As("review_count"),
	}

	query, args, err := a.db.From(goqu.T("stores").As("s")).
		Join(goqu.T("reviews").As("r"), goqu.On(goqu.I("r.store_id").Eq(goqu.I("s.id")))).
		Select(cols...).
		GroupBy(goqu.I("s.id")).
		Having(goqu.COUNT(goqu.I("r.id")).Gte(minReviews)).
		Order(goqu.I("average_rating").Desc(), goqu.I("s.id").Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build top stores query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query top stores", err)
	}
	defer rows.Close()

	ranked := []*entities.RankedStore{}
	for rows.Next() {
		rs := &entities.RankedStore{}
		store, err := scanStoreRow(func(dest ...interface{}) error {
			dest = append(dest, &rs.AverageRating, &rs.ReviewCount)
			return rows.Scan(dest...)
		})
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan ranked store", err)
		}
		rs.Store = *store
		ranked = append(ranked, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating top stores", err)
	}

	return ranked, nil
}

// Nearby filters stores by great-circle distance from origin using the
// haversine formula, closest first. The acos argument is clamped so
// identical coordinates cannot fall outside its domain.
func (a *StoreAdapter) Nearby(ctx context.Context, origin entities.Location, radiusMeters float64, limit int) ([]*entities.NearbyStore, error) {
	query := `
		SELECT * FROM (
			SELECT
				id, name, slug, description, tags, address,
				latitude, longitude, photo, author_id, created_at, updated_at,
				(6371000 * acos(least(1.0,
					cos(radians($1)) * cos(radians(latitude)) *
					cos(radians(longitude) - radians($2)) +
					sin(radians($1)) * sin(radians(latitude))
				))) AS distance_meters
			FROM stores
		) nearby
		WHERE distance_meters <= $3
		ORDER BY distance_meters ASC
		LIMIT $4
	`

	rows, err := a.client.DB().QueryContext(ctx, query,
		origin.Latitude, origin.Longitude, radiusMeters, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query nearby stores", err)
	}
	defer rows.Close()

	stores := []*entities.NearbyStore{}
	for rows.Next() {
		ns := &entities.NearbyStore{}
		store, err := scanStoreRow(func(dest ...interface{}) error {
			dest = append(dest, &ns.DistanceMeters)
			return rows.Scan(dest...)
		})
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan nearby store", err)
		}
		ns.Store = *store
		stores = append(stores, ns)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating nearby stores", err)
	}

	return stores, nil
}

// Search ranks stores against the query with Postgres full-text search over
// name and description. Used when the search index is unavailable.
func (a *StoreAdapter) Search(ctx context.Context, q string, limit int) ([]*entities.Store, error) {
	query := `
		SELECT
			id, name, slug, description, tags, address,
			latitude, longitude, photo, author_id, created_at, updated_at
		FROM stores
		WHERE to_tsvector('english', name || ' ' || coalesce(description, ''))
			@@ plainto_tsquery('english', $1)
		ORDER BY ts_rank(
			to_tsvector('english', name || ' ' || coalesce(description, '')),
			plainto_tsquery('english', $1)
		) DESC
		LIMIT $2
	`

	rows, err := a.client.DB().QueryContext(ctx, query, q, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to search stores", err)
	}
	defer rows.Close()

	stores := []*entities.Store{}
	for rows.Next() {
		store, err := scanStoreRow(rows.Scan)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan store", err)
		}
		stores = append(stores, store)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating stores", err)
	}

	return stores, nil
}

func (a *StoreAdapter) queryStores(ctx context.Context, query string, args []interface{}) ([]*entities.Store, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list stores", err)
	}
	defer rows.Close()

	stores := []*entities.Store{}
	for rows.Next() {
		store, err := scanStoreRow(rows.Scan)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan store", err)
		}
		stores = append(stores, store)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating stores", err)
	}

	return stores, nil
}

func storeRecord(store *entities.Store) goqu.Record {
	return goqu.Record{
		"id":          store.ID,
		"name":        store.Name,
		"slug":        store.Slug,
		"description": sql.NullString{String: store.Description, Valid: store.Description != ""},
		"tags":        pq.Array(store.Tags),
		"address":     store.Address,
		"latitude":    store.Location.Latitude,
		"longitude":   store.Location.Longitude,
		"photo":       sql.NullString{String: store.Photo, Valid: store.Photo != ""},
		"author_id":   store.AuthorID,
		"created_at":  store.CreatedAt,
		"updated_at":  store.UpdatedAt,
	}
}

// scanStoreRow scans the store columns through the given scan function,
// which may append extra destinations for computed columns.
func scanStoreRow(scan func(dest ...interface{}) error) (*entities.Store, error) {
	store := &entities.Store{}
	var description, photo sql.NullString

	err := scan(
		&store.ID,
		&store.Name,
		&store.Slug,
		&description,
		pq.Array(&store.Tags),
		&store.Address,
		&store.Location.Latitude,
		&store.Location.Longitude,
		&photo,
		&store.AuthorID,
		&store.CreatedAt,
		&store.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	store.Description = description.String
	store.Photo = photo.String
	return store, nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && (constraint == "" || pqErr.Constraint == constraint)
	}
	return false
}
