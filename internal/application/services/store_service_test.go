package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storedir/backend/internal/domain/entities"
	"github.com/storedir/backend/internal/domain/repositories"
	"github.com/storedir/backend/pkg/config"
	apperrors "github.com/storedir/backend/pkg/errors"
)

// stubStoreRepo implements repositories.StoreRepository with overridable
// behaviour per test.
type stubStoreRepo struct {
	createFn           func(ctx context.Context, store *entities.Store) error
	getByIDFn          func(ctx context.Context, id string) (*entities.Store, error)
	getBySlugFn        func(ctx context.Context, slug string) (*entities.Store, error)
	getByIDsFn         func(ctx context.Context, ids []string) ([]*entities.Store, error)
	updateFn           func(ctx context.Context, store *entities.Store) error
	listFn             func(ctx context.Context, filter repositories.StoreFilter) ([]*entities.Store, error)
	countSlugMatchesFn func(ctx context.Context, base string) (int, error)
	listTagsFn         func(ctx context.Context) ([]*entities.TagCount, error)
	topStoresFn        func(ctx context.Context, minReviews, limit int) ([]*entities.RankedStore, error)
	nearbyFn           func(ctx context.Context, origin entities.Location, radiusMeters float64, limit int) ([]*entities.NearbyStore, error)
	searchFn           func(ctx context.Context, query string, limit int) ([]*entities.Store, error)
}

func (s *stubStoreRepo) Create(ctx context.Context, store *entities.Store) error {
	if s.createFn != nil {
		return s.createFn(ctx, store)
	}
	return nil
}

func (s *stubStoreRepo) GetByID(ctx context.Context, id string) (*entities.Store, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return nil, apperrors.NewNotFoundError("store not found")
}

func (s *stubStoreRepo) GetBySlug(ctx context.Context, slug string) (*entities.Store, error) {
	if s.getBySlugFn != nil {
		return s.getBySlugFn(ctx, slug)
	}
	return nil, apperrors.NewNotFoundError("store not found")
}

func (s *stubStoreRepo) GetByIDs(ctx context.Context, ids []string) ([]*entities.Store, error) {
	if s.getByIDsFn != nil {
		return s.getByIDsFn(ctx, ids)
	}
	return nil, nil
}

func (s *stubStoreRepo) Update(ctx context.Context, store *entities.Store) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, store)
	}
	return nil
}

func (s *stubStoreRepo) List(ctx context.Context, filter repositories.StoreFilter) ([]*entities.Store, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, nil
}

func (s *stubStoreRepo) CountSlugMatches(ctx context.Context, base string) (int, error) {
	if s.countSlugMatchesFn != nil {
		return s.countSlugMatchesFn(ctx, base)
	}
	return 0, nil
}

func (s *stubStoreRepo) ListTags(ctx context.Context) ([]*entities.TagCount, error) {
	if s.listTagsFn != nil {
		return s.listTagsFn(ctx)
	}
	return nil, nil
}

func (s *stubStoreRepo) TopStores(ctx context.Context, minReviews, limit int) ([]*entities.RankedStore, error) {
	if s.topStoresFn != nil {
		return s.topStoresFn(ctx, minReviews, limit)
	}
	return nil, nil
}

func (s *stubStoreRepo) Nearby(ctx context.Context, origin entities.Location, radiusMeters float64, limit int) ([]*entities.NearbyStore, error) {
	if s.nearbyFn != nil {
		return s.nearbyFn(ctx, origin, radiusMeters, limit)
	}
	return nil, nil
}

func (s *stubStoreRepo) Search(ctx context.Context, query string, limit int) ([]*entities.Store, error) {
	if s.searchFn != nil {
		return s.searchFn(ctx, query, limit)
	}
	return nil, nil
}

// stubSearchRepo implements repositories.StoreSearchRepository.
type stubSearchRepo struct {
	searchFn func(ctx context.Context, query string, limit int) ([]*entities.Store, error)
	nearbyFn func(ctx context.Context, origin entities.Location, radiusMeters float64, limit int) ([]*entities.NearbyStore, error)
	indexFn  func(ctx context.Context, store *entities.Store) error
	deleteFn func(ctx context.Context, id string) error
}

func (s *stubSearchRepo) Search(ctx context.Context, query string, limit int) ([]*entities.Store, error) {
	if s.searchFn != nil {
		return s.searchFn(ctx, query, limit)
	}
	return nil, nil
}

func (s *stubSearchRepo) Nearby(ctx context.Context, origin entities.Location, radiusMeters float64, limit int) ([]*entities.NearbyStore, error) {
	if s.nearbyFn != nil {
		return s.nearbyFn(ctx, origin, radiusMeters, limit)
	}
	return nil, nil
}

func (s *stubSearchRepo) Index(ctx context.Context, store *entities.Store) error {
	if s.indexFn != nil {
		return s.indexFn(ctx, store)
	}
	return nil
}

func (s *stubSearchRepo) Delete(ctx context.Context, id string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func testDiscoveryConfig() *config.DiscoveryConfig {
	return &config.DiscoveryConfig{
		NearbyRadiusMeters: 10000,
		NearbyLimit:        10,
		TopLimit:           10,
		TopMinReviews:      2,
		SearchLimit:        5,
	}
}

func validInput() *StoreInput {
	return &StoreInput{
		Name:    "Joe's Pizza",
		Address: "123 Main St",
		Location: &entities.Location{
			Latitude:  6.5244,
			Longitude: 3.3792,
		},
	}
}

func TestStoreService_Create_FirstSlugIsBase(t *testing.T) {
	var created *entities.Store
	repo := &stubStoreRepo{
		countSlugMatchesFn: func(ctx context.Context, base string) (int, error) {
			assert.Equal(t, "joes-pizza", base)
			return 0, nil
		},
		createFn: func(ctx context.Context, store *entities.Store) error {
			created = store
			return nil
		},
	}
	svc := NewStoreService(repo, nil, testDiscoveryConfig())

	store, err := svc.Create(context.Background(), validInput(), "user-1")

	assert.NoError(t, err)
	assert.Equal(t, "joes-pizza", store.Slug)
	assert.Equal(t, "user-1", store.AuthorID)
	assert.NotEmpty(t, created.ID)
}

func TestStoreService_Create_SuffixesOnCollision(t *testing.T) {
	repo := &stubStoreRepo{
		countSlugMatchesFn: func(ctx context.Context, base string) (int, error) {
			return 2, nil
		},
	}
	svc := NewStoreService(repo, nil, testDiscoveryConfig())

	store, err := svc.Create(context.Background(), validInput(), "user-1")

	assert.NoError(t, err)
	assert.Equal(t, "joes-pizza-3", store.Slug)
}

func TestStoreService_Create_RetriesOnSlugRace(t *testing.T) {
	counts := []int{0, 1}
	calls := 0
	repo := &stubStoreRepo{
		countSlugMatchesFn: func(ctx context.Context, base string) (int, error) {
			n := counts[0]
			if len(counts) > 1 {
				counts = counts[1:]
			}
			return n, nil
		},
		createFn: func(ctx context.Context, store *entities.Store) error {
			calls++
			if calls == 1 {
				// A concurrent create grabbed the bare slug first.
				return apperrors.NewConflictError("a store with this slug already exists")
			}
			return nil
		},
	}
	svc := NewStoreService(repo, nil, testDiscoveryConfig())

	store, err := svc.Create(context.Background(), validInput(), "user-1")

	assert.NoError(t, err)
	assert.Equal(t, "joes-pizza-2", store.Slug)
	assert.Equal(t, 2, calls)
}

func TestStoreService_Create_ValidatesInput(t *testing.T) {
	svc := NewStoreService(&stubStoreRepo{}, nil, testDiscoveryConfig())

	tests := []struct {
		name   string
		mutate func(in *StoreInput)
	}{
		{"missing name", func(in *StoreInput) { in.Name = "  " }},
		{"missing address", func(in *StoreInput) { in.Address = "" }},
		{"missing location", func(in *StoreInput) { in.Location = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(in)
			_, err := svc.Create(context.Background(), in, "user-1")
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		})
	}
}

func TestStoreService_Create_RejectsBadCoordinates(t *testing.T) {
	svc := NewStoreService(&stubStoreRepo{}, nil, testDiscoveryConfig())

	in := validInput()
	in.Location = &entities.Location{Latitude: 91, Longitude: 0}
	_, err := svc.Create(context.Background(), in, "user-1")

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidInput))
}

func TestStoreService_Update_RequiresOwnership(t *testing.T) {
	repo := &stubStoreRepo{
		getByIDFn: func(ctx context.Context, id string) (*entities.Store, error) {
			return &entities.Store{ID: id, Name: "Joe's Pizza", AuthorID: "owner"}, nil
		},
	}
	svc := NewStoreService(repo, nil, testDiscoveryConfig())

	_, err := svc.Update(context.Background(), "store-1", validInput(), "intruder")

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
}

func TestStoreService_Update_KeepsSlugWhenNameUnchanged(t *testing.T) {
	countCalled := false
	repo := &stubStoreRepo{
		getByIDFn: func(ctx context.Context, id string) (*entities.Store, error) {
			return &entities.Store{ID: id, Name: "Joe's Pizza", Slug: "joes-pizza-7", AuthorID: "owner"}, nil
		},
		countSlugMatchesFn: func(ctx context.Context, base string) (int, error) {
			countCalled = true
			return 0, nil
		},
	}
	svc := NewStoreService(repo, nil, testDiscoveryConfig())

	store, err := svc.Update(context.Background(), "store-1", validInput(), "owner")

	assert.NoError(t, err)
	assert.Equal(t, "joes-pizza-7", store.Slug)
	assert.False(t, countCalled)
}

func TestStoreService_Update_RecomputesSlugOnRename(t *testing.T) {
	repo := &stubStoreRepo{
		getByIDFn: func(ctx context.Context, id string) (*entities.Store, error) {
			return &entities.Store{ID: id, Name: "Old Name", Slug: "old-name", AuthorID: "owner"}, nil
		},
		countSlugMatchesFn: func(ctx context.Context, base string) (int, error) {
			assert.Equal(t, "joes-pizza", base)
			return 1, nil
		},
	}
	svc := NewStoreService(repo, nil, testDiscoveryConfig())

	store, err := svc.Update(context.Background(), "store-1", validInput(), "owner")

	assert.NoError(t, err)
	assert.Equal(t, "joes-pizza-2", store.Slug)
}

func TestStoreService_Search_BlankQueryReturnsEmpty(t *testing.T) {
	repo := &stubStoreRepo{
		searchFn: func(ctx context.Context, query string, limit int) ([]*entities.Store, error) {
			t.Fatal("database should not be queried for a blank search")
			return nil, nil
		},
	}
	svc := NewStoreService(repo, nil, testDiscoveryConfig())

	stores, err := svc.Search(context.Background(), "   ", 0)

	assert.NoError(t, err)
	assert.Empty(t, stores)
}

func TestStoreService_Search_FallsBackToDatabase(t *testing.T) {
	search := &stubSearchRepo{
		searchFn: func(ctx context.Context, query string, limit int) ([]*entities.Store, error) {
			return nil, apperrors.NewExternalError("typesense unavailable", nil)
		},
	}
	repo := &stubStoreRepo{
		searchFn: func(ctx context.Context, query string, limit int) ([]*entities.Store, error) {
			assert.Equal(t, "coffee", query)
			assert.Equal(t, 5, limit)
			return []*entities.Store{{Name: "Coffee Corner"}}, nil
		},
	}
	svc := NewStoreService(repo, search, testDiscoveryConfig())

	stores, err := svc.Search(context.Background(), "coffee", 0)

	assert.NoError(t, err)
	assert.Len(t, stores, 1)
	assert.Equal(t, "Coffee Corner", stores[0].Name)
}

func TestStoreService_Nearby_UsesConfiguredDefaults(t *testing.T) {
	repo := &stubStoreRepo{
		nearbyFn: func(ctx context.Context, origin entities.Location, radiusMeters float64, limit int) ([]*entities.NearbyStore, error) {
			assert.Equal(t, 10000.0, radiusMeters)
			assert.Equal(t, 10, limit)
			return []*entities.NearbyStore{}, nil
		},
	}
	svc := NewStoreService(repo, nil, testDiscoveryConfig())

	_, err := svc.Nearby(context.Background(), entities.Location{Latitude: 6.5, Longitude: 3.3}, 0, 0)

	assert.NoError(t, err)
}

func TestStoreService_Nearby_RejectsOutOfRangeOrigin(t *testing.T) {
	svc := NewStoreService(&stubStoreRepo{}, nil, testDiscoveryConfig())

	_, err := svc.Nearby(context.Background(), entities.Location{Latitude: 0, Longitude: 181}, 0, 0)

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidInput))
}

func TestStoreService_TopStores_DefaultsFromConfig(t *testing.T) {
	repo := &stubStoreRepo{
		topStoresFn: func(ctx context.Context, minReviews, limit int) ([]*entities.RankedStore, error) {
			assert.Equal(t, 2, minReviews)
			assert.Equal(t, 10, limit)
			return nil, nil
		},
	}
	svc := NewStoreService(repo, nil, testDiscoveryConfig())

	_, err := svc.TopStores(context.Background(), 0, 0)

	assert.NoError(t, err)
}

func TestStoreService_ListByTag(t *testing.T) {
	var got repositories.StoreFilter
	repo := &stubStoreRepo{
		listFn: func(ctx context.Context, filter repositories.StoreFilter) ([]*entities.Store, error) {
			got = filter
			return nil, nil
		},
	}
	svc := NewStoreService(repo, nil, testDiscoveryConfig())

	_, err := svc.ListByTag(context.Background(), "Wifi")
	assert.NoError(t, err)
	assert.Equal(t, "Wifi", got.Tag)
	assert.False(t, got.AnyTag)

	_, err = svc.ListByTag(context.Background(), "")
	assert.NoError(t, err)
	assert.Empty(t, got.Tag)
	assert.True(t, got.AnyTag)
}
