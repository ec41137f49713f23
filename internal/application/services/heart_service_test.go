package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storedir/backend/internal/domain/entities"
	apperrors "github.com/storedir/backend/pkg/errors"
)

// stubHeartRepo implements repositories.HeartRepository backed by a map.
type stubHeartRepo struct {
	hearts map[string]map[string]bool
}

func newStubHeartRepo() *stubHeartRepo {
	return &stubHeartRepo{hearts: map[string]map[string]bool{}}
}

func (s *stubHeartRepo) Toggle(ctx context.Context, userID, storeID string) ([]string, error) {
	set, ok := s.hearts[userID]
	if !ok {
		set = map[string]bool{}
		s.hearts[userID] = set
	}
	if set[storeID] {
		delete(set, storeID)
	} else {
		set[storeID] = true
	}
	return s.Set(ctx, userID)
}

func (s *stubHeartRepo) Set(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	for id := range s.hearts[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestHeartService_Toggle_IsAnInvolution(t *testing.T) {
	svc := NewHeartService(newStubHeartRepo(), knownStoreRepo())

	ids, err := svc.Toggle(context.Background(), "user-1", "store-1")
	assert.NoError(t, err)
	assert.Equal(t, []string{"store-1"}, ids)

	ids, err = svc.Toggle(context.Background(), "user-1", "store-1")
	assert.NoError(t, err)
	assert.Empty(t, ids)
}

func TestHeartService_Toggle_UnknownStore(t *testing.T) {
	svc := NewHeartService(newStubHeartRepo(), &stubStoreRepo{})

	_, err := svc.Toggle(context.Background(), "user-1", "missing")

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestHeartService_Stores(t *testing.T) {
	hearts := newStubHeartRepo()
	hearts.hearts["user-1"] = map[string]bool{"store-1": true}

	stores := &stubStoreRepo{
		getByIDsFn: func(ctx context.Context, ids []string) ([]*entities.Store, error) {
			assert.Equal(t, []string{"store-1"}, ids)
			return []*entities.Store{{ID: "store-1", Name: "Joe's Pizza"}}, nil
		},
	}
	svc := NewHeartService(hearts, stores)

	got, err := svc.Stores(context.Background(), "user-1")

	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "Joe's Pizza", got[0].Name)
}

func TestHeartService_Stores_EmptySet(t *testing.T) {
	stores := &stubStoreRepo{
		getByIDsFn: func(ctx context.Context, ids []string) ([]*entities.Store, error) {
			t.Fatal("GetByIDs should not run for an empty heart set")
			return nil, nil
		},
	}
	svc := NewHeartService(newStubHeartRepo(), stores)

	got, err := svc.Stores(context.Background(), "user-1")

	assert.NoError(t, err)
	assert.Empty(t, got)
}
