package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storedir/backend/internal/domain/entities"
	apperrors "github.com/storedir/backend/pkg/errors"
)

// stubReviewRepo implements repositories.ReviewRepository.
type stubReviewRepo struct {
	createFn          func(ctx context.Context, review *entities.Review) error
	listByStoreFn     func(ctx context.Context, storeID string) ([]*entities.Review, error)
	existsForAuthorFn func(ctx context.Context, storeID, authorID string) (bool, error)
}

func (s *stubReviewRepo) Create(ctx context.Context, review *entities.Review) error {
	if s.createFn != nil {
		return s.createFn(ctx, review)
	}
	return nil
}

func (s *stubReviewRepo) ListByStore(ctx context.Context, storeID string) ([]*entities.Review, error) {
	if s.listByStoreFn != nil {
		return s.listByStoreFn(ctx, storeID)
	}
	return nil, nil
}

func (s *stubReviewRepo) ExistsForAuthor(ctx context.Context, storeID, authorID string) (bool, error) {
	if s.existsForAuthorFn != nil {
		return s.existsForAuthorFn(ctx, storeID, authorID)
	}
	return false, nil
}

func knownStoreRepo() *stubStoreRepo {
	return &stubStoreRepo{
		getByIDFn: func(ctx context.Context, id string) (*entities.Store, error) {
			return &entities.Store{ID: id, Name: "Joe's Pizza"}, nil
		},
	}
}

func TestReviewService_Create(t *testing.T) {
	var created *entities.Review
	reviews := &stubReviewRepo{
		createFn: func(ctx context.Context, review *entities.Review) error {
			created = review
			return nil
		},
	}
	svc := NewReviewService(reviews, knownStoreRepo())

	review, err := svc.Create(context.Background(), "store-1", "author-1", 4, "Great slices")

	assert.NoError(t, err)
	assert.Equal(t, "store-1", review.StoreID)
	assert.Equal(t, "author-1", review.AuthorID)
	assert.Equal(t, 4, review.Rating)
	assert.NotEmpty(t, created.ID)
}

func TestReviewService_Create_RejectsBadRating(t *testing.T) {
	svc := NewReviewService(&stubReviewRepo{}, knownStoreRepo())

	for _, rating := range []int{0, -1, 6} {
		_, err := svc.Create(context.Background(), "store-1", "author-1", rating, "text")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation), "rating %d", rating)
	}
}

func TestReviewService_Create_AcceptsRatingOnly(t *testing.T) {
	svc := NewReviewService(&stubReviewRepo{}, knownStoreRepo())

	review, err := svc.Create(context.Background(), "store-1", "author-1", 4, "   ")

	assert.NoError(t, err)
	assert.Equal(t, 4, review.Rating)
	assert.Empty(t, review.Text)
}

func TestReviewService_Create_UnknownStore(t *testing.T) {
	svc := NewReviewService(&stubReviewRepo{}, &stubStoreRepo{})

	_, err := svc.Create(context.Background(), "missing", "author-1", 3, "text")

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestReviewService_Create_SecondReviewIsDuplicate(t *testing.T) {
	reviews := &stubReviewRepo{
		createFn: func(ctx context.Context, review *entities.Review) error {
			return apperrors.NewDuplicateError("you have already reviewed this store")
		},
	}
	svc := NewReviewService(reviews, knownStoreRepo())

	_, err := svc.Create(context.Background(), "store-1", "author-1", 5, "Again!")

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDuplicate))
}

func TestReviewService_CanReview(t *testing.T) {
	reviews := &stubReviewRepo{
		existsForAuthorFn: func(ctx context.Context, storeID, authorID string) (bool, error) {
			return authorID == "already", nil
		},
	}
	svc := NewReviewService(reviews, knownStoreRepo())

	ok, err := svc.CanReview(context.Background(), "store-1", "fresh")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CanReview(context.Background(), "store-1", "already")
	assert.NoError(t, err)
	assert.False(t, ok)
}
