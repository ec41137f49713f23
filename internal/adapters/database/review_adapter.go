package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/storedir/backend/internal/domain/entities"
	"github.com/storedir/backend/internal/domain/repositories"
	"github.com/storedir/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/storedir/backend/pkg/errors"
)

// ReviewAdapter implements the ReviewRepository interface
type ReviewAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewReviewAdapter creates a new review adapter
func NewReviewAdapter(client *postgres.Client) repositories.ReviewRepository {
	return &ReviewAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts a review. The (store_id, author_id) unique index is the
// authoritative gate: the insert and the uniqueness check are one atomic
// operation, so two concurrent submissions end with exactly one row.
func (a *ReviewAdapter) Create(ctx context.Context, review *entities.Review) error {
	record := goqu.Record{
		"id":         review.ID,
		"store_id":   review.StoreID,
		"author_id":  review.AuthorID,
		"rating":     review.Rating,
		"text":       sql.NullString{String: review.Text, Valid: review.Text != ""},
		"created_at": review.CreatedAt,
	}

	query, args, err := a.db.Insert("reviews").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build review insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err, "reviews_store_id_author_id_key") {
			return apperrors.NewDuplicateError(
				fmt.Sprintf("author %s already reviewed store %s", review.AuthorID, review.StoreID))
		}
		return apperrors.NewInternalError("failed to create review", err)
	}

	return nil
}

// ListByStore retrieves reviews for a store, newest first
func (a *ReviewAdapter) ListByStore(ctx context.Context, storeID string) ([]*entities.Review, error) {
	query, args, err := a.db.Select("id", "store_id", "author_id", "rating", "text", "created_at").
		From("reviews").
		Where(goqu.Ex{"store_id": storeID}).
		Order(goqu.I("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build review list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list reviews", err)
	}
	defer rows.Close()

	reviews := []*entities.Review{}
	for rows.Next() {
		review := &entities.Review{}
		var text sql.NullString
		err := rows.Scan(
			&review.ID,
			&review.StoreID,
			&review.AuthorID,
			&review.Rating,
			&text,
			&review.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan review", err)
		}
		review.Text = text.String
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating reviews", err)
	}

	return reviews, nil
}

// ExistsForAuthor reports whether the author already reviewed the store
func (a *ReviewAdapter) ExistsForAuthor(ctx context.Context, storeID, authorID string) (bool, error) {
	query, args, err := a.db.Select(goqu.COUNT(goqu.Star())).
		From("reviews").
		Where(goqu.Ex{"store_id": storeID, "author_id": authorID}).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build review exists query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, apperrors.NewInternalError("failed to check review existence", err)
	}

	return count > 0, nil
}
