package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/storedir/backend/internal/domain/repositories"
	"github.com/storedir/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/storedir/backend/pkg/errors"
)

// HeartAdapter implements the HeartRepository interface over the hearts
// join table. The (user_id, store_id) primary key makes the set duplicate
// free by construction.
type HeartAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewHeartAdapter creates a new heart adapter
func NewHeartAdapter(client *postgres.Client) repositories.HeartRepository {
	return &HeartAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Toggle removes the heart if present, inserts it otherwise, and returns
// the updated set. The delete-first shape makes the operation an involution:
// applying it twice restores the original set.
func (a *HeartAdapter) Toggle(ctx context.Context, userID, storeID string) ([]string, error) {
	delQuery, delArgs, err := a.db.Delete("hearts").
		Where(goqu.Ex{"user_id": userID, "store_id": storeID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build heart delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, delQuery, delArgs...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to toggle heart", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get rows affected", err)
	}

	if removed == 0 {
		record := goqu.Record{
			"user_id":    userID,
			"store_id":   storeID,
			"created_at": time.Now(),
		}
		insQuery, insArgs, err := a.db.Insert("hearts").
			Rows(record).
			OnConflict(goqu.DoNothing()).
			ToSQL()
		if err != nil {
			return nil, apperrors.NewInternalError("failed to build heart insert query", err)
		}
		if _, err := a.client.DB().ExecContext(ctx, insQuery, insArgs...); err != nil {
			return nil, apperrors.NewInternalError("failed to add heart", err)
		}
	}

	return a.Set(ctx, userID)
}

// Set returns the user's current heart set, most recent first
func (a *HeartAdapter) Set(ctx context.Context, userID string) ([]string, error) {
	query, args, err := a.db.Select("store_id").
		From("hearts").
		Where(goqu.Ex{"user_id": userID}).
		Order(goqu.I("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build heart set query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load heart set", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewInternalError("failed to scan heart", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating hearts", err)
	}

	return ids, nil
}
