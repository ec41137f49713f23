package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/storedir/backend/internal/domain/entities"
	"github.com/storedir/backend/internal/domain/repositories"
	"github.com/storedir/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/storedir/backend/pkg/errors"
)

var userColumns = []interface{}{
	"id", "email", "name", "password_hash", "reset_token", "reset_expires",
	"created_at", "updated_at",
}

// UserAdapter implements the UserRepository interface
type UserAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewUserAdapter creates a new user adapter
func NewUserAdapter(client *postgres.Client) repositories.UserRepository {
	return &UserAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts a new user. Email uniqueness is enforced by the database;
// a duplicate address surfaces as a CONFLICT.
func (a *UserAdapter) Create(ctx context.Context, user *entities.User) error {
	record := goqu.Record{
		"id":            user.ID,
		"email":         user.Email,
		"name":          user.Name,
		"password_hash": user.PasswordHash,
		"reset_token":   sql.NullString{String: user.ResetToken, Valid: user.ResetToken != ""},
		"reset_expires": user.ResetExpires,
		"created_at":    user.CreatedAt,
		"updated_at":    user.UpdatedAt,
	}

	query, args, err := a.db.Insert("users").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build user insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return apperrors.NewConflictError(fmt.Sprintf("email %s already registered", user.Email))
		}
		return apperrors.NewInternalError("failed to create user", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (a *UserAdapter) GetByID(ctx context.Context, id string) (*entities.User, error) {
	return a.getWhere(ctx, goqu.Ex{"id": id}, fmt.Sprintf("user with id %s not found", id))
}

// GetByEmail retrieves a user by email
func (a *UserAdapter) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	return a.getWhere(ctx, goqu.Ex{"email": email}, fmt.Sprintf("user with email %s not found", email))
}

// GetByResetToken retrieves a user whose reset token matches and has not
// expired yet.
func (a *UserAdapter) GetByResetToken(ctx context.Context, token string) (*entities.User, error) {
	query, args, err := a.db.Select(userColumns...).
		From("users").
		Where(goqu.Ex{"reset_token": token}).
		Where(goqu.I("reset_expires").Gt(time.Now())).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build reset token query", err)
	}

	row := a.client.DB().QueryRowContext(ctx, query, args...)
	user, err := scanUser(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("reset token is invalid or expired")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get user by reset token", err)
	}

	return user, nil
}

// Update updates a user
func (a *UserAdapter) Update(ctx context.Context, user *entities.User) error {
	user.UpdatedAt = time.Now()

	record := goqu.Record{
		"email":         user.Email,
		"name":          user.Name,
		"password_hash": user.PasswordHash,
		"reset_token":   sql.NullString{String: user.ResetToken, Valid: user.ResetToken != ""},
		"reset_expires": user.ResetExpires,
		"updated_at":    user.UpdatedAt,
	}

	query, args, err := a.db.Update("users").
		Set(record).
		Where(goqu.Ex{"id": user.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build user update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return apperrors.NewConflictError(fmt.Sprintf("email %s already registered", user.Email))
		}
		return apperrors.NewInternalError("failed to update user", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("user with id %s not found", user.ID))
	}

	return nil
}

func (a *UserAdapter) getWhere(ctx context.Context, where goqu.Ex, notFoundMsg string) (*entities.User, error) {
	query, args, err := a.db.Select(userColumns...).
		From("users").
		Where(where).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build user query", err)
	}

	row := a.client.DB().QueryRowContext(ctx, query, args...)
	user, err := scanUser(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(notFoundMsg)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get user", err)
	}

	return user, nil
}

func scanUser(scan func(dest ...interface{}) error) (*entities.User, error) {
	user := &entities.User{}
	var resetToken sql.NullString
	var resetExpires sql.NullTime

	err := scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&resetToken,
		&resetExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.ResetToken = resetToken.String
	if resetExpires.Valid {
		t := resetExpires.Time
		user.ResetExpires = &t
	}
	return user, nil
}
