package repositories

import (
	"context"

	"github.com/storedir/backend/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create creates a new user. Email is unique; a second account with
	// the same address returns a CONFLICT error.
	Create(ctx context.Context, user *entities.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// GetByEmail retrieves a user by email (lowercased)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)

	// GetByResetToken retrieves a user by a non-expired reset token
	GetByResetToken(ctx context.Context, token string) (*entities.User, error)

	// Update updates a user
	Update(ctx context.Context, user *entities.User) error
}

// HeartRepository manages the user-to-store favorite relation
type HeartRepository interface {
	// Toggle adds the store to the user's heart set if absent, removes it
	// if present, and returns the updated set
	Toggle(ctx context.Context, userID, storeID string) ([]string, error)

	// Set returns the user's current heart set
	Set(ctx context.Context, userID string) ([]string, error)
}
