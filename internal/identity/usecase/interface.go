// Package usecase implements business logic orchestration for user identity
// operations: registration, password authentication with lockout, profile
// self-service, and account deletion.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/passvault/internal/identity/domain"
)

// RegisterInput contains the input data for user registration.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileInput contains the mutable profile fields.
type UpdateProfileInput struct {
	Name string `json:"name"`
}

// UserUseCase defines the identity store operations.
type UserUseCase interface {
	// Register creates a new account with the configured default role.
	Register(ctx context.Context, input *RegisterInput) (*domain.User, error)

	// Authenticate verifies an email/password pair. Repeated failures lock
	// the account for a cooldown window. Hashes with an outdated cost factor
	// are transparently rehashed on success.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)

	// GetByID retrieves a user by id.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// UpdateProfile updates the caller's own profile.
	UpdateProfile(ctx context.Context, userID uuid.UUID, input *UpdateProfileInput) (*domain.User, error)

	// DeleteAccount permanently removes the account and its owned vaults.
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// OwnedVaultRemover removes every vault owned by a user. Account deletion is
// a hard delete that cascades to owned vaults.
type OwnedVaultRemover interface {
	HardDeleteByOwner(ctx context.Context, ownerID uuid.UUID) error
}
