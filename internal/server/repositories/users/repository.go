// Package users provides persistence for user identity records.
package users

import (
	"context"

	"github.com/google/uuid"

	"github.com/ivmirov/accountd/internal/server/models"
)

// Repository defines user-related store operations. Lookups that find no row
// return common.ErrNotFound; Create maps a duplicate email to
// common.ErrUserAlreadyExist.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByPID(ctx context.Context, pid uuid.UUID) (*models.User, error)
	GetIDsByEmail(ctx context.Context, email string) (int64, uuid.UUID, error)
}
