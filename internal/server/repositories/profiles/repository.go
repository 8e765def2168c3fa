// Package profiles persists the per-user profile row and its partial updates.
package profiles

import (
	"context"

	"github.com/ivmirov/accountd/internal/server/models"
)

// Repository is the storage contract for profiles. Lookups that match no row
// return common.ErrNotFound; inserts that collide with an existing profile
// return common.ErrUserAlreadyExist.
type Repository interface {
	Create(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Profile, error)
	IDByUserID(ctx context.Context, userID int64) (int64, error)
	Update(ctx context.Context, userID int64, patch *models.ProfilePatch) (*models.Profile, error)
	ListByLocation(ctx context.Context, location string, excludeProfileID int64, limit int) ([]*models.Profile, error)
}
