package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/ivmirov/accountd/internal/common"
	"github.com/ivmirov/accountd/internal/logging"
	"github.com/ivmirov/accountd/internal/server/cache"
	"github.com/ivmirov/accountd/internal/server/models"
	"github.com/ivmirov/accountd/internal/server/repositories/repomanager"
)

const (
	maxNameUpdateLength = 24

	// Absolute birth-date window accepted on updates, epoch seconds.
	minUpdateBirthDate = -2147483648
	maxUpdateBirthDate = 1136098230
)

// discoverLimit caps how many profiles a single discovery call returns.
const discoverLimit = 100

// ProfileUpdateRequest is the client-facing sparse update: nil means the
// field was not sent. Values are validated and normalized here before being
// turned into a store patch.
type ProfileUpdateRequest struct {
	Location  *string
	FirstName *string
	LastName  *string
	IsVisible *bool
	BirthDate *int64
}

type ProfileService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	logger       logging.Logger
	profileCache *cache.Cache[models.CacheProfile]
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager,
	logger logging.Logger, profileCache *cache.Cache[models.CacheProfile]) *ProfileService {
	return &ProfileService{
		db:           db,
		repomanager:  m,
		logger:       logger.With("service", "profile"),
		profileCache: profileCache,
	}
}

// Get returns the profile owned by the authenticated identity.
func (s *ProfileService) Get(ctx context.Context, identity *models.CacheUser) (*models.Profile, error) {

	repo := s.repomanager.Profiles(s.db)

	profile, err := repo.GetByUserID(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		s.logger.Error(ctx, "profile lookup failed", "error", err)
		return nil, common.ErrInternal
	}

	return profile, nil
}

// buildPatch validates each present field and produces the store patch.
// Any invalid field rejects the whole request before the store is touched.
func buildPatch(req *ProfileUpdateRequest) (*models.ProfilePatch, error) {
	patch := &models.ProfilePatch{}

	if req.Location != nil {
		loc, err := normalizeField(*req.Location, maxFieldLength)
		if err != nil {
			return nil, err
		}
		loc = strings.ToUpper(loc)
		patch.Location = &loc
	}
	if req.FirstName != nil {
		name, err := normalizeField(*req.FirstName, maxNameUpdateLength)
		if err != nil {
			return nil, err
		}
		patch.FirstName = &name
	}
	if req.LastName != nil {
		name, err := normalizeField(*req.LastName, maxNameUpdateLength)
		if err != nil {
			return nil, err
		}
		patch.LastName = &name
	}
	if req.IsVisible != nil {
		v := *req.IsVisible
		patch.IsVisible = &v
	}
	if req.BirthDate != nil {
		bd := *req.BirthDate
		if bd < minUpdateBirthDate || bd > maxUpdateBirthDate {
			return nil, common.ErrWrongCredential
		}
		patch.BirthDate = &bd
	}

	if patch.IsEmpty() {
		return nil, common.ErrWrongCredential
	}

	return patch, nil
}

// Update applies a sparse update to the caller's profile and refreshes the
// cached projection with the row the store returns.
func (s *ProfileService) Update(ctx context.Context, identity *models.CacheUser,
	req *ProfileUpdateRequest) (*models.Profile, error) {

	patch, err := buildPatch(req)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Profiles(s.db)

	profile, err := repo.Update(ctx, identity.ID, patch)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		s.logger.Error(ctx, "profile update failed", "error", err)
		return nil, common.ErrInternal
	}

	s.profileCache.Put(profile.PID, models.CacheProfileFrom(profile))

	s.logger.Info(ctx, "profile updated", "pid", profile.PID)

	return profile, nil
}

// DiscoverByLocation lists visible profiles sharing the caller's location,
// excluding the caller's own.
func (s *ProfileService) DiscoverByLocation(ctx context.Context, identity *models.CacheUser) ([]*models.Profile, error) {

	repo := s.repomanager.Profiles(s.db)

	own, err := repo.GetByUserID(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		s.logger.Error(ctx, "profile lookup failed", "error", err)
		return nil, common.ErrInternal
	}

	result, err := repo.ListByLocation(ctx, own.Location, own.ID, discoverLimit)
	if err != nil {
		s.logger.Error(ctx, "profile discovery failed", "error", err)
		return nil, common.ErrInternal
	}

	return result, nil
}
