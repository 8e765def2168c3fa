// Package services contains the business logic of the account service:
// registration, login, token-based identity resolution, and profile
// management. Services own validation and normalization; repositories only
// ever see clean values.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ivmirov/accountd/internal/common"
	"github.com/ivmirov/accountd/internal/dbx"
	"github.com/ivmirov/accountd/internal/logging"
	"github.com/ivmirov/accountd/internal/server/auth"
	"github.com/ivmirov/accountd/internal/server/cache"
	"github.com/ivmirov/accountd/internal/server/config"
	"github.com/ivmirov/accountd/internal/server/models"
	"github.com/ivmirov/accountd/internal/server/repositories/repomanager"
)

const (
	maxFieldLength = 255

	// Registration age window, measured in 365-day years.
	minRegistrationAge = 13
	maxRegistrationAge = 121
)

const yearSeconds = 365 * 24 * 60 * 60

// RegisterRequest carries the normalized-on-entry fields of a registration.
type RegisterRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	BirthDate int64
}

// RegisterResult is what a successful registration returns to the client:
// the created profile fields plus a freshly issued bearer token.
type RegisterResult struct {
	PID       uuid.UUID
	Email     string
	FirstName string
	LastName  string
	BirthDate int64
	Location  string
	IsVisible bool
	Token     string
}

// LoginResult pairs the account email with a freshly issued bearer token.
type LoginResult struct {
	Email string
	Token string
}

type AccountService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	logger       logging.Logger
	hasher       *auth.Argon2
	jwtSecret    []byte
	tokenTTL     time.Duration
	userCache    *cache.Cache[models.CacheUser]
	profileCache *cache.Cache[models.CacheProfile]
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config,
	logger logging.Logger, userCache *cache.Cache[models.CacheUser],
	profileCache *cache.Cache[models.CacheProfile]) *AccountService {
	return &AccountService{
		db:           db,
		repomanager:  m,
		logger:       logger.With("service", "account"),
		hasher:       auth.NewArgon2(),
		jwtSecret:    []byte(cfg.SecretKey),
		tokenTTL:     cfg.TokenValidityDuration,
		userCache:    userCache,
		profileCache: profileCache,
	}
}

// normalizeField trims the value and checks the byte-length bounds shared by
// most registration fields.
func normalizeField(value string, maxLen int) (string, error) {
	v := strings.TrimSpace(value)
	if len(v) < 1 || len(v) > maxLen {
		return "", common.ErrWrongCredential
	}
	return v, nil
}

func (s *AccountService) validateRegistration(req *RegisterRequest) error {
	email, err := normalizeField(req.Email, maxFieldLength)
	if err != nil {
		return err
	}
	req.Email = strings.ToLower(email)

	if req.Password, err = normalizeField(req.Password, maxFieldLength); err != nil {
		return err
	}
	if req.FirstName, err = normalizeField(req.FirstName, maxFieldLength); err != nil {
		return err
	}
	if req.LastName, err = normalizeField(req.LastName, maxFieldLength); err != nil {
		return err
	}

	now := time.Now().Unix()
	oldest := now - maxRegistrationAge*yearSeconds
	youngest := now - minRegistrationAge*yearSeconds
	if req.BirthDate < oldest || req.BirthDate > youngest {
		return common.ErrWrongCredential
	}

	return nil
}

// Register creates an account and its profile. A user row without a profile
// is treated as an interrupted earlier attempt: registering again with the
// same email completes it by creating only the missing profile.
func (s *AccountService) Register(ctx context.Context, req *RegisterRequest) (*RegisterResult, error) {

	if err := s.validateRegistration(req); err != nil {
		return nil, err
	}

	usersRepo := s.repomanager.Users(s.db)

	userID, userPID, err := usersRepo.GetIDsByEmail(ctx, req.Email)

	switch {
	case err == nil:
		return s.completeRegistration(ctx, req, userID, userPID)
	case errors.Is(err, common.ErrNotFound):
		return s.freshRegistration(ctx, req)
	default:
		s.logger.Error(ctx, "registration lookup failed", "error", err)
		return nil, common.ErrInternal
	}
}

// completeRegistration handles the user-exists path: either the profile is
// missing (finish the interrupted registration) or the account is complete
// and the attempt is a duplicate.
func (s *AccountService) completeRegistration(ctx context.Context, req *RegisterRequest,
	userID int64, userPID uuid.UUID) (*RegisterResult, error) {

	profilesRepo := s.repomanager.Profiles(s.db)

	_, err := profilesRepo.IDByUserID(ctx, userID)
	if err == nil {
		return nil, common.ErrUserAlreadyExist
	}
	if !errors.Is(err, common.ErrNotFound) {
		s.logger.Error(ctx, "profile lookup failed", "error", err)
		return nil, common.ErrInternal
	}

	s.logger.Info(ctx, "completing interrupted registration", "user_id", userID)

	profile := &models.Profile{
		PID:       uuid.New(),
		UserID:    userID,
		BirthDate: req.BirthDate,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}

	profile, err = profilesRepo.Create(ctx, profile)
	if err != nil {
		if errors.Is(err, common.ErrUserAlreadyExist) {
			return nil, common.ErrUserAlreadyExist
		}
		s.logger.Error(ctx, "profile creation failed", "error", err)
		return nil, common.ErrInternal
	}

	user := &models.User{ID: userID, PID: userPID, Email: req.Email}
	return s.finishRegistration(ctx, user, profile)
}

// freshRegistration creates the user and profile rows in one transaction, so
// a failure midway leaves no partial account behind.
func (s *AccountService) freshRegistration(ctx context.Context, req *RegisterRequest) (*RegisterResult, error) {

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return nil, common.ErrInternal
	}

	var user *models.User
	var profile *models.Profile

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		usersRepo := s.repomanager.Users(tx)
		profilesRepo := s.repomanager.Profiles(tx)

		user = &models.User{
			PID:      uuid.New(),
			Email:    req.Email,
			Password: hash,
		}

		user, err = usersRepo.Create(ctx, user)
		if err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}

		profile = &models.Profile{
			PID:       uuid.New(),
			UserID:    user.ID,
			BirthDate: req.BirthDate,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		}

		profile, err = profilesRepo.Create(ctx, profile)
		if err != nil {
			return fmt.Errorf("error creating profile: %w", err)
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, common.ErrUserAlreadyExist) {
			return nil, common.ErrUserAlreadyExist
		}
		s.logger.Error(ctx, "registration failed", "error", err)
		return nil, common.ErrInternal
	}

	return s.finishRegistration(ctx, user, profile)
}

// finishRegistration issues the token and warms both cache projections.
func (s *AccountService) finishRegistration(ctx context.Context, user *models.User,
	profile *models.Profile) (*RegisterResult, error) {

	token, err := auth.GenerateToken(user.PID, s.jwtSecret, s.tokenTTL)
	if err != nil {
		s.logger.Error(ctx, "token generation failed", "error", err)
		return nil, common.ErrInternal
	}

	s.userCache.Put(user.PID, models.CacheUserFrom(user))
	s.profileCache.Put(profile.PID, models.CacheProfileFrom(profile))

	s.logger.Info(ctx, "registration complete", "pid", user.PID)

	return &RegisterResult{
		PID:       profile.PID,
		Email:     user.Email,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		BirthDate: profile.BirthDate,
		Location:  profile.Location,
		IsVisible: profile.IsVisible,
		Token:     token,
	}, nil
}

// Login verifies the credentials and issues a fresh bearer token. An unknown
// email and a wrong password both surface as ErrWrongCredential so the
// response does not reveal which accounts exist.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {

	email = strings.ToLower(strings.TrimSpace(email))
	password = strings.TrimSpace(password)

	if email == "" || password == "" {
		return nil, common.ErrMissingCredential
	}

	usersRepo := s.repomanager.Users(s.db)

	user, err := usersRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Warn(ctx, "login attempt for unknown email")
			return nil, common.ErrWrongCredential
		}
		s.logger.Error(ctx, "login lookup failed", "error", err)
		return nil, common.ErrInternal
	}

	ok, err := s.hasher.Verify(password, user.Password)
	if err != nil {
		s.logger.Error(ctx, "password verification failed", "error", err)
		return nil, common.ErrInternal
	}
	if !ok {
		return nil, common.ErrWrongCredential
	}

	token, err := auth.GenerateToken(user.PID, s.jwtSecret, s.tokenTTL)
	if err != nil {
		s.logger.Error(ctx, "token generation failed", "error", err)
		return nil, common.ErrInternal
	}

	s.userCache.Put(user.PID, models.CacheUserFrom(user))

	// Refresh the profile projection too while the account is hot. A missing
	// profile is an interrupted registration, not a login failure.
	profilesRepo := s.repomanager.Profiles(s.db)
	if profile, err := profilesRepo.GetByUserID(ctx, user.ID); err == nil {
		s.profileCache.Put(profile.PID, models.CacheProfileFrom(profile))
	} else if !errors.Is(err, common.ErrNotFound) {
		s.logger.Warn(ctx, "profile refresh on login failed", "error", err)
	}

	s.logger.Info(ctx, "login successful", "pid", user.PID)

	return &LoginResult{Email: user.Email, Token: token}, nil
}

// Authenticate resolves a bearer token to the identity it names, consulting
// the cache before the store. It never writes to the store.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*models.CacheUser, error) {

	pid, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.userCache.Get(pid); ok {
		return &cached, nil
	}

	usersRepo := s.repomanager.Users(s.db)

	user, err := usersRepo.GetByPID(ctx, pid)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		s.logger.Error(ctx, "identity lookup failed", "error", err)
		return nil, common.ErrInternal
	}

	cached := models.CacheUserFrom(user)
	s.userCache.Put(pid, cached)

	return &cached, nil
}
