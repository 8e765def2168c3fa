// Package rest is the HTTP glue of the account service: route wiring,
// bearer-token gating, JSON binding, and the service-error to status-code
// mapping. No business rules live here.
package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ivmirov/accountd/internal/common"
	"github.com/ivmirov/accountd/internal/logging"
	"github.com/ivmirov/accountd/internal/server/models"
	"github.com/ivmirov/accountd/internal/server/services"
)

// AccountService is the slice of the account service the HTTP layer needs.
type AccountService interface {
	Register(ctx context.Context, req *services.RegisterRequest) (*services.RegisterResult, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Authenticate(ctx context.Context, token string) (*models.CacheUser, error)
}

// ProfileService is the slice of the profile service the HTTP layer needs.
type ProfileService interface {
	Get(ctx context.Context, identity *models.CacheUser) (*models.Profile, error)
	Update(ctx context.Context, identity *models.CacheUser, req *services.ProfileUpdateRequest) (*models.Profile, error)
	DiscoverByLocation(ctx context.Context, identity *models.CacheUser) ([]*models.Profile, error)
}

// Pinger is the database health probe.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	accounts AccountService
	profiles ProfileService
	db       Pinger
	logger   logging.Logger
}

func NewHandler(accounts AccountService, profiles ProfileService, db Pinger, logger logging.Logger) *Handler {
	return &Handler{
		accounts: accounts,
		profiles: profiles,
		db:       db,
		logger:   logger.With("component", "rest"),
	}
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	BirthDate int64  `json:"birth_date"`
}

type registerResponse struct {
	PID       uuid.UUID `json:"pid"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	BirthDate int64     `json:"birth_date"`
	Location  string    `json:"location"`
	IsVisible bool      `json:"is_visible"`
	Token     string    `json:"token"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, common.ErrWrongCredential)
		return
	}

	result, err := h.accounts.Register(c.Request.Context(), &services.RegisterRequest{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: req.BirthDate,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, registerResponse{
		PID:       result.PID,
		Email:     result.Email,
		FirstName: result.FirstName,
		LastName:  result.LastName,
		BirthDate: result.BirthDate,
		Location:  result.Location,
		IsVisible: result.IsVisible,
		Token:     result.Token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, common.ErrMissingCredential)
		return
	}

	result, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{Email: result.Email, Token: result.Token})
}

type profileResponse struct {
	PID       uuid.UUID `json:"pid"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Location  string    `json:"location"`
	BirthDate int64     `json:"birth_date"`
	IsVisible bool      `json:"is_visible"`
}

func profileResponseFrom(p *models.Profile) profileResponse {
	return profileResponse{
		PID:       p.PID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Location:  p.Location,
		BirthDate: p.BirthDate,
		IsVisible: p.IsVisible,
	}
}

func (h *Handler) getProfile(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		abortWithError(c, common.ErrUnauthorized)
		return
	}

	profile, err := h.profiles.Get(c.Request.Context(), identity)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, profileResponseFrom(profile))
}

type updateProfileRequest struct {
	Location  *string `json:"location"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	IsVisible *bool   `json:"is_visible"`
	BirthDate *int64  `json:"birth_date"`
}

func (h *Handler) updateProfile(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		abortWithError(c, common.ErrUnauthorized)
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, common.ErrWrongCredential)
		return
	}

	profile, err := h.profiles.Update(c.Request.Context(), identity, &services.ProfileUpdateRequest{
		Location:  req.Location,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsVisible: req.IsVisible,
		BirthDate: req.BirthDate,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, profileResponseFrom(profile))
}

func (h *Handler) discoverProfiles(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		abortWithError(c, common.ErrUnauthorized)
		return
	}

	found, err := h.profiles.DiscoverByLocation(c.Request.Context(), identity)
	if err != nil {
		abortWithError(c, err)
		return
	}

	result := make([]profileResponse, 0, len(found))
	for _, p := range found {
		result = append(result, profileResponseFrom(p))
	}

	c.JSON(http.StatusOK, gin.H{"profiles": result})
}

func (h *Handler) checkAuth(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		abortWithError(c, common.ErrUnauthorized)
		return
	}

	c.JSON(http.StatusOK, gin.H{"email": identity.Email})
}

func (h *Handler) serverHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) dbHealth(c *gin.Context) {
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		h.logger.Error(c.Request.Context(), "db health check failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
