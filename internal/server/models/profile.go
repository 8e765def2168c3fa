package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the single per-user profile record. UserID references the
// owning User's internal id; at most one Profile exists per user. BirthDate
// is epoch seconds.
type Profile struct {
	ID        int64
	PID       uuid.UUID
	UserID    int64
	BirthDate int64
	FirstName string
	LastName  string
	Location  string
	IsVisible bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CacheProfile is the reduced projection of a Profile held in the identity
// cache, keyed by the profile's public identifier.
type CacheProfile struct {
	ID        int64
	UserID    int64
	BirthDate int64
	FirstName string
	LastName  string
}

// CacheProfileFrom builds the cache projection from a store row.
func CacheProfileFrom(p *Profile) CacheProfile {
	return CacheProfile{
		ID:        p.ID,
		UserID:    p.UserID,
		BirthDate: p.BirthDate,
		FirstName: p.FirstName,
		LastName:  p.LastName,
	}
}

// ProfilePatch is a sparse partial update of a Profile: nil fields are left
// untouched by the store. Values are expected to be validated and normalized
// before the patch reaches a repository.
type ProfilePatch struct {
	Location  *string
	FirstName *string
	LastName  *string
	IsVisible *bool
	BirthDate *int64
}

// IsEmpty reports whether the patch carries no fields at all.
func (p *ProfilePatch) IsEmpty() bool {
	return p.Location == nil && p.FirstName == nil && p.LastName == nil &&
		p.IsVisible == nil && p.BirthDate == nil
}
