// Package models contains the persistent entities of the account service and
// the derived cache projections built from them.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the persistent identity record. ID is the store-assigned internal
// key and is never exposed to clients; PID is the public opaque identifier
// embedded in tokens and immutable once assigned. Password holds the argon2id
// hash, never the plaintext.
type User struct {
	ID        int64
	PID       uuid.UUID
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CacheUser is the reduced projection of a User held in the identity cache.
// Derived data only: never the source of truth, never persisted.
type CacheUser struct {
	ID    int64
	PID   uuid.UUID
	Email string
}

// CacheUserFrom builds the cache projection from a store row.
func CacheUserFrom(u *User) CacheUser {
	return CacheUser{
		ID:    u.ID,
		PID:   u.PID,
		Email: u.Email,
	}
}
