// Package auth implements the credential primitives of the account service:
// signed bearer tokens binding a public user identifier, and one-way
// password hashing.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ivmirov/accountd/internal/common"
)

// GenerateToken issues an HS256-signed token whose subject is the user's
// public identifier and whose expiry is now + validityDuration.
func GenerateToken(userPID uuid.UUID, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userPID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies signature and expiry and returns the public user
// identifier carried in the subject claim.
//
// A malformed structure, a non-HS256 algorithm header, or a bad signature
// yields common.ErrInvalidToken. An expired token or a subject that does not
// parse as a UUID yields common.ErrUnauthorized: the token was well-formed,
// the credential behind it is just no longer usable.
func ParseToken(tokenString string, secretKey []byte) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, common.ErrUnauthorized
		}
		return uuid.Nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return uuid.Nil, common.ErrInvalidToken
	}

	pid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, common.ErrUnauthorized
	}

	return pid, nil
}
