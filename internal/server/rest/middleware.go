package rest

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ivmirov/accountd/internal/common"
	"github.com/ivmirov/accountd/internal/server/models"
)

// identityKey is the gin context key under which the resolved identity is
// stored for downstream handlers.
const identityKey = "identity"

// AuthMiddleware extracts the bearer token, resolves it to an identity and
// stores the identity on the request context. Requests without a usable
// token never reach the handlers behind it.
func AuthMiddleware(accounts AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		if header == "" {
			abortWithError(c, common.ErrUnauthorized)
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || scheme != common.BearerPrefix || strings.TrimSpace(token) == "" {
			abortWithError(c, common.ErrUnauthorized)
			return
		}

		identity, err := accounts.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// identityFrom returns the identity stored by AuthMiddleware.
func identityFrom(c *gin.Context) (*models.CacheUser, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return nil, false
	}
	identity, ok := v.(*models.CacheUser)
	return identity, ok
}
