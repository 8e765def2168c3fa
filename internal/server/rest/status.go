package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ivmirov/accountd/internal/common"
)

// statusFromError maps service errors to HTTP status codes. Anything not
// explicitly listed is an internal failure and must not leak detail.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrWrongCredential):
		return http.StatusNotAcceptable
	case errors.Is(err, common.ErrMissingCredential):
		return http.StatusNotAcceptable
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrUserAlreadyExist):
		return http.StatusConflict
	case errors.Is(err, common.ErrUserDoesNotExist):
		return http.StatusNotFound
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes the uniform error body and stops the chain. Internal
// failures get a generic reason so store errors never reach a client.
func abortWithError(c *gin.Context, err error) {
	status := statusFromError(err)
	reason := err.Error()
	if status == http.StatusInternalServerError {
		reason = common.ErrInternal.Error()
	}
	c.AbortWithStatusJSON(status, gin.H{"error": reason})
}
