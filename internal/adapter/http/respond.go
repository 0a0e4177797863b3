package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/aq2208/growcery-api/internal/entity"
	"github.com/aq2208/growcery-api/internal/logging"
)

// statusOf maps the domain error kinds to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrProductMissing):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		logging.From(c).Error("request failed", "err", err)
		c.JSON(code, gin.H{"success": false, "message": "Internal server error", "error": err.Error()})
		return
	}
	c.JSON(code, gin.H{"success": false, "message": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msg})
}
