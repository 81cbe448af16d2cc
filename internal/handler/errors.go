package handler

import (
	"errors"
	"log"
	"net/http"

	"rendix/internal/apperr"
	"rendix/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondError translates the service error taxonomy to HTTP. Anything
// outside the taxonomy is a dependency failure: logged in full, surfaced as a
// generic message so internals never leak to clients.
func respondError(c *gin.Context, err error) {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, response.FieldError(http.StatusBadRequest, ve.Field, ve.Reason))
	case apperr.IsNotFound(err):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case apperr.IsConflict(err):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	case apperr.IsAuthorization(err):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, err.Error()))
	default:
		log.Println("Unexpected error:", err)
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "unknown error"))
	}
}
