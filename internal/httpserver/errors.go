package httpserver

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"biomarket/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Message string `json:"message"`
}

// writeError maps domain errors onto status codes. Unclassified errors are
// logged and reported as 500 without detail.
func writeError(c *gin.Context, logger *log.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Printf("%s %s [%s]: %v", c.Request.Method, c.Request.URL.Path, c.GetString(requestIDHeader), err)
		c.JSON(status, errorResponse{Message: "internal error"})
		return
	}
	c.JSON(status, errorResponse{Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Message: "id must be a positive integer"})
		return 0, false
	}
	return id, true
}
