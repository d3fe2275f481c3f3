package handlers

import (
	"net/http"

	"example.com/tbmnc/services/tracker/internal/ai"
	"example.com/tbmnc/services/tracker/internal/repository"
	"example.com/tbmnc/services/tracker/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

var errMissingEmail = errors.New("email query parameter is required")

// respondOK writes a success envelope
func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// respondError maps service errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, repository.ErrDuplicateKey):
		status = http.StatusConflict
	case errors.Is(err, ai.ErrDisabled):
		status = http.StatusNotImplemented
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

// respondBadRequest writes a validation failure
func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
}
