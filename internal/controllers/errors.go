package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"campus_cruiser/internal/geocoding"
	"campus_cruiser/internal/repository"
	"campus_cruiser/internal/services"
)

// respondError maps a service error onto a status code and JSON body.
func respondError(c *gin.Context, err error) {
	var ve *services.ValidationError
	var nf *geocoding.NotFoundError
	var pe *geocoding.ProviderError

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field})
	case errors.As(err, &nf):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": nf.Error()})
	case errors.As(err, &pe):
		logrus.WithError(pe.Err).WithField("address", pe.Address).Warn("Geocoding provider failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": pe.Error()})
	case errors.Is(err, repository.ErrRouteNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	case errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, services.ErrStopNotFound), errors.Is(err, services.ErrNoAssignment):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrDuplicateStudent):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrIncorrectPassword):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param + " format."})
		return 0, false
	}
	return uint(id), true
}
