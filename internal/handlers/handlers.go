package handlers

import (
	"errors"
	"net/http"

	"github.com/fixify/fixify-server/internal/helpers"
	"github.com/fixify/fixify-server/internal/middleware"
	"github.com/fixify/fixify-server/internal/models"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// respondError maps the domain error taxonomy to HTTP statuses in one place.
// Anything outside the taxonomy is a server error and the detail stays out of
// the response.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, models.ErrorResponse(err.Error()))
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse("not found"))
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, models.ErrorResponse(err.Error()))
	default:
		_ = c.Error(err)
		c.Abort()
	}
}

// requireActor fetches the authenticated actor or ends the request.
func requireActor(c *gin.Context) (models.Actor, bool) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
		return models.Actor{}, false
	}
	return actor, true
}

// pathID parses an object id path parameter. A malformed path id is a hard
// 400, unlike malformed query filters which are dropped silently.
func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	raw := helpers.StringTrim(c.Param(name))
	if raw == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse(name+" is required"))
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid "+name+" format"))
		return primitive.NilObjectID, false
	}
	return id, true
}
