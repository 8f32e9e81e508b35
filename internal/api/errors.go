package api

import (
	"alcyxob/challenge-admin/internal/service"
	"alcyxob/challenge-admin/internal/storage"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// respondError maps a service error onto a status code. Store errors keep
// their message.
func respondError(c *gin.Context, err error) {
	var validation *service.ValidationError
	var integrity *service.IntegrityError
	switch {
	case errors.As(err, &validation):
		abortWithError(c, http.StatusBadRequest, validation.Message)
	case errors.Is(err, service.ErrUnauthorized):
		abortWithError(c, http.StatusUnauthorized, unauthorizedMessage)
	case errors.Is(err, service.ErrAuthenticationFailed):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	case errors.As(err, &integrity),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrMealOptionExists),
		errors.Is(err, service.ErrEnrollmentConflict):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrCohortNotFound),
		errors.Is(err, service.ErrProgramNotFound),
		errors.Is(err, service.ErrMealOptionNotFound),
		errors.Is(err, service.ErrParticipantNotFound),
		errors.Is(err, service.ErrEnrollmentNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrStorageDisabled):
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, err.Error())
	}
}

// pathObjectID parses a path parameter, answering 400 on failure.
func pathObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format")
		return primitive.NilObjectID, false
	}
	return id, true
}

// optionalObjectID parses an optional hex id, answering 400 when malformed.
func optionalObjectID(c *gin.Context, name, raw string) (*primitive.ObjectID, bool) {
	if raw == "" {
		return nil, true
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format")
		return nil, false
	}
	return &id, true
}

// queryWeek parses the optional week query parameter.
func queryWeek(c *gin.Context) (*int, bool) {
	raw := c.Query("week")
	if raw == "" {
		return nil, true
	}
	w, err := strconv.Atoi(raw)
	if err != nil || w < 1 {
		abortWithError(c, http.StatusBadRequest, "week must be a positive integer")
		return nil, false
	}
	return &w, true
}
