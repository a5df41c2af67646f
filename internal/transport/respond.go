package transport

import (
	"errors"
	"net/http"

	"despensa/internal/middleware"
	"despensa/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// currentUserID extracts the authenticated user's ID from the request
// context. Writes the error response itself; callers just return on !ok.
func currentUserID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	userIDStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		logger.Error("User ID not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		logger.Error("Invalid user ID format", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid user ID")
		return uuid.Nil, false
	}

	return userID, true
}

// pathUUID parses a chi URL parameter as a UUID
func pathUUID(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// respondServiceError maps service sentinel errors to HTTP statuses
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, action string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidState):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrValidation):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAccessDenied):
		middleware.RespondWithError(w, http.StatusForbidden, err.Error())
	default:
		logger.Error(action+" failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to "+action)
	}
}

// decodeRequest decodes and validates a JSON body, writing the error response
// on failure
func decodeRequest(w http.ResponseWriter, r *http.Request, logger *zap.Logger, v interface{}) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
