package response

import (
	"errors"
	"net/http"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/apperror"
	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Context keys set by the auth middleware.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	s, ok := userIDStr.(string)
	if !ok {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return userID, nil
}

// GetRole returns the role name resolved by the auth middleware, or "".
func GetRole(c *gin.Context) string {
	return c.GetString(ContextRole)
}

// GetCaller combines the user id and role resolved by the auth middleware.
func GetCaller(c *gin.Context) (dto.Caller, error) {
	userID, err := GetUserID(c)
	if err != nil {
		return dto.Caller{}, err
	}
	return dto.Caller{ID: userID, Role: GetRole(c)}, nil
}

// ParamUUID parses a path parameter as a uuid.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperror.New(http.StatusBadRequest, "invalid "+name, nil)
	}
	return id, nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	if code == http.StatusInternalServerError || code == http.StatusServiceUnavailable {
		zap.L().Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", code),
			zap.Error(err),
		)
	}

	body := gin.H{"error": err.Error()}

	var dup *apperror.DuplicateApplicationError
	if errors.As(err, &dup) {
		body["existing_application_id"] = dup.ExistingID
	}

	c.JSON(code, body)
}
