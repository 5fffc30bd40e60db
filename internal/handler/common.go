package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "live_rooms/pkg/errors"
)

func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.HTTPStatusFromError(err), apperrors.APIError{
		Message: err.Error(),
		Code:    apperrors.CodeFromError(err),
	})
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
