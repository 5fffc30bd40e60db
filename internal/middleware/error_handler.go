package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "live_rooms/pkg/errors"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Подхватываем ошибки, положенные обработчиками через c.Error
		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			c.JSON(apperrors.HTTPStatusFromError(err), apperrors.APIError{
				Message: err.Error(),
				Code:    apperrors.CodeFromError(err),
			})
		}
	}
}
