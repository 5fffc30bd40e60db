package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"live_rooms/internal/config"
	"live_rooms/pkg/jwt"
	"live_rooms/pkg/logger"
)

// AuthMiddleware проверяет bearer-токен сервиса идентификации и кладёт
// внутренний ID пользователя в контекст. Сам движок авторизации
// доверяет этой проверке и учётные данные не трогает.
type AuthMiddleware struct {
	cfg config.JWTConfig
	log logger.Logger
}

func NewAuthMiddleware(cfg config.JWTConfig, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg, log: log}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required", "error_code": "Unauthorized"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format", "error_code": "Unauthorized"})
			c.Abort()
			return
		}

		claims, err := jwt.ValidateToken(parts[1], m.cfg.AccessSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_code": "Unauthorized"})
			c.Abort()
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token subject", "error_code": "Unauthorized"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}
