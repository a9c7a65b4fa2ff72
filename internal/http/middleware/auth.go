package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/musicstore-support/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextSessionIDKey  = "sessionID"
	ContextCustomerIDKey = "customerID"
)

// SessionAuth проверяет JWT сессии. Токен выдаётся при открытии сессии
// и связывает запросы с конкретной беседой и покупателем.
func SessionAuth(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "требуется токен сессии"})
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "токен невалиден"})
			return
		}

		c.Set(ContextSessionIDKey, claims.SessionID)
		c.Set(ContextCustomerIDKey, claims.CustomerID)
		c.Next()
	}
}

// bearerToken извлекает токен из заголовка Authorization либо,
// для WebSocket и SSE, из query параметра token.
func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return c.Query("token")
}
