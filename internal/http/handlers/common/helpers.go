package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/musicstore-support/internal/dto"
	"github.com/ignatzorin/musicstore-support/internal/http/middleware"
)

var (
	// ErrSessionNotFound is returned when the session is not found in context
	ErrSessionNotFound = errors.New("сессия не найдена в контексте")
)

// CurrentSessionID extracts the chat session ID from Gin context
func CurrentSessionID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextSessionIDKey)
	if !exists {
		return uuid.Nil, ErrSessionNotFound
	}

	sessionID, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrSessionNotFound
	}

	return sessionID, nil
}

// CurrentCustomerID extracts the customer ID from Gin context
func CurrentCustomerID(c *gin.Context) (int64, error) {
	raw, exists := c.Get(middleware.ContextCustomerIDKey)
	if !exists {
		return 0, ErrSessionNotFound
	}

	customerID, ok := raw.(int64)
	if !ok {
		return 0, ErrSessionNotFound
	}

	return customerID, nil
}

// BindAndValidate binds JSON request and returns properly formatted error
func BindAndValidate(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return errors.New("ошибка валидации запроса")
	}
	return nil
}

// RespondError sends a standardized error response
func RespondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.ErrorResponse{Error: message})
}

// RespondBadRequest sends a 400 Bad Request response
func RespondBadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "некорректный запрос"
	}
	RespondError(c, http.StatusBadRequest, message)
}

// RespondUnauthorized sends a 401 Unauthorized response
func RespondUnauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "требуется авторизация"
	}
	RespondError(c, http.StatusUnauthorized, message)
}

// RespondNotFound sends a 404 Not Found response
func RespondNotFound(c *gin.Context, message string) {
	if message == "" {
		message = "ресурс не найден"
	}
	RespondError(c, http.StatusNotFound, message)
}
