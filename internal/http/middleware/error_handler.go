package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/musicstore-support/internal/logger"
	"github.com/ignatzorin/musicstore-support/internal/pkg/apperror"
	"github.com/ignatzorin/musicstore-support/internal/repository"
	"github.com/ignatzorin/musicstore-support/internal/service"
)

// ErrorHandler обрабатывает ошибки централизованно.
// Маскирует внутренние ошибки и возвращает понятные сообщения клиенту.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Проверяем, не был ли уже отправлен ответ
		if c.Writer.Written() {
			return
		}

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()

		// Логируем ошибку
		if logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Error("Request error")
		}

		statusCode := http.StatusInternalServerError
		message := "внутренняя ошибка сервера"

		var appErr *apperror.AppError
		switch {
		case errors.As(err.Err, &appErr):
			statusCode = appErr.HTTPStatus
			message = appErr.Message
		case errors.Is(err.Err, repository.ErrCustomerNotFound):
			statusCode = http.StatusNotFound
			message = "покупатель не найден"
		case errors.Is(err.Err, repository.ErrTrackNotFound):
			statusCode = http.StatusNotFound
			message = "трек не найден"
		case errors.Is(err.Err, repository.ErrInvoiceNotFound):
			statusCode = http.StatusNotFound
			message = "заказ не найден"
		case errors.Is(err.Err, repository.ErrPaymentNotFound):
			statusCode = http.StatusNotFound
			message = "платёж не найден"
		case errors.Is(err.Err, service.ErrSessionNotFound):
			statusCode = http.StatusUnauthorized
			message = "сессия не найдена или завершена"
		case errors.Is(err.Err, service.ErrVerificationRequired):
			statusCode = http.StatusForbidden
			message = "требуется подтверждение личности"
		case err.Error() != "":
			// Понятные сообщения отдаём клиенту, внутренние маскируем.
			errStr := err.Error()
			if !containsInternalKeywords(errStr) {
				message = errStr
				if contains(errStr, "неверный") || contains(errStr, "невалид") || contains(errStr, "обязателен") {
					statusCode = http.StatusBadRequest
				}
			}
		}

		c.JSON(statusCode, gin.H{"error": message})
	}
}

// containsInternalKeywords проверяет, содержит ли строка ключевые слова внутренних ошибок.
func containsInternalKeywords(s string) bool {
	keywords := []string{
		"sql:",
		"database",
		"connection",
		"timeout",
		"internal",
		"panic",
		"runtime",
	}

	for _, keyword := range keywords {
		if contains(s, keyword) {
			return true
		}
	}
	return false
}

// contains проверяет, содержит ли строка подстроку (case-insensitive).
func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
