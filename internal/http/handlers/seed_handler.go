package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/musicstore-support/internal/service"
)

// SeedHandler наполняет базу демо-каталогом и демо-покупателем.
type SeedHandler struct {
	seedService *service.SeedService
}

// NewSeedHandler создаёт новый seed handler.
func NewSeedHandler(seedService *service.SeedService) *SeedHandler {
	return &SeedHandler{seedService: seedService}
}

// Seed обрабатывает POST /api/seed. Повторный вызов на непустой базе
// ничего не меняет.
func (h *SeedHandler) Seed(c *gin.Context) {
	if err := h.seedService.SeedData(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "не удалось сгенерировать данные",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          "демо-данные загружены",
		"demo_customer_id": service.DemoCustomerID,
	})
}
