package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/musicstore-support/internal/dto"
	"github.com/ignatzorin/musicstore-support/internal/http/handlers/common"
	"github.com/ignatzorin/musicstore-support/internal/service"
)

// SessionHandler открывает и очищает сессии чата.
type SessionHandler struct {
	sessions  *service.SessionService
	customers service.CustomerGetter
	tokens    *service.TokenManager
}

func NewSessionHandler(sessions *service.SessionService, customers service.CustomerGetter, tokens *service.TokenManager) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		customers: customers,
		tokens:    tokens,
	}
}

// Create обрабатывает POST /api/session.
// Без customer_id сессия открывается для демо-покупателя.
func (h *SessionHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	// Тело запроса необязательно.
	_ = c.ShouldBindJSON(&req)

	customerID := service.DemoCustomerID
	if req.CustomerID != nil {
		customerID = *req.CustomerID
	}

	session, err := h.sessions.Create(c.Request.Context(), customerID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	customer, err := h.customers.GetByID(c.Request.Context(), customerID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	token, err := h.tokens.Issue(session.ID, customerID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.SessionResponse{
		SessionID:    session.ID,
		CustomerID:   customerID,
		CustomerName: customer.FullName(),
		Verified:     session.Verified,
		State:        session.State,
		Token:        token,
	})
}

// Clear обрабатывает POST /api/clear: история и верификация сбрасываются,
// коды сессии удаляются.
func (h *SessionHandler) Clear(c *gin.Context) {
	sessionID, err := common.CurrentSessionID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	if err := h.sessions.Clear(c.Request.Context(), sessionID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "сессия очищена"})
}
