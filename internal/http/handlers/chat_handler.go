package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/musicstore-support/internal/dto"
	"github.com/ignatzorin/musicstore-support/internal/http/handlers/common"
	"github.com/ignatzorin/musicstore-support/internal/service"
	"github.com/ignatzorin/musicstore-support/internal/validation"
	"github.com/ignatzorin/musicstore-support/internal/ws"
)

// Dispatcher — операции диспетчера агентов, нужные хэндлеру.
type Dispatcher interface {
	Respond(ctx context.Context, sessionID uuid.UUID, message string) (string, error)
	RespondStream(ctx context.Context, sessionID uuid.UUID, message string, onDelta func(chunk string) error) (string, error)
}

// ChatHandler принимает сообщения пользователя и отдаёт ответы бота.
type ChatHandler struct {
	dispatcher Dispatcher
	sessions   *service.SessionService
	hub        *ws.Hub
}

func NewChatHandler(dispatcher Dispatcher, sessions *service.SessionService, hub *ws.Hub) *ChatHandler {
	return &ChatHandler{
		dispatcher: dispatcher,
		sessions:   sessions,
		hub:        hub,
	}
}

// Send обрабатывает POST /api/chat.
func (h *ChatHandler) Send(c *gin.Context) {
	sessionID, err := common.CurrentSessionID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.ChatRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, "сообщение обязательно")
		return
	}
	if err := validation.ValidateChatMessage(req.Message); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	reply, err := h.dispatcher.Respond(c.Request.Context(), sessionID, req.Message)
	if err != nil {
		_ = c.Error(err)
		return
	}

	session, err := h.sessions.Get(sessionID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	// Дублируем ответ в сокет сессии для других вкладок.
	h.hub.BroadcastToSession(sessionID, ws.EventChatComplete, gin.H{"reply": reply})

	c.JSON(http.StatusOK, dto.ChatResponse{
		Reply:     reply,
		SessionID: sessionID,
		Verified:  session.Verified,
		State:     session.State,
	})
}

// Stream обрабатывает POST /api/chat/stream: ответ уходит кусками
// через Server-Sent Events и завершается событием done.
func (h *ChatHandler) Stream(c *gin.Context) {
	sessionID, err := common.CurrentSessionID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.ChatRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, "сообщение обязательно")
		return
	}
	if err := validation.ValidateChatMessage(req.Message); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	setSSEHeaders(c)

	reply, err := h.dispatcher.RespondStream(c.Request.Context(), sessionID, req.Message, func(chunk string) error {
		data, merr := json.Marshal(gin.H{"delta": chunk})
		if merr != nil {
			return merr
		}
		if werr := writeSSEEvent(c, "delta", string(data)); werr != nil {
			return werr
		}
		h.hub.BroadcastToSession(sessionID, ws.EventChatDelta, gin.H{"delta": chunk})
		return nil
	})
	if err != nil {
		data, _ := json.Marshal(gin.H{"error": "не удалось получить ответ"})
		_ = writeSSEEvent(c, "error", string(data))
		return
	}

	done := gin.H{"reply": reply}
	if session, serr := h.sessions.Get(sessionID); serr == nil {
		done["verified"] = session.Verified
		done["state"] = session.State
	}
	data, _ := json.Marshal(done)
	_ = writeSSEEvent(c, "done", string(data))

	h.hub.BroadcastToSession(sessionID, ws.EventChatComplete, done)
}

// History обрабатывает GET /api/chat/history.
func (h *ChatHandler) History(c *gin.Context) {
	sessionID, err := common.CurrentSessionID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	messages, err := h.sessions.History(sessionID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
