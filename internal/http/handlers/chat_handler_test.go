package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/musicstore-support/internal/http/middleware"
	"github.com/ignatzorin/musicstore-support/internal/service"
	"github.com/ignatzorin/musicstore-support/internal/ws"
)

// fakeDispatcher отвечает заготовленной репликой.
type fakeDispatcher struct {
	reply   string
	chunks  []string
	lastMsg string
}

func (f *fakeDispatcher) Respond(_ context.Context, _ uuid.UUID, message string) (string, error) {
	f.lastMsg = message
	return f.reply, nil
}

func (f *fakeDispatcher) RespondStream(_ context.Context, _ uuid.UUID, message string, onDelta func(chunk string) error) (string, error) {
	f.lastMsg = message
	for _, chunk := range f.chunks {
		if err := onDelta(chunk); err != nil {
			return "", err
		}
	}
	return f.reply, nil
}

func newChatTestRouter(t *testing.T, dispatcher *fakeDispatcher) (*gin.Engine, uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sessions := service.NewSessionService(stubCustomers{}, noopCodes{})
	session, err := sessions.Create(context.Background(), service.DemoCustomerID)
	require.NoError(t, err)

	handler := NewChatHandler(dispatcher, sessions, ws.NewHub())

	r := gin.New()
	r.Use(middleware.ErrorHandler(), withSession(session.ID))
	r.POST("/api/chat", handler.Send)
	r.POST("/api/chat/stream", handler.Stream)
	r.GET("/api/chat/history", handler.History)
	return r, session.ID
}

func chatRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestChatHandler_Send_ReturnsReply(t *testing.T) {
	dispatcher := &fakeDispatcher{reply: "We have 12 Queen tracks."}
	r, sessionID := newChatTestRouter(t, dispatcher)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, chatRequest(`{"message":"Do you have Queen?"}`))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"reply":"We have 12 Queen tracks."`)
	assert.Contains(t, body, `"session_id":"`+sessionID.String()+`"`)
	assert.Contains(t, body, `"verified":false`)
	assert.Equal(t, "Do you have Queen?", dispatcher.lastMsg)
}

func TestChatHandler_Send_EmptyMessageRejected(t *testing.T) {
	r, _ := newChatTestRouter(t, &fakeDispatcher{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, chatRequest(`{"message":"   "}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHandler_Send_MissingBodyRejected(t *testing.T) {
	r, _ := newChatTestRouter(t, &fakeDispatcher{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, chatRequest(`{}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHandler_Send_WithoutSessionContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := service.NewSessionService(stubCustomers{}, noopCodes{})
	handler := NewChatHandler(&fakeDispatcher{}, sessions, ws.NewHub())

	r := gin.New()
	r.POST("/api/chat", handler.Send)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, chatRequest(`{"message":"hello"}`))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChatHandler_Stream_EmitsDeltaAndDoneEvents(t *testing.T) {
	dispatcher := &fakeDispatcher{reply: "Hello!", chunks: []string{"Hel", "lo!"}}
	r, _ := newChatTestRouter(t, dispatcher)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat/stream",
		bytes.NewBufferString(`{"message":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "event: delta")
	assert.Contains(t, body, `{"delta":"Hel"}`)
	assert.Contains(t, body, `{"delta":"lo!"}`)
	assert.Contains(t, body, "event: done")
	assert.Contains(t, body, `"reply":"Hello!"`)
}

func TestChatHandler_History_ReturnsMessages(t *testing.T) {
	dispatcher := &fakeDispatcher{reply: "Sure."}
	r, _ := newChatTestRouter(t, dispatcher)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, chatRequest(`{"message":"hi"}`))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/chat/history", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"messages"`)
}
