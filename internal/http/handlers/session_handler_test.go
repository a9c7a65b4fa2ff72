package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/musicstore-support/internal/http/middleware"
	"github.com/ignatzorin/musicstore-support/internal/models"
	"github.com/ignatzorin/musicstore-support/internal/repository"
	"github.com/ignatzorin/musicstore-support/internal/service"
)

// stubCustomers знает одного покупателя — демо-аккаунт.
type stubCustomers struct{}

func (stubCustomers) GetByID(_ context.Context, id int64) (*models.Customer, error) {
	if id != service.DemoCustomerID {
		return nil, repository.ErrCustomerNotFound
	}
	return &models.Customer{
		ID:        id,
		FirstName: "Luís",
		LastName:  "Gonçalves",
		Email:     "luis@example.com",
	}, nil
}

type noopCodes struct{}

func (noopCodes) DeleteBySession(_ context.Context, _ uuid.UUID) error { return nil }

// withSession подставляет идентификатор сессии так же, как SessionAuth.
func withSession(sessionID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextSessionIDKey, sessionID)
		c.Set(middleware.ContextCustomerIDKey, service.DemoCustomerID)
		c.Next()
	}
}

func newSessionTestRouter() (*gin.Engine, *service.SessionService) {
	gin.SetMode(gin.TestMode)
	sessions := service.NewSessionService(stubCustomers{}, noopCodes{})
	tokens := service.NewTokenManager("test-secret", time.Hour)
	handler := NewSessionHandler(sessions, stubCustomers{}, tokens)

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.POST("/api/session", handler.Create)
	return r, sessions
}

func TestSessionHandler_Create_DefaultsToDemoCustomer(t *testing.T) {
	r, _ := newSessionTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/session", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"customer_id":58`)
	assert.Contains(t, body, `"customer_name":"Luís Gonçalves"`)
	assert.Contains(t, body, `"state":"`+models.VerificationStateUnverified+`"`)
	assert.Contains(t, body, `"token":"`)
}

func TestSessionHandler_Create_UnknownCustomer(t *testing.T) {
	r, _ := newSessionTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/session",
		bytes.NewBufferString(`{"customer_id": 999}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandler_Clear_ResetsSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := service.NewSessionService(stubCustomers{}, noopCodes{})
	tokens := service.NewTokenManager("test-secret", time.Hour)
	handler := NewSessionHandler(sessions, stubCustomers{}, tokens)

	session, err := sessions.Create(context.Background(), service.DemoCustomerID)
	require.NoError(t, err)
	require.NoError(t, sessions.AppendMessages(session.ID,
		models.ChatMessage{Role: models.ChatRoleUser, Content: "hi"}))

	r := gin.New()
	r.Use(middleware.ErrorHandler(), withSession(session.ID))
	r.POST("/api/clear", handler.Clear)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/clear", nil))

	require.Equal(t, http.StatusOK, w.Code)
	history, err := sessions.History(session.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSessionHandler_Clear_WithoutSessionContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := service.NewSessionService(stubCustomers{}, noopCodes{})
	tokens := service.NewTokenManager("test-secret", time.Hour)
	handler := NewSessionHandler(sessions, stubCustomers{}, tokens)

	r := gin.New()
	r.POST("/api/clear", handler.Clear)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/clear", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
