package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/musicstore-support/internal/service"
)

func newAuthTestRouter(tokens *service.TokenManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", SessionAuth(tokens), func(c *gin.Context) {
		sessionID := c.MustGet(ContextSessionIDKey).(uuid.UUID)
		customerID := c.MustGet(ContextCustomerIDKey).(int64)
		c.JSON(http.StatusOK, gin.H{
			"session_id":  sessionID.String(),
			"customer_id": customerID,
		})
	})
	return r
}

func TestSessionAuth_MissingToken(t *testing.T) {
	r := newAuthTestRouter(service.NewTokenManager("test-secret", time.Hour))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionAuth_InvalidToken(t *testing.T) {
	r := newAuthTestRouter(service.NewTokenManager("test-secret", time.Hour))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionAuth_ValidBearerToken(t *testing.T) {
	tokens := service.NewTokenManager("test-secret", time.Hour)
	sessionID := uuid.New()
	token, err := tokens.Issue(sessionID, 58)
	require.NoError(t, err)

	r := newAuthTestRouter(tokens)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), sessionID.String())
	assert.Contains(t, w.Body.String(), `"customer_id":58`)
}

func TestSessionAuth_TokenFromQuery(t *testing.T) {
	// WebSocket и SSE передают токен query параметром.
	tokens := service.NewTokenManager("test-secret", time.Hour)
	token, err := tokens.Issue(uuid.New(), 58)
	require.NoError(t, err)

	r := newAuthTestRouter(tokens)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected?token="+token, nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionAuth_ExpiredToken(t *testing.T) {
	tokens := service.NewTokenManager("test-secret", -time.Minute)
	token, err := tokens.Issue(uuid.New(), 58)
	require.NoError(t, err)

	r := newAuthTestRouter(service.NewTokenManager("test-secret", time.Hour))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
