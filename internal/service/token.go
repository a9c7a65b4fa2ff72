package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenManager выпускает и проверяет JWT, привязанные к сессии чата.
// Токен выдаётся при открытии сессии и предъявляется в каждом запросе.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// SessionClaims — клеймы токена сессии.
type SessionClaims struct {
	SessionID  uuid.UUID
	CustomerID int64
}

// NewTokenManager создаёт менеджер токенов.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue выпускает токен для сессии.
func (m *TokenManager) Issue(sessionID uuid.UUID, customerID int64) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": sessionID.String(),
		"cid": customerID,
		"iat": now.Unix(),
		"exp": now.Add(m.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse проверяет токен и извлекает идентификаторы сессии и покупателя.
func (m *TokenManager) Parse(token string) (*SessionClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("token: неожиданный метод подписи %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}
	sessionID, err := uuid.Parse(sub)
	if err != nil {
		return nil, err
	}

	cid, ok := claims["cid"].(float64)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return &SessionClaims{
		SessionID:  sessionID,
		CustomerID: int64(cid),
	}, nil
}
