package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/musicstore-support/internal/models"
)

var ErrSessionNotFound = errors.New("session service: сессия не найдена")

// CustomerGetter — зависимость сессий от хранилища покупателей.
type CustomerGetter interface {
	GetByID(ctx context.Context, id int64) (*models.Customer, error)
}

// CodeRemover удаляет коды верификации при очистке сессии.
type CodeRemover interface {
	DeleteBySession(ctx context.Context, sessionID uuid.UUID) error
}

// SessionService держит активные беседы в памяти процесса.
// Сессия живёт от создания до очистки; верификация не переживает сессию.
type SessionService struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*models.Session
	customers CustomerGetter
	codes     CodeRemover
}

func NewSessionService(customers CustomerGetter, codes CodeRemover) *SessionService {
	return &SessionService{
		sessions:  make(map[uuid.UUID]*models.Session),
		customers: customers,
		codes:     codes,
	}
}

// Create открывает новую сессию для существующего покупателя.
func (s *SessionService) Create(ctx context.Context, customerID int64) (*models.Session, error) {
	if _, err := s.customers.GetByID(ctx, customerID); err != nil {
		return nil, err
	}

	now := time.Now()
	session := &models.Session{
		ID:         uuid.New(),
		CustomerID: customerID,
		Verified:   false,
		State:      models.VerificationStateUnverified,
		Messages:   []models.ChatMessage{},
		CreatedAt:  now,
		LastSeenAt: now,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session, nil
}

// Get возвращает снимок сессии по идентификатору.
func (s *SessionService) Get(id uuid.UUID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	snapshot := *session
	snapshot.Messages = append([]models.ChatMessage(nil), session.Messages...)
	return &snapshot, nil
}

// AppendMessages дописывает сообщения в историю беседы.
func (s *SessionService) AppendMessages(id uuid.UUID, msgs ...models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}

	session.Messages = append(session.Messages, msgs...)
	session.LastSeenAt = time.Now()
	return nil
}

// History возвращает копию истории беседы.
func (s *SessionService) History(id uuid.UUID) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return append([]models.ChatMessage(nil), session.Messages...), nil
}

// MarkCodeSent переводит сессию в ожидание кода.
func (s *SessionService) MarkCodeSent(id uuid.UUID) error {
	return s.setState(id, func(session *models.Session) {
		session.State = models.VerificationStateCodeSent
	})
}

// MarkVerified помечает сессию верифицированной. Статус держится
// до конца сессии, повторный код не нужен.
func (s *SessionService) MarkVerified(id uuid.UUID) error {
	return s.setState(id, func(session *models.Session) {
		session.Verified = true
		session.State = models.VerificationStateVerified
	})
}

// ResetVerification возвращает сессию в неверифицированное состояние.
// Вызывается при просрочке или исчерпании попыток.
func (s *SessionService) ResetVerification(id uuid.UUID) error {
	return s.setState(id, func(session *models.Session) {
		session.Verified = false
		session.State = models.VerificationStateUnverified
	})
}

// IsVerified сообщает, подтверждена ли личность в этой сессии.
func (s *SessionService) IsVerified(id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return false, ErrSessionNotFound
	}
	return session.Verified, nil
}

// Clear сбрасывает историю и верификацию, коды сессии удаляются.
func (s *SessionService) Clear(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if ok {
		session.Messages = []models.ChatMessage{}
		session.Verified = false
		session.State = models.VerificationStateUnverified
		session.LastSeenAt = time.Now()
	}
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	if s.codes != nil {
		return s.codes.DeleteBySession(ctx, id)
	}
	return nil
}

// Destroy удаляет сессию целиком вместе с её кодами.
func (s *SessionService) Destroy(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	if s.codes != nil {
		return s.codes.DeleteBySession(ctx, id)
	}
	return nil
}

func (s *SessionService) setState(id uuid.UUID, mutate func(*models.Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	mutate(session)
	return nil
}
