package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/musicstore-support/internal/logger"
	"github.com/ignatzorin/musicstore-support/internal/models"
	"github.com/ignatzorin/musicstore-support/internal/repository"
)

// Ошибки шлюза верификации. Диспетчер переводит их в понятные
// пользователю ответы, не раскрывая внутренних деталей.
var (
	ErrDeliveryFailed  = errors.New("verification: не удалось доставить SMS")
	ErrCodeExpired     = errors.New("verification: срок действия кода истёк")
	ErrCodeMismatch    = errors.New("verification: неверный код")
	ErrNoActiveCode    = errors.New("verification: активный код отсутствует")
	ErrTooManyAttempts = errors.New("verification: попытки ввода исчерпаны")
	ErrResendThrottled = errors.New("verification: слишком частые запросы кода")
	ErrNoPhoneOnFile   = errors.New("verification: у покупателя не указан телефон")
)

const (
	codeTTL           = 10 * time.Minute
	maxConfirmTries   = 3
	resendWindow      = 10 * time.Minute
	maxSendsPerWindow = 3
)

// SMSSender отправляет одноразовые коды. В демо-режиме доставка
// не выполняется, код возвращается вызывающему для показа в чате.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
	DemoMode() bool
}

// VerificationStore — зависимость шлюза от хранилища кодов.
type VerificationStore interface {
	CreateCode(ctx context.Context, sessionID uuid.UUID, customerID int64, codeHash string, expiresAt time.Time) (*models.VerificationCode, error)
	GetActiveCode(ctx context.Context, sessionID uuid.UUID) (*models.VerificationCode, error)
	IncrementAttempts(ctx context.Context, id int64) (int, error)
	Consume(ctx context.Context, id int64) error
	CountRecentSends(ctx context.Context, sessionID uuid.UUID, since time.Time) (int, error)
}

// SessionStateStore — операции над состоянием верификации сессии.
type SessionStateStore interface {
	Get(id uuid.UUID) (*models.Session, error)
	MarkCodeSent(id uuid.UUID) error
	MarkVerified(id uuid.UUID) error
	ResetVerification(id uuid.UUID) error
}

// RequestResult описывает итог успешной отправки кода.
type RequestResult struct {
	MaskedPhone string    `json:"masked_phone"`
	ExpiresAt   time.Time `json:"expires_at"`
	// DemoCode заполняется только в демо-режиме, когда SMS не уходит.
	DemoCode string `json:"demo_code,omitempty"`
}

// VerificationService — шлюз верификации личности. Все изменяющие
// операции над одной сессией сериализуются её мьютексом: параллельные
// запросы кода и подтверждения не гоняются между собой.
type VerificationService struct {
	store     VerificationStore
	sessions  SessionStateStore
	customers CustomerGetter
	sms       SMSSender

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex

	now func() time.Time
}

func NewVerificationService(store VerificationStore, sessions SessionStateStore, customers CustomerGetter, sms SMSSender) *VerificationService {
	return &VerificationService{
		store:     store,
		sessions:  sessions,
		customers: customers,
		sms:       sms,
		locks:     make(map[uuid.UUID]*sync.Mutex),
		now:       time.Now,
	}
}

// RequestVerification генерирует код, отправляет его по SMS и лишь при
// успешной доставке записывает хэш. Новый код гасит предыдущий, так что
// активен всегда не более одного. При сбое доставки состояние сессии
// не меняется.
func (s *VerificationService) RequestVerification(ctx context.Context, sessionID uuid.UUID) (*RequestResult, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.GetByID(ctx, session.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer.Phone == nil || *customer.Phone == "" {
		return nil, ErrNoPhoneOnFile
	}

	sent, err := s.store.CountRecentSends(ctx, sessionID, s.now().Add(-resendWindow))
	if err != nil {
		return nil, fmt.Errorf("verification: не удалось проверить лимит отправок: %w", err)
	}
	if sent >= maxSendsPerWindow {
		return nil, ErrResendThrottled
	}

	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("verification: не удалось сгенерировать код: %w", err)
	}

	body := fmt.Sprintf("Your music store verification code is: %s. It expires in 10 minutes.", code)
	if err := s.sms.Send(ctx, *customer.Phone, body); err != nil {
		if logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			}).Warn("verification: доставка SMS не удалась")
		}
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("verification: не удалось захешировать код: %w", err)
	}

	stored, err := s.store.CreateCode(ctx, sessionID, customer.ID, string(hash), s.now().Add(codeTTL))
	if err != nil {
		return nil, fmt.Errorf("verification: не удалось сохранить код: %w", err)
	}

	if err := s.sessions.MarkCodeSent(sessionID); err != nil {
		return nil, err
	}

	result := &RequestResult{
		MaskedPhone: customer.MaskedPhone(),
		ExpiresAt:   stored.ExpiresAt,
	}
	if s.sms.DemoMode() {
		result.DemoCode = code
	}
	return result, nil
}

// ConfirmCode сверяет введённый код с активным.
//
// Исходы:
//   - активного кода нет — ErrNoActiveCode, состояние не меняется;
//   - код просрочен — код гасится, сессия возвращается в unverified;
//   - код не совпал — счётчик попыток растёт, после третьей неудачи
//     код гасится; до этого сессия остаётся в code_sent;
//   - код совпал — код гасится, сессия верифицирована до конца жизни.
func (s *VerificationService) ConfirmCode(ctx context.Context, sessionID uuid.UUID, code string) error {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.sessions.Get(sessionID); err != nil {
		return err
	}

	active, err := s.store.GetActiveCode(ctx, sessionID)
	if errors.Is(err, repository.ErrNoActiveCode) {
		return ErrNoActiveCode
	}
	if err != nil {
		return fmt.Errorf("verification: не удалось получить активный код: %w", err)
	}

	if active.Expired(s.now()) {
		if err := s.store.Consume(ctx, active.ID); err != nil {
			return fmt.Errorf("verification: не удалось погасить просроченный код: %w", err)
		}
		if err := s.sessions.ResetVerification(sessionID); err != nil {
			return err
		}
		return ErrCodeExpired
	}

	if bcrypt.CompareHashAndPassword([]byte(active.CodeHash), []byte(code)) != nil {
		attempts, err := s.store.IncrementAttempts(ctx, active.ID)
		if err != nil {
			return fmt.Errorf("verification: не удалось учесть попытку: %w", err)
		}
		if attempts >= maxConfirmTries {
			if err := s.store.Consume(ctx, active.ID); err != nil {
				return fmt.Errorf("verification: не удалось погасить код: %w", err)
			}
			if err := s.sessions.ResetVerification(sessionID); err != nil {
				return err
			}
			return ErrTooManyAttempts
		}
		return ErrCodeMismatch
	}

	if err := s.store.Consume(ctx, active.ID); err != nil {
		return fmt.Errorf("verification: не удалось погасить код: %w", err)
	}
	return s.sessions.MarkVerified(sessionID)
}

// sessionLock возвращает мьютекс сессии, создавая его при первом обращении.
func (s *VerificationService) sessionLock(sessionID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

// generateCode выдаёт случайный шестизначный код.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
