package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/musicstore-support/internal/models"
	"github.com/ignatzorin/musicstore-support/internal/validation"
)

// ErrVerificationRequired возвращается при попытке изменить аккаунт
// без подтверждённой личности в текущей сессии.
var ErrVerificationRequired = errors.New("account service: требуется подтверждение личности")

// AccountStore — зависимость от хранилища покупателей.
type AccountStore interface {
	GetByID(ctx context.Context, id int64) (*models.Customer, error)
	UpdateEmail(ctx context.Context, id int64, email string) error
	UpdateMailingAddress(ctx context.Context, id int64, addr models.MailingAddress) error
}

// VerifiedChecker сообщает статус верификации сессии.
type VerifiedChecker interface {
	IsVerified(id uuid.UUID) (bool, error)
}

// AccountService выполняет операции над профилем покупателя.
// Чтение доступно всегда, запись — только верифицированной сессии:
// проверка выполняется здесь, а не в слое диалога, чтобы её нельзя
// было обойти ни одним путём вызова.
type AccountService struct {
	store    AccountStore
	sessions VerifiedChecker
}

func NewAccountService(store AccountStore, sessions VerifiedChecker) *AccountService {
	return &AccountService{store: store, sessions: sessions}
}

// GetProfile возвращает профиль покупателя.
func (s *AccountService) GetProfile(ctx context.Context, customerID int64) (*models.Customer, error) {
	return s.store.GetByID(ctx, customerID)
}

// UpdateEmail меняет email. Требует верифицированной сессии.
func (s *AccountService) UpdateEmail(ctx context.Context, sessionID uuid.UUID, customerID int64, email string) error {
	if err := s.requireVerified(sessionID); err != nil {
		return err
	}
	if err := validation.ValidateEmail(email); err != nil {
		return fmt.Errorf("account service: %w", err)
	}
	return s.store.UpdateEmail(ctx, customerID, email)
}

// UpdateMailingAddress меняет почтовый адрес. Требует верифицированной сессии.
func (s *AccountService) UpdateMailingAddress(ctx context.Context, sessionID uuid.UUID, customerID int64, addr models.MailingAddress) error {
	if err := s.requireVerified(sessionID); err != nil {
		return err
	}
	if addr.Address == "" || addr.City == "" {
		return fmt.Errorf("account service: адрес и город обязательны")
	}
	return s.store.UpdateMailingAddress(ctx, customerID, addr)
}

func (s *AccountService) requireVerified(sessionID uuid.UUID) error {
	verified, err := s.sessions.IsVerified(sessionID)
	if err != nil {
		return err
	}
	if !verified {
		return ErrVerificationRequired
	}
	return nil
}
