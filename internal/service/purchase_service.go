package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/musicstore-support/internal/models"
)

// Ошибки платёжного сервиса.
var (
	ErrAlreadyPurchased = errors.New("purchase service: трек уже куплен")
	ErrIntentTerminal   = errors.New("purchase service: интент уже в конечном статусе")
)

// PaymentStore — зависимость от хранилища платёжных интентов.
type PaymentStore interface {
	Create(ctx context.Context, intent *models.PaymentIntent) error
	GetByID(ctx context.Context, customerID int64, intentID string) (*models.PaymentIntent, error)
	UpdateStatus(ctx context.Context, intentID, status string) error
	AttachInvoice(ctx context.Context, intentID string, invoiceID int64) error
	ListByCustomer(ctx context.Context, customerID int64, limit int) ([]models.PaymentIntent, error)
}

// TrackGetter возвращает трек каталога по идентификатору.
type TrackGetter interface {
	GetTrackByID(ctx context.Context, id int64) (*models.Track, error)
}

// InvoiceWriter выписывает чеки и проверяет прошлые покупки.
type InvoiceWriter interface {
	HasPurchasedTrack(ctx context.Context, customerID, trackID int64) (bool, error)
	CreateFromPurchase(ctx context.Context, customerID, trackID int64, unitPrice float64, billing models.MailingAddress) (int64, error)
}

// CacheInvalidator сбрасывает кэши, устаревающие после покупки.
type CacheInvalidator interface {
	InvalidateCustomerCache(customerID int64)
}

// PurchaseService проводит покупку трека через платёжный интент.
// Жизненный цикл: pending -> processing -> succeeded, из pending
// возможна отмена. Создание и подтверждение интента доступны
// только верифицированной сессии.
type PurchaseService struct {
	payments  PaymentStore
	tracks    TrackGetter
	invoices  InvoiceWriter
	customers CustomerGetter
	sessions  VerifiedChecker
	caches    CacheInvalidator
}

func NewPurchaseService(payments PaymentStore, tracks TrackGetter, invoices InvoiceWriter, customers CustomerGetter, sessions VerifiedChecker, caches CacheInvalidator) *PurchaseService {
	return &PurchaseService{
		payments:  payments,
		tracks:    tracks,
		invoices:  invoices,
		customers: customers,
		sessions:  sessions,
		caches:    caches,
	}
}

// CreateIntent открывает платёжный интент на покупку трека.
func (s *PurchaseService) CreateIntent(ctx context.Context, sessionID uuid.UUID, customerID, trackID int64) (*models.PaymentIntent, error) {
	if err := s.requireVerified(sessionID); err != nil {
		return nil, err
	}

	track, err := s.tracks.GetTrackByID(ctx, trackID)
	if err != nil {
		return nil, err
	}

	purchased, err := s.invoices.HasPurchasedTrack(ctx, customerID, trackID)
	if err != nil {
		return nil, err
	}
	if purchased {
		return nil, ErrAlreadyPurchased
	}

	id, err := generateIntentID()
	if err != nil {
		return nil, fmt.Errorf("purchase service: не удалось сгенерировать id интента: %w", err)
	}

	intent := &models.PaymentIntent{
		ID:          id,
		CustomerID:  customerID,
		TrackID:     trackID,
		Amount:      track.UnitPrice,
		Currency:    "usd",
		Status:      models.PaymentStatusPending,
		Description: fmt.Sprintf("Purchase of %q", track.Name),
	}

	if err := s.payments.Create(ctx, intent); err != nil {
		return nil, err
	}
	return intent, nil
}

// ConfirmIntent проводит платёж и выписывает чек. Интент и чек связаны:
// чек появляется только при успешном статусе.
func (s *PurchaseService) ConfirmIntent(ctx context.Context, sessionID uuid.UUID, customerID int64, intentID string) (*models.PaymentIntent, error) {
	if err := s.requireVerified(sessionID); err != nil {
		return nil, err
	}

	intent, err := s.payments.GetByID(ctx, customerID, intentID)
	if err != nil {
		return nil, err
	}
	if intent.Terminal() {
		return nil, ErrIntentTerminal
	}

	if err := s.payments.UpdateStatus(ctx, intent.ID, models.PaymentStatusProcessing); err != nil {
		return nil, err
	}

	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	billing := models.MailingAddress{Country: customer.Country}
	if customer.Address != nil {
		billing.Address = *customer.Address
	}
	if customer.City != nil {
		billing.City = *customer.City
	}

	invoiceID, err := s.invoices.CreateFromPurchase(ctx, customerID, intent.TrackID, intent.Amount, billing)
	if err != nil {
		// Чек не выписался, платёж считается неуспешным.
		_ = s.payments.UpdateStatus(ctx, intent.ID, models.PaymentStatusFailed)
		return nil, fmt.Errorf("purchase service: не удалось выписать чек: %w", err)
	}

	if err := s.payments.UpdateStatus(ctx, intent.ID, models.PaymentStatusSucceeded); err != nil {
		return nil, err
	}
	if err := s.payments.AttachInvoice(ctx, intent.ID, invoiceID); err != nil {
		return nil, err
	}

	if s.caches != nil {
		s.caches.InvalidateCustomerCache(customerID)
	}

	return s.payments.GetByID(ctx, customerID, intentID)
}

// CancelIntent отменяет неоконченный интент.
func (s *PurchaseService) CancelIntent(ctx context.Context, customerID int64, intentID string) (*models.PaymentIntent, error) {
	intent, err := s.payments.GetByID(ctx, customerID, intentID)
	if err != nil {
		return nil, err
	}
	if intent.Terminal() {
		return nil, ErrIntentTerminal
	}
	if err := s.payments.UpdateStatus(ctx, intent.ID, models.PaymentStatusCancelled); err != nil {
		return nil, err
	}
	return s.payments.GetByID(ctx, customerID, intentID)
}

// GetIntent возвращает интент покупателя.
func (s *PurchaseService) GetIntent(ctx context.Context, customerID int64, intentID string) (*models.PaymentIntent, error) {
	return s.payments.GetByID(ctx, customerID, intentID)
}

// ListIntents возвращает последние интенты покупателя.
func (s *PurchaseService) ListIntents(ctx context.Context, customerID int64, limit int) ([]models.PaymentIntent, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.payments.ListByCustomer(ctx, customerID, limit)
}

func (s *PurchaseService) requireVerified(sessionID uuid.UUID) error {
	verified, err := s.sessions.IsVerified(sessionID)
	if err != nil {
		return err
	}
	if !verified {
		return ErrVerificationRequired
	}
	return nil
}

// generateIntentID выдаёт идентификатор в формате pi_<hex>.
func generateIntentID() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "pi_" + hex.EncodeToString(b), nil
}
