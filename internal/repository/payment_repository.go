package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/musicstore-support/internal/models"
)

var ErrPaymentNotFound = errors.New("payment intent not found")

type PaymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create записывает новый платёжный интент.
func (r *PaymentRepository) Create(ctx context.Context, intent *models.PaymentIntent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_intents (id, customer_id, track_id, amount, currency, status, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, intent.ID, intent.CustomerID, intent.TrackID, intent.Amount, intent.Currency, intent.Status, intent.Description)
	return err
}

// GetByID возвращает интент покупателя. Чужие интенты недоступны.
func (r *PaymentRepository) GetByID(ctx context.Context, customerID int64, intentID string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := r.db.GetContext(ctx, &intent, `
		SELECT id, customer_id, track_id, amount, currency, status, description,
		       invoice_id, created_at, updated_at
		FROM payment_intents
		WHERE id = $1 AND customer_id = $2
	`, intentID, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

// UpdateStatus переводит интент в новый статус.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, intentID, status string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payment_intents SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, intentID)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrPaymentNotFound)
}

// AttachInvoice привязывает выписанный чек к успешному интенту.
func (r *PaymentRepository) AttachInvoice(ctx context.Context, intentID string, invoiceID int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payment_intents SET invoice_id = $1, updated_at = NOW() WHERE id = $2
	`, invoiceID, intentID)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrPaymentNotFound)
}

// ListByCustomer возвращает интенты покупателя, новые сверху.
func (r *PaymentRepository) ListByCustomer(ctx context.Context, customerID int64, limit int) ([]models.PaymentIntent, error) {
	var intents []models.PaymentIntent
	err := r.db.SelectContext(ctx, &intents, `
		SELECT id, customer_id, track_id, amount, currency, status, description,
		       invoice_id, created_at, updated_at
		FROM payment_intents
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, customerID, limit)
	return intents, err
}
