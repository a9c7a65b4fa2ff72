package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/musicstore-support/internal/models"
)

var ErrNoActiveCode = errors.New("no active verification code")

type VerificationRepository struct {
	db *sqlx.DB
}

func NewVerificationRepository(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// CreateCode записывает новый код сессии, предварительно гася все
// прежние коды этой сессии. Обе операции в одной транзакции: активным
// может быть только один код.
func (r *VerificationRepository) CreateCode(ctx context.Context, sessionID uuid.UUID, customerID int64, codeHash string, expiresAt time.Time) (*models.VerificationCode, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE verification_codes SET consumed = TRUE
		WHERE session_id = $1 AND NOT consumed
	`, sessionID)
	if err != nil {
		return nil, err
	}

	var code models.VerificationCode
	err = tx.GetContext(ctx, &code, `
		INSERT INTO verification_codes (session_id, customer_id, code_hash, attempts, consumed, expires_at)
		VALUES ($1, $2, $3, 0, FALSE, $4)
		RETURNING id, session_id, customer_id, code_hash, attempts, consumed, expires_at, created_at
	`, sessionID, customerID, codeHash, expiresAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &code, nil
}

// GetActiveCode возвращает непогашенный код сессии.
func (r *VerificationRepository) GetActiveCode(ctx context.Context, sessionID uuid.UUID) (*models.VerificationCode, error) {
	var code models.VerificationCode
	err := r.db.GetContext(ctx, &code, `
		SELECT id, session_id, customer_id, code_hash, attempts, consumed, expires_at, created_at
		FROM verification_codes
		WHERE session_id = $1 AND NOT consumed
		ORDER BY created_at DESC
		LIMIT 1
	`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveCode
	}
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// IncrementAttempts увеличивает счётчик неудачных попыток и возвращает
// его новое значение.
func (r *VerificationRepository) IncrementAttempts(ctx context.Context, id int64) (int, error) {
	var attempts int
	err := r.db.GetContext(ctx, &attempts, `
		UPDATE verification_codes SET attempts = attempts + 1
		WHERE id = $1
		RETURNING attempts
	`, id)
	return attempts, err
}

// Consume гасит код: повторное использование невозможно.
func (r *VerificationRepository) Consume(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE verification_codes SET consumed = TRUE WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrNoActiveCode)
}

// CountRecentSends считает коды сессии, выписанные за окно throttle.
func (r *VerificationRepository) CountRecentSends(ctx context.Context, sessionID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM verification_codes
		WHERE session_id = $1 AND created_at >= $2
	`, sessionID, since)
	return count, err
}

// DeleteBySession удаляет все коды сессии. Вызывается при очистке беседы.
func (r *VerificationRepository) DeleteBySession(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM verification_codes WHERE session_id = $1
	`, sessionID)
	return err
}
