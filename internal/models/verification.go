package models

import (
	"time"

	"github.com/google/uuid"
)

// Состояния верификации в рамках одной сессии.
const (
	VerificationStateUnverified = "unverified"
	VerificationStateCodeSent   = "code_sent"
	VerificationStateVerified   = "verified"
)

// VerificationCode описывает одноразовый SMS код.
// Инвариант: на сессию существует не более одного непогашенного
// непросроченного кода — новый код гасит предыдущий в той же транзакции.
type VerificationCode struct {
	ID         int64     `db:"id" json:"id"`
	SessionID  uuid.UUID `db:"session_id" json:"session_id"`
	CustomerID int64     `db:"customer_id" json:"customer_id"`
	CodeHash   string    `db:"code_hash" json:"-"`
	Attempts   int       `db:"attempts" json:"attempts"`
	Consumed   bool      `db:"consumed" json:"consumed"`
	ExpiresAt  time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Expired сообщает, истёк ли срок действия кода.
func (v *VerificationCode) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}
