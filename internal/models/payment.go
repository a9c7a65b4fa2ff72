package models

import "time"

// Статусы платёжного интента.
const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusSucceeded  = "succeeded"
	PaymentStatusFailed     = "failed"
	PaymentStatusCancelled  = "cancelled"
)

// PaymentIntent описывает платёж за трек по модели платёжного процессора:
// интент создаётся, затем подтверждается, затем по нему выписывается чек.
type PaymentIntent struct {
	ID          string    `db:"id" json:"id"`
	CustomerID  int64     `db:"customer_id" json:"customer_id"`
	TrackID     int64     `db:"track_id" json:"track_id"`
	Amount      float64   `db:"amount" json:"amount"`
	Currency    string    `db:"currency" json:"currency"`
	Status      string    `db:"status" json:"status"`
	Description string    `db:"description" json:"description"`
	InvoiceID   *int64    `db:"invoice_id" json:"invoice_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Terminal сообщает, находится ли интент в конечном статусе.
func (p *PaymentIntent) Terminal() bool {
	return p.Status == PaymentStatusSucceeded || p.Status == PaymentStatusFailed || p.Status == PaymentStatusCancelled
}
