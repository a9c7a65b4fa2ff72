package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/musicstore-support/internal/models"
)

var ErrInvoiceNotFound = errors.New("invoice not found")

type InvoiceRepository struct {
	db *sqlx.DB
}

func NewInvoiceRepository(db *sqlx.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// ListByCustomer возвращает историю заказов покупателя, новые сверху.
func (r *InvoiceRepository) ListByCustomer(ctx context.Context, customerID int64) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.SelectContext(ctx, &invoices, `
		SELECT i.id, i.customer_id, i.invoice_date, i.billing_address,
		       i.billing_city, i.billing_country, i.total,
		       COUNT(il.id) AS total_items
		FROM invoices i
		LEFT JOIN invoice_lines il ON il.invoice_id = i.id
		WHERE i.customer_id = $1
		GROUP BY i.id
		ORDER BY i.invoice_date DESC
	`, customerID)
	return invoices, err
}

// GetDetails возвращает позиции конкретного заказа покупателя.
// Фильтр по customer_id обязателен: чужие чеки недоступны.
func (r *InvoiceRepository) GetDetails(ctx context.Context, customerID, invoiceID int64) ([]models.InvoiceLineDetail, error) {
	var lines []models.InvoiceLineDetail
	err := r.db.SelectContext(ctx, &lines, `
		SELECT t.name AS track_name, a.title AS album_title, ar.name AS artist_name,
		       il.unit_price, il.quantity,
		       il.unit_price * il.quantity AS line_total
		FROM invoices i
		JOIN invoice_lines il ON il.invoice_id = i.id
		JOIN tracks t ON il.track_id = t.id
		LEFT JOIN albums a ON t.album_id = a.id
		LEFT JOIN artists ar ON a.artist_id = ar.id
		WHERE i.id = $1 AND i.customer_id = $2
		ORDER BY il.id
	`, invoiceID, customerID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrInvoiceNotFound
	}
	return lines, nil
}

// ListPurchasedTracks возвращает купленные покупателем треки.
func (r *InvoiceRepository) ListPurchasedTracks(ctx context.Context, customerID int64) ([]models.PurchasedTrack, error) {
	var tracks []models.PurchasedTrack
	err := r.db.SelectContext(ctx, &tracks, `
		SELECT DISTINCT ON (t.id, i.invoice_date)
		       t.id, t.name, a.title AS album_title, ar.name AS artist_name,
		       g.name AS genre_name, t.composer, t.milliseconds, t.unit_price,
		       il.unit_price AS price_paid, i.invoice_date AS purchase_date
		FROM invoices i
		JOIN invoice_lines il ON il.invoice_id = i.id
		JOIN tracks t ON il.track_id = t.id
		LEFT JOIN albums a ON t.album_id = a.id
		LEFT JOIN artists ar ON a.artist_id = ar.id
		LEFT JOIN genres g ON t.genre_id = g.id
		WHERE i.customer_id = $1
		ORDER BY i.invoice_date DESC, t.id
	`, customerID)
	return tracks, err
}

// GetSpendingSummary возвращает агрегаты трат покупателя.
func (r *InvoiceRepository) GetSpendingSummary(ctx context.Context, customerID int64) (*models.SpendingSummary, error) {
	var summary models.SpendingSummary
	err := r.db.GetContext(ctx, &summary, `
		SELECT COUNT(DISTINCT i.id) AS total_orders,
		       COALESCE(SUM(i.total), 0) AS total_spent,
		       COALESCE(AVG(i.total), 0) AS average_order_value,
		       COUNT(DISTINCT il.track_id) AS unique_tracks,
		       MIN(i.invoice_date) AS first_purchase,
		       MAX(i.invoice_date) AS last_purchase
		FROM invoices i
		LEFT JOIN invoice_lines il ON il.invoice_id = i.id
		WHERE i.customer_id = $1
	`, customerID)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// HasPurchasedTrack проверяет, покупал ли покупатель трек раньше.
func (r *InvoiceRepository) HasPurchasedTrack(ctx context.Context, customerID, trackID int64) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM invoices i
		JOIN invoice_lines il ON il.invoice_id = i.id
		WHERE i.customer_id = $1 AND il.track_id = $2
	`, customerID, trackID)
	return count > 0, err
}

// CreateFromPurchase создаёт чек с одной позицией в транзакции.
// Либо появляются и invoice, и invoice_line, либо ничего.
func (r *InvoiceRepository) CreateFromPurchase(ctx context.Context, customerID, trackID int64, unitPrice float64, billing models.MailingAddress) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var invoiceID int64
	err = tx.GetContext(ctx, &invoiceID, `
		INSERT INTO invoices (customer_id, invoice_date, billing_address, billing_city, billing_country, total)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, customerID, time.Now(), nullable(billing.Address), nullable(billing.City), billing.Country, unitPrice)
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO invoice_lines (invoice_id, track_id, unit_price, quantity)
		VALUES ($1, $2, $3, 1)
	`, invoiceID, trackID, unitPrice)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return invoiceID, nil
}

// ListRecent возвращает последние покупки покупателя.
func (r *InvoiceRepository) ListRecent(ctx context.Context, customerID int64, limit int) ([]models.PurchasedTrack, error) {
	var tracks []models.PurchasedTrack
	err := r.db.SelectContext(ctx, &tracks, `
		SELECT t.id, t.name, a.title AS album_title, ar.name AS artist_name,
		       g.name AS genre_name, t.composer, t.milliseconds, t.unit_price,
		       il.unit_price AS price_paid, i.invoice_date AS purchase_date
		FROM invoices i
		JOIN invoice_lines il ON il.invoice_id = i.id
		JOIN tracks t ON il.track_id = t.id
		LEFT JOIN albums a ON t.album_id = a.id
		LEFT JOIN artists ar ON a.artist_id = ar.id
		LEFT JOIN genres g ON t.genre_id = g.id
		WHERE i.customer_id = $1
		ORDER BY i.invoice_date DESC
		LIMIT $2
	`, customerID, limit)
	return tracks, err
}

// nullable превращает пустую строку в NULL.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
