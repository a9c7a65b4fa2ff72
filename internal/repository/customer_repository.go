package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/musicstore-support/internal/models"
)

var ErrCustomerNotFound = errors.New("customer not found")

type CustomerRepository struct {
	db *sqlx.DB
}

func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// GetByID возвращает покупателя по идентификатору.
func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.GetContext(ctx, &customer, `
		SELECT id, first_name, last_name, company, email, phone,
		       address, city, state, postal_code, country, created_at, updated_at
		FROM customers WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// UpdateEmail меняет email покупателя. Проверка верификации выполняется
// сервисным слоем непосредственно перед вызовом.
func (r *CustomerRepository) UpdateEmail(ctx context.Context, id int64, email string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE customers SET email = $1, updated_at = NOW() WHERE id = $2
	`, email, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrCustomerNotFound)
}

// UpdateMailingAddress меняет почтовый адрес. Необязательные поля
// сохраняют прежние значения через COALESCE.
func (r *CustomerRepository) UpdateMailingAddress(ctx context.Context, id int64, addr models.MailingAddress) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE customers SET
			address = $1,
			city = $2,
			state = COALESCE($3, state),
			postal_code = COALESCE($4, postal_code),
			country = COALESCE($5, country),
			updated_at = NOW()
		WHERE id = $6
	`, addr.Address, addr.City, addr.State, addr.PostalCode, addr.Country, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrCustomerNotFound)
}

// requireRowAffected возвращает notFound, если UPDATE не затронул ни одной строки.
func requireRowAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
