package models

import (
	"strings"
	"time"
)

// Customer описывает покупателя музыкального магазина.
// Поля Email и Address изменяются только через верифицированную операцию.
type Customer struct {
	ID         int64     `db:"id" json:"id"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	Company    *string   `db:"company" json:"company,omitempty"`
	Email      string    `db:"email" json:"email"`
	Phone      *string   `db:"phone" json:"phone,omitempty"`
	Address    *string   `db:"address" json:"address,omitempty"`
	City       *string   `db:"city" json:"city,omitempty"`
	State      *string   `db:"state" json:"state,omitempty"`
	PostalCode *string   `db:"postal_code" json:"postal_code,omitempty"`
	Country    *string   `db:"country" json:"country,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// FullName возвращает имя и фамилию одной строкой.
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// MaskedPhone возвращает телефон с закрытыми цифрами, кроме последних четырёх.
// Используется в ответах бота, чтобы не светить полный номер.
func (c *Customer) MaskedPhone() string {
	if c.Phone == nil || len(*c.Phone) <= 4 {
		return "****"
	}
	p := *c.Phone
	return strings.Repeat("*", len(p)-4) + p[len(p)-4:]
}

// MailingAddress группирует поля почтового адреса для обновления.
type MailingAddress struct {
	Address    string  `json:"address"`
	City       string  `json:"city"`
	State      *string `json:"state,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
	Country    *string `json:"country,omitempty"`
}
