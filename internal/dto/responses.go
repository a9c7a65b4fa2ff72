package dto

import (
	"time"

	"github.com/google/uuid"
)

// ErrorResponse is the standard error payload
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse is the standard success payload
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SessionResponse is returned when a chat session is opened
type SessionResponse struct {
	SessionID    uuid.UUID `json:"session_id"`
	CustomerID   int64     `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	Verified     bool      `json:"verified"`
	State        string    `json:"state"`
	Token        string    `json:"token"`
}

// ChatResponse is the assistant's reply to one message
type ChatResponse struct {
	Reply     string    `json:"reply"`
	SessionID uuid.UUID `json:"session_id"`
	Verified  bool      `json:"verified"`
	State     string    `json:"state"`
}

// CustomerResponse is the customer profile as shown to the chat UI.
// The phone number is always masked.
type CustomerResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	MaskedPhone string    `json:"masked_phone"`
	Address     *string   `json:"address,omitempty"`
	City        *string   `json:"city,omitempty"`
	State       *string   `json:"state,omitempty"`
	PostalCode  *string   `json:"postal_code,omitempty"`
	Country     *string   `json:"country,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// VerificationResponse reports the outcome of a verification operation
type VerificationResponse struct {
	Status      string `json:"status"`
	MaskedPhone string `json:"masked_phone,omitempty"`
	DemoCode    string `json:"demo_code,omitempty"`
	Message     string `json:"message"`
}
