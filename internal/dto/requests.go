package dto

// CreateSessionRequest represents the request to open a chat session
type CreateSessionRequest struct {
	CustomerID *int64 `json:"customer_id"`
}

// ChatRequest represents a user message in the chat
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// RequestVerificationRequest is empty: the phone comes from the account on file.
type RequestVerificationRequest struct{}

// ConfirmCodeRequest represents the request to confirm a verification code
type ConfirmCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// UpdateEmailRequest represents the request to change the account email
type UpdateEmailRequest struct {
	Email string `json:"email" binding:"required"`
}

// UpdateAddressRequest represents the request to change the mailing address
type UpdateAddressRequest struct {
	Address    string  `json:"address" binding:"required"`
	City       string  `json:"city" binding:"required"`
	State      *string `json:"state"`
	PostalCode *string `json:"postal_code"`
	Country    *string `json:"country"`
}
