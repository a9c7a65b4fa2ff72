package agent

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/ignatzorin/musicstore-support/internal/ai"
	"github.com/ignatzorin/musicstore-support/internal/models"
	"github.com/ignatzorin/musicstore-support/internal/service"
)

// accountToolNames — инструменты агента аккаунта.
var accountToolNames = []string{
	"get_customer_profile",
	"purchase_history",
	"invoice_details",
	"purchased_tracks",
	"spending_summary",
	"request_verification_code",
	"confirm_verification_code",
	"update_email",
	"update_mailing_address",
}

// AccountProvider — операции профиля, доступные инструментам.
type AccountProvider interface {
	GetProfile(ctx context.Context, customerID int64) (*models.Customer, error)
	UpdateEmail(ctx context.Context, sessionID uuid.UUID, customerID int64, email string) error
	UpdateMailingAddress(ctx context.Context, sessionID uuid.UUID, customerID int64, addr models.MailingAddress) error
}

// VerificationProvider — операции шлюза верификации, доступные инструментам.
type VerificationProvider interface {
	RequestVerification(ctx context.Context, sessionID uuid.UUID) (*service.RequestResult, error)
	ConfirmCode(ctx context.Context, sessionID uuid.UUID, code string) error
}

// RegisterAccountTools регистрирует инструменты профиля и верификации.
// Изменяющие инструменты сами отказывают без верификации: проверка
// сидит в сервисном слое, модель не может её обойти.
func RegisterAccountTools(r *Registry, accounts AccountProvider, verification VerificationProvider, catalog CatalogProvider) {
	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "get_customer_profile",
			Description: "Get the current customer's profile: name, email, masked phone, mailing address.",
			Parameters:  noParams,
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			customer, err := accounts.GetProfile(ctx, sess.CustomerID)
			if err != nil {
				return "", err
			}
			// Полный номер наружу не отдаётся.
			return toolResult(map[string]any{
				"name":         customer.FullName(),
				"email":        customer.Email,
				"phone":        customer.MaskedPhone(),
				"address":      customer.Address,
				"city":         customer.City,
				"state":        customer.State,
				"postal_code":  customer.PostalCode,
				"country":      customer.Country,
			})
		},
	})

	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "purchase_history",
			Description: "List the current customer's past orders.",
			Parameters:  noParams,
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			invoices, err := catalog.PurchaseHistory(ctx, sess.CustomerID)
			if err != nil {
				return "", err
			}
			return toolResult(map[string]any{"orders": invoices, "count": len(invoices)})
		},
	})

	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "invoice_details",
			Description: "Show the line items of one of the customer's orders.",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"invoice_id": {"type": "integer", "description": "Order id from purchase_history"}
				},
				"required": ["invoice_id"]
			}`),
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			var in struct {
				InvoiceID int64 `json:"invoice_id"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}
			lines, err := catalog.InvoiceDetails(ctx, sess.CustomerID, in.InvoiceID)
			if err != nil {
				return "", err
			}
			return toolResult(map[string]any{"lines": lines})
		},
	})

	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "purchased_tracks",
			Description: "List all tracks the current customer has bought.",
			Parameters:  noParams,
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			tracks, err := catalog.PurchasedTracks(ctx, sess.CustomerID)
			if err != nil {
				return "", err
			}
			return toolResult(map[string]any{"tracks": tracks, "count": len(tracks)})
		},
	})

	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "spending_summary",
			Description: "Aggregate spending stats for the current customer: totals, averages, first and last purchase.",
			Parameters:  noParams,
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			summary, err := catalog.SpendingSummary(ctx, sess.CustomerID)
			if err != nil {
				return "", err
			}
			return toolResult(summary)
		},
	})

	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "request_verification_code",
			Description: "Send a one-time verification code to the customer's phone on file. Required before any account change.",
			Parameters:  noParams,
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			result, err := verification.RequestVerification(ctx, sess.SessionID)
			switch {
			case errors.Is(err, service.ErrDeliveryFailed):
				return toolResult(map[string]string{
					"status":  "delivery_failed",
					"message": "The SMS could not be delivered. Ask the customer to try again in a moment.",
				})
			case errors.Is(err, service.ErrResendThrottled):
				return toolResult(map[string]string{
					"status":  "throttled",
					"message": "Too many codes were requested recently. Ask the customer to wait before requesting another.",
				})
			case errors.Is(err, service.ErrNoPhoneOnFile):
				return toolResult(map[string]string{
					"status":  "no_phone",
					"message": "There is no phone number on file for this account.",
				})
			case err != nil:
				return "", err
			}

			out := map[string]string{
				"status":       "sent",
				"masked_phone": result.MaskedPhone,
				"message":      "A 6-digit code was sent to " + result.MaskedPhone + ". It expires in 10 minutes.",
			}
			if result.DemoCode != "" {
				out["demo_code"] = result.DemoCode
				out["message"] = "Demo mode: no SMS was sent. The code is " + result.DemoCode + "."
			}
			return toolResult(out)
		},
	})

	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "confirm_verification_code",
			Description: "Check the 6-digit code the customer typed against the code that was sent.",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"code": {"type": "string", "description": "The 6-digit code the customer provided"}
				},
				"required": ["code"]
			}`),
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			var in struct {
				Code string `json:"code"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}

			err := verification.ConfirmCode(ctx, sess.SessionID, in.Code)
			switch {
			case errors.Is(err, service.ErrNoActiveCode):
				return toolResult(map[string]string{
					"status":  "no_active_code",
					"message": "No code has been requested yet. Offer to send one.",
				})
			case errors.Is(err, service.ErrCodeExpired):
				return toolResult(map[string]string{
					"status":  "expired",
					"message": "The code has expired. A new one must be requested.",
				})
			case errors.Is(err, service.ErrCodeMismatch):
				return toolResult(map[string]string{
					"status":  "mismatch",
					"message": "That code is not correct. The customer may try again.",
				})
			case errors.Is(err, service.ErrTooManyAttempts):
				return toolResult(map[string]string{
					"status":  "too_many_attempts",
					"message": "Too many wrong attempts. The code is no longer valid, a new one must be requested.",
				})
			case err != nil:
				return "", err
			}

			return toolResult(map[string]string{
				"status":  "verified",
				"message": "Identity confirmed. Account changes are now allowed for this session.",
			})
		},
	})

	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "update_email",
			Description: "Change the customer's email address. Requires a verified session.",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"email": {"type": "string", "description": "The new email address"}
				},
				"required": ["email"]
			}`),
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			var in struct {
				Email string `json:"email"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}

			err := accounts.UpdateEmail(ctx, sess.SessionID, sess.CustomerID, in.Email)
			if errors.Is(err, service.ErrVerificationRequired) {
				return toolResult(map[string]string{
					"status":  "verification_required",
					"message": "The customer must verify their identity first. Offer to send a code.",
				})
			}
			if err != nil {
				return "", err
			}
			return toolResult(map[string]string{"status": "updated", "email": in.Email})
		},
	})

	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "update_mailing_address",
			Description: "Change the customer's mailing address. Requires a verified session.",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"address": {"type": "string", "description": "Street address"},
					"city": {"type": "string"},
					"state": {"type": "string"},
					"postal_code": {"type": "string"},
					"country": {"type": "string"}
				},
				"required": ["address", "city"]
			}`),
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			var in struct {
				Address    string  `json:"address"`
				City       string  `json:"city"`
				State      *string `json:"state"`
				PostalCode *string `json:"postal_code"`
				Country    *string `json:"country"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}

			addr := models.MailingAddress{
				Address:    in.Address,
				City:       in.City,
				State:      in.State,
				PostalCode: in.PostalCode,
				Country:    in.Country,
			}
			err := accounts.UpdateMailingAddress(ctx, sess.SessionID, sess.CustomerID, addr)
			if errors.Is(err, service.ErrVerificationRequired) {
				return toolResult(map[string]string{
					"status":  "verification_required",
					"message": "The customer must verify their identity first. Offer to send a code.",
				})
			}
			if err != nil {
				return "", err
			}
			return toolResult(map[string]string{"status": "updated"})
		},
	})
}
