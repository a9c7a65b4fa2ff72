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

// paymentToolNames — инструменты платёжного агента. Поиск трека
// переиспользуется из музыкального набора, чтобы найти track_id.
var paymentToolNames = []string{
	"search_tracks",
	"create_payment_intent",
	"confirm_payment_intent",
	"cancel_payment_intent",
	"get_payment_intent",
	"list_payment_intents",
}

// PurchaseProvider — платёжные операции, доступные инструментам.
type PurchaseProvider interface {
	CreateIntent(ctx context.Context, sessionID uuid.UUID, customerID, trackID int64) (*models.PaymentIntent, error)
	ConfirmIntent(ctx context.Context, sessionID uuid.UUID, customerID int64, intentID string) (*models.PaymentIntent, error)
	CancelIntent(ctx context.Context, customerID int64, intentID string) (*models.PaymentIntent, error)
	GetIntent(ctx context.Context, customerID int64, intentID string) (*models.PaymentIntent, error)
	ListIntents(ctx context.Context, customerID int64, limit int) ([]models.PaymentIntent, error)
}

// RegisterPaymentTools регистрирует инструменты покупки треков.
func RegisterPaymentTools(r *Registry, purchases PurchaseProvider) {
	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "create_payment_intent",
			Description: "Start a purchase of a track: creates a pending payment intent. Requires a verified session.",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"track_id": {"type": "integer", "description": "Track id from search_tracks"}
				},
				"required": ["track_id"]
			}`),
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			var in struct {
				TrackID int64 `json:"track_id"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}

			intent, err := purchases.CreateIntent(ctx, sess.SessionID, sess.CustomerID, in.TrackID)
			switch {
			case errors.Is(err, service.ErrVerificationRequired):
				return toolResult(map[string]string{
					"status":  "verification_required",
					"message": "The customer must verify their identity before buying. Offer to send a code.",
				})
			case errors.Is(err, service.ErrAlreadyPurchased):
				return toolResult(map[string]string{
					"status":  "already_purchased",
					"message": "The customer already owns this track.",
				})
			case err != nil:
				return "", err
			}
			return toolResult(map[string]any{"status": "created", "intent": intent})
		},
	})

	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "confirm_payment_intent",
			Description: "Confirm a pending payment intent: charges the customer and issues an invoice.",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"intent_id": {"type": "string", "description": "Intent id, e.g. pi_..."}
				},
				"required": ["intent_id"]
			}`),
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			var in struct {
				IntentID string `json:"intent_id"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}

			intent, err := purchases.ConfirmIntent(ctx, sess.SessionID, sess.CustomerID, in.IntentID)
			switch {
			case errors.Is(err, service.ErrVerificationRequired):
				return toolResult(map[string]string{
					"status":  "verification_required",
					"message": "The customer must verify their identity before buying. Offer to send a code.",
				})
			case errors.Is(err, service.ErrIntentTerminal):
				return toolResult(map[string]string{
					"status":  "already_final",
					"message": "This payment was already completed or cancelled.",
				})
			case err != nil:
				return "", err
			}
			return toolResult(map[string]any{"status": intent.Status, "intent": intent})
		},
	})

	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "cancel_payment_intent",
			Description: "Cancel a pending payment intent.",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"intent_id": {"type": "string"}
				},
				"required": ["intent_id"]
			}`),
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			var in struct {
				IntentID string `json:"intent_id"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}

			intent, err := purchases.CancelIntent(ctx, sess.CustomerID, in.IntentID)
			if errors.Is(err, service.ErrIntentTerminal) {
				return toolResult(map[string]string{
					"status":  "already_final",
					"message": "This payment was already completed or cancelled.",
				})
			}
			if err != nil {
				return "", err
			}
			return toolResult(map[string]any{"status": intent.Status, "intent": intent})
		},
	})

	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "get_payment_intent",
			Description: "Look up the status of one of the customer's payment intents.",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"intent_id": {"type": "string"}
				},
				"required": ["intent_id"]
			}`),
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			var in struct {
				IntentID string `json:"intent_id"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}
			intent, err := purchases.GetIntent(ctx, sess.CustomerID, in.IntentID)
			if err != nil {
				return "", err
			}
			return toolResult(intent)
		},
	})

	r.Register(Tool{
		Def: ai.ToolDef{
			Name:        "list_payment_intents",
			Description: "List the customer's recent payment intents.",
			Parameters: schema(`{
				"type": "object",
				"properties": {
					"limit": {"type": "integer", "description": "Max results, default 20"}
				}
			}`),
		},
		Handle: func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error) {
			var in struct {
				Limit int `json:"limit"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}
			intents, err := purchases.ListIntents(ctx, sess.CustomerID, in.Limit)
			if err != nil {
				return "", err
			}
			return toolResult(map[string]any{"intents": intents})
		},
	})
}
