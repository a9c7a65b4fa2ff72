package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли сообщений в диалоге.
const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
	ChatRoleTool      = "tool"
)

// ToolCall описывает вызов инструмента, запрошенный моделью.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatMessage — одно сообщение диалога (пользователь, ассистент или инструмент).
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Session — состояние одной активной беседы.
// Владелец — диспетчер; шлюз верификации меняет только Verified и State
// через свои операции. Живёт от начала беседы до её очистки.
type Session struct {
	ID         uuid.UUID     `json:"id"`
	CustomerID int64         `json:"customer_id"`
	Verified   bool          `json:"verified"`
	State      string        `json:"state"`
	Messages   []ChatMessage `json:"messages"`
	CreatedAt  time.Time     `json:"created_at"`
	LastSeenAt time.Time     `json:"last_seen_at"`
}
