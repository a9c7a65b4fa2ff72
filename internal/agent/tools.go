package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/musicstore-support/internal/ai"
	"github.com/ignatzorin/musicstore-support/internal/logger"
	"github.com/ignatzorin/musicstore-support/internal/models"
)

// ToolSession — контекст выполнения инструмента: чья сессия и чей аккаунт.
// Инструменты никогда не принимают customer_id из аргументов модели,
// только из сессии.
type ToolSession struct {
	SessionID  uuid.UUID
	CustomerID int64
}

// ToolHandler выполняет инструмент и возвращает JSON-результат для модели.
type ToolHandler func(ctx context.Context, sess ToolSession, args json.RawMessage) (string, error)

// Tool — определение инструмента вместе с обработчиком.
type Tool struct {
	Def    ai.ToolDef
	Handle ToolHandler
}

// Registry хранит все инструменты диспетчера.
type Registry struct {
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register добавляет инструмент. Повторная регистрация имени — ошибка программиста.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Def.Name]; exists {
		panic(fmt.Sprintf("agent: инструмент %s уже зарегистрирован", t.Def.Name))
	}
	r.tools[t.Def.Name] = t
}

// Defs возвращает определения перечисленных инструментов.
func (r *Registry) Defs(names ...string) []ai.ToolDef {
	defs := make([]ai.ToolDef, 0, len(names))
	for _, name := range names {
		tool, ok := r.tools[name]
		if !ok {
			panic(fmt.Sprintf("agent: неизвестный инструмент %s", name))
		}
		defs = append(defs, tool.Def)
	}
	return defs
}

// Execute выполняет вызов инструмента. Ошибки не прерывают диалог,
// а возвращаются модели как JSON, чтобы она могла ответить по существу.
func (r *Registry) Execute(ctx context.Context, sess ToolSession, call models.ToolCall) string {
	tool, ok := r.tools[call.Name]
	if !ok {
		return toolError(fmt.Sprintf("unknown tool: %s", call.Name))
	}

	result, err := tool.Handle(ctx, sess, json.RawMessage(call.Arguments))
	if err != nil {
		if logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"tool":       call.Name,
				"session_id": sess.SessionID,
				"error":      err.Error(),
			}).Warn("agent: инструмент завершился ошибкой")
		}
		return toolError(err.Error())
	}
	return result
}

// toolResult сериализует результат инструмента.
func toolResult(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("agent: не удалось сериализовать результат: %w", err)
	}
	return string(data), nil
}

// toolError кодирует ошибку в формате, понятном модели.
func toolError(message string) string {
	data, _ := json.Marshal(map[string]string{"error": message})
	return string(data)
}

// schema сокращает объявление JSON-схемы параметров.
func schema(s string) json.RawMessage {
	return json.RawMessage(s)
}

// noParams — схема инструмента без аргументов.
var noParams = schema(`{"type":"object","properties":{}}`)
