package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/musicstore-support/internal/ai"
	"github.com/ignatzorin/musicstore-support/internal/guardrails"
	"github.com/ignatzorin/musicstore-support/internal/logger"
	"github.com/ignatzorin/musicstore-support/internal/models"
)

const (
	// maxToolRounds ограничивает цикл агент-инструменты: модель,
	// зациклившаяся на вызовах, принудительно завершает ход.
	maxToolRounds = 6
	// historyWindow — сколько последних сообщений уходит модели.
	historyWindow = 30
)

// LLMClient — зависимость диспетчера от языковой модели.
type LLMClient interface {
	Chat(ctx context.Context, messages []models.ChatMessage) (string, error)
	ChatWithTools(ctx context.Context, messages []models.ChatMessage, tools []ai.ToolDef) (*ai.Completion, error)
	StreamChat(ctx context.Context, messages []models.ChatMessage, onDelta func(chunk string) error) error
}

// SessionStore — зависимость диспетчера от хранилища сессий.
type SessionStore interface {
	Get(id uuid.UUID) (*models.Session, error)
	AppendMessages(id uuid.UUID, msgs ...models.ChatMessage) error
}

// Dispatcher принимает сообщение пользователя, прогоняет его через
// guardrails, выбирает под-агента и ведёт цикл модель-инструменты
// до финального ответа.
type Dispatcher struct {
	llm      LLMClient
	sessions SessionStore
	registry *Registry
}

func NewDispatcher(llm LLMClient, sessions SessionStore, registry *Registry) *Dispatcher {
	return &Dispatcher{
		llm:      llm,
		sessions: sessions,
		registry: registry,
	}
}

// Respond обрабатывает сообщение и возвращает полный ответ.
func (d *Dispatcher) Respond(ctx context.Context, sessionID uuid.UUID, message string) (string, error) {
	return d.respond(ctx, sessionID, message, nil)
}

// RespondStream обрабатывает сообщение, передавая текст ответа в onDelta
// по мере готовности. Возвращает полный собранный ответ.
func (d *Dispatcher) RespondStream(ctx context.Context, sessionID uuid.UUID, message string, onDelta func(chunk string) error) (string, error) {
	return d.respond(ctx, sessionID, message, onDelta)
}

func (d *Dispatcher) respond(ctx context.Context, sessionID uuid.UUID, message string, onDelta func(chunk string) error) (string, error) {
	session, err := d.sessions.Get(sessionID)
	if err != nil {
		return "", err
	}

	if check := guardrails.CheckMessage(message); !check.Allowed {
		if logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"session_id": sessionID,
				"reason":     check.Reason,
			}).Info("agent: сообщение отклонено guardrails")
		}
		return d.finish(sessionID, message, guardrails.RefusalMessage, onDelta)
	}

	intent := d.route(ctx, session.Messages, message)
	prompt, toolNames := agentFor(intent)

	msgs := buildContext(prompt, session.Messages, message)

	// Под-агент без инструментов отвечает сразу, поток идёт прямо от модели.
	if len(toolNames) == 0 {
		reply, err := d.plainReply(ctx, msgs, onDelta)
		if err != nil {
			return "", err
		}
		return d.record(sessionID, message, reply)
	}

	reply, err := d.toolLoop(ctx, sessionID, session.CustomerID, msgs, toolNames)
	if err != nil {
		return "", err
	}
	return d.finish(sessionID, message, reply, onDelta)
}

// toolLoop ведёт цикл модель-инструменты до текстового ответа.
func (d *Dispatcher) toolLoop(ctx context.Context, sessionID uuid.UUID, customerID int64, msgs []models.ChatMessage, toolNames []string) (string, error) {
	defs := d.registry.Defs(toolNames...)
	sess := ToolSession{SessionID: sessionID, CustomerID: customerID}

	for round := 0; round < maxToolRounds; round++ {
		completion, err := d.llm.ChatWithTools(ctx, msgs, defs)
		if err != nil {
			return "", fmt.Errorf("agent: запрос к модели не выполнен: %w", err)
		}

		if len(completion.ToolCalls) == 0 {
			return completion.Content, nil
		}

		msgs = append(msgs, models.ChatMessage{
			Role:      models.ChatRoleAssistant,
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
			CreatedAt: time.Now(),
		})
		for _, call := range completion.ToolCalls {
			result := d.registry.Execute(ctx, sess, call)
			msgs = append(msgs, models.ChatMessage{
				Role:       models.ChatRoleTool,
				Content:    result,
				ToolCallID: call.ID,
				CreatedAt:  time.Now(),
			})
		}
	}

	// Модель не остановилась сама, просим финальный ответ без инструментов.
	return d.llm.Chat(ctx, append(msgs, models.ChatMessage{
		Role:      models.ChatRoleUser,
		Content:   "Summarize the result for the customer in one short message.",
		CreatedAt: time.Now(),
	}))
}

// plainReply получает ответ без инструментов, в потоке, если он запрошен.
func (d *Dispatcher) plainReply(ctx context.Context, msgs []models.ChatMessage, onDelta func(chunk string) error) (string, error) {
	if onDelta == nil {
		return d.llm.Chat(ctx, msgs)
	}

	var full strings.Builder
	err := d.llm.StreamChat(ctx, msgs, func(chunk string) error {
		full.WriteString(chunk)
		return onDelta(chunk)
	})
	if err != nil {
		return "", err
	}
	return full.String(), nil
}

// finish проверяет ответ, отдаёт его в поток и записывает в историю.
func (d *Dispatcher) finish(sessionID uuid.UUID, userMessage, reply string, onDelta func(chunk string) error) (string, error) {
	if reply == "" {
		reply = guardrails.RefusalMessage
	}
	if check := guardrails.CheckResponse(reply); !check.Allowed {
		reply = guardrails.RefusalMessage
	}
	if onDelta != nil {
		if err := onDelta(reply); err != nil {
			return "", err
		}
	}
	return d.record(sessionID, userMessage, reply)
}

// record дописывает обмен в историю сессии. В историю попадают только
// пользовательское сообщение и финальный ответ, перебранка с
// инструментами остаётся внутри хода.
func (d *Dispatcher) record(sessionID uuid.UUID, userMessage, reply string) (string, error) {
	now := time.Now()
	err := d.sessions.AppendMessages(sessionID,
		models.ChatMessage{Role: models.ChatRoleUser, Content: userMessage, CreatedAt: now},
		models.ChatMessage{Role: models.ChatRoleAssistant, Content: reply, CreatedAt: now},
	)
	if err != nil {
		return "", err
	}
	return reply, nil
}

// route выбирает под-агента по сообщению и хвосту беседы.
// При любой ошибке модели запрос уходит агенту общих вопросов.
func (d *Dispatcher) route(ctx context.Context, history []models.ChatMessage, message string) string {
	msgs := []models.ChatMessage{{Role: models.ChatRoleSystem, Content: routerPrompt}}
	msgs = append(msgs, tailMessages(history, 6)...)
	msgs = append(msgs, models.ChatMessage{Role: models.ChatRoleUser, Content: message})

	answer, err := d.llm.Chat(ctx, msgs)
	if err != nil {
		if logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"error": err.Error(),
			}).Warn("agent: классификация не удалась, выбран general")
		}
		return "general"
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	for _, intent := range []string{"music", "account", "payment", "general"} {
		if strings.Contains(answer, intent) {
			return intent
		}
	}
	return "general"
}

// agentFor возвращает промпт и инструменты под-агента.
func agentFor(intent string) (string, []string) {
	switch intent {
	case "music":
		return musicPrompt, musicToolNames
	case "account":
		return accountPrompt, accountToolNames
	case "payment":
		return paymentPrompt, paymentToolNames
	default:
		return generalPrompt, nil
	}
}

// buildContext собирает сообщения для модели: системный промпт,
// хвост истории и новое сообщение.
func buildContext(prompt string, history []models.ChatMessage, message string) []models.ChatMessage {
	msgs := make([]models.ChatMessage, 0, historyWindow+2)
	msgs = append(msgs, models.ChatMessage{Role: models.ChatRoleSystem, Content: prompt})
	msgs = append(msgs, tailMessages(history, historyWindow)...)
	msgs = append(msgs, models.ChatMessage{Role: models.ChatRoleUser, Content: message, CreatedAt: time.Now()})
	return msgs
}

func tailMessages(history []models.ChatMessage, n int) []models.ChatMessage {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
