package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ignatzorin/musicstore-support/internal/models"
	"github.com/ignatzorin/musicstore-support/internal/pkg/apperror"
)

// ToolDef описывает инструмент в формате OpenAI function calling.
type ToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Completion — ответ модели: либо текст, либо запросы инструментов.
type Completion struct {
	Content   string
	ToolCalls []models.ToolCall
}

// Client работает с OpenAI-совместимым chat completions API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient создаёт экземпляр клиента.
func NewClient(baseURL, model string) *Client {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("AI_API_KEY")
	}

	if model == "" {
		model = "gpt-4o-mini"
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// wire-формат запроса chat/completions.

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type wireTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
	} `json:"function"`
}

// Chat выполняет обычный запрос без инструментов.
func (c *Client) Chat(ctx context.Context, messages []models.ChatMessage) (string, error) {
	completion, err := c.ChatWithTools(ctx, messages, nil)
	if err != nil {
		return "", err
	}
	return completion.Content, nil
}

// ChatWithTools выполняет запрос с набором инструментов. Модель либо
// отвечает текстом, либо просит вызвать один или несколько инструментов.
func (c *Client) ChatWithTools(ctx context.Context, messages []models.ChatMessage, tools []ToolDef) (*Completion, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("ai: baseURL не задан")
	}

	payload := map[string]any{
		"model":       c.model,
		"messages":    toWireMessages(messages),
		"temperature": 0.3,
	}
	if len(tools) > 0 {
		wireTools := make([]wireTool, len(tools))
		for i, t := range tools {
			wireTools[i].Type = "function"
			wireTools[i].Function.Name = t.Name
			wireTools[i].Function.Description = t.Description
			wireTools[i].Function.Parameters = t.Parameters
		}
		payload["tools"] = wireTools
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errorBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errorBody)
		return nil, apperror.Wrap(
			fmt.Errorf("ai: код ответа %d: %v", resp.StatusCode, errorBody),
			apperror.ErrCodeUpstream, "языковая модель недоступна")
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content   string         `json:"content"`
				ToolCalls []wireToolCall `json:"tool_calls"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("ai: пустой ответ")
	}

	msg := result.Choices[0].Message
	completion := &Completion{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		completion.ToolCalls = append(completion.ToolCalls, models.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return completion, nil
}

// StreamChat выполняет запрос со stream=true и передаёт текстовые
// чанки в onDelta по мере прихода.
func (c *Client) StreamChat(ctx context.Context, messages []models.ChatMessage, onDelta func(chunk string) error) error {
	if c.baseURL == "" {
		return fmt.Errorf("ai: baseURL не задан")
	}

	payload := map[string]any{
		"model":       c.model,
		"messages":    toWireMessages(messages),
		"temperature": 0.3,
		"stream":      true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errorBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errorBody)
		return apperror.Wrap(
			fmt.Errorf("ai: код ответа %d: %v", resp.StatusCode, errorBody),
			apperror.ErrCodeUpstream, "языковая модель недоступна")
	}

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == context.Canceled || strings.Contains(err.Error(), "EOF") {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return nil
		}

		var event struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			continue
		}
		if len(event.Choices) == 0 || event.Choices[0].Delta.Content == "" {
			continue
		}
		if err := onDelta(event.Choices[0].Delta.Content); err != nil {
			return err
		}
	}
}

func (c *Client) endpoint() string {
	url := c.baseURL
	if !strings.HasSuffix(url, "/") {
		url += "/"
	}
	return url + "chat/completions"
}

func toWireMessages(messages []models.ChatMessage) []wireMessage {
	wire := make([]wireMessage, len(messages))
	for i, m := range messages {
		wire[i] = wireMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			wtc := wireToolCall{ID: tc.ID, Type: "function"}
			wtc.Function.Name = tc.Name
			wtc.Function.Arguments = tc.Arguments
			wire[i].ToolCalls = append(wire[i].ToolCalls, wtc)
		}
	}
	return wire
}
