package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/musicstore-support/internal/models"
	"github.com/ignatzorin/musicstore-support/internal/pkg/apperror"
)

func TestClient_Chat_ReturnsContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.NotEmpty(t, payload["messages"])
		_, hasTools := payload["tools"]
		assert.False(t, hasTools, "без инструментов поле tools не отправляется")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Hello there"}}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/v1", "test-model")
	reply, err := client.Chat(context.Background(), []models.ChatMessage{
		{Role: models.ChatRoleUser, Content: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", reply)
}

func TestClient_ChatWithTools_ParsesToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Tools []wireTool `json:"tools"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Tools, 1)
		assert.Equal(t, "function", payload.Tools[0].Type)
		assert.Equal(t, "search_tracks", payload.Tools[0].Function.Name)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{
			"content":"",
			"tool_calls":[{"id":"call_1","type":"function","function":{"name":"search_tracks","arguments":"{\"query\":\"queen\"}"}}]
		}}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model")
	completion, err := client.ChatWithTools(context.Background(),
		[]models.ChatMessage{{Role: models.ChatRoleUser, Content: "find queen"}},
		[]ToolDef{{Name: "search_tracks", Description: "Search tracks", Parameters: json.RawMessage(`{"type":"object"}`)}},
	)
	require.NoError(t, err)

	require.Len(t, completion.ToolCalls, 1)
	call := completion.ToolCalls[0]
	assert.Equal(t, "call_1", call.ID)
	assert.Equal(t, "search_tracks", call.Name)
	assert.JSONEq(t, `{"query":"queen"}`, call.Arguments)
}

func TestClient_ChatWithTools_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model")
	_, err := client.ChatWithTools(context.Background(),
		[]models.ChatMessage{{Role: models.ChatRoleUser, Content: "hi"}}, nil)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.ErrCodeUpstream, appErr.Code)
	assert.Equal(t, http.StatusBadGateway, appErr.HTTPStatus)
}

func TestClient_ChatWithTools_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model")
	_, err := client.ChatWithTools(context.Background(),
		[]models.ChatMessage{{Role: models.ChatRoleUser, Content: "hi"}}, nil)
	assert.Error(t, err)
}

func TestClient_ChatWithTools_NoBaseURL(t *testing.T) {
	client := NewClient("", "test-model")
	_, err := client.ChatWithTools(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestClient_StreamChat_DeliversDeltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, true, payload["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n"))
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"lo!\"}}]}\n\n"))
		_, _ = w.Write([]byte(": keep-alive comment is ignored\n\n"))
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model")
	var chunks []string
	err := client.StreamChat(context.Background(),
		[]models.ChatMessage{{Role: models.ChatRoleUser, Content: "hi"}},
		func(chunk string) error {
			chunks = append(chunks, chunk)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo!"}, chunks)
}

func TestClient_StreamChat_OnDeltaErrorStopsStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"one\"}}]}\n\n"))
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"two\"}}]}\n\n"))
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model")
	stop := errors.New("client gone")
	calls := 0
	err := client.StreamChat(context.Background(), nil, func(string) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestClient_StreamChat_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model")
	err := client.StreamChat(context.Background(), nil, func(string) error { return nil })
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.ErrCodeUpstream, appErr.Code)
}
