package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_DemoMode(t *testing.T) {
	assert.True(t, NewClient("", "", "+15550000001", "").DemoMode())
	assert.True(t, NewClient("AC123", "", "+15550000001", "").DemoMode())
	assert.False(t, NewClient("AC123", "token", "+15550000001", "").DemoMode())
}

func TestClient_Send_DemoModeSkipsDelivery(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient("", "", "+15550000001", server.URL)
	require.NoError(t, client.Send(context.Background(), "+19144342859", "Your code is 123456"))
	assert.False(t, called, "в демо-режиме запрос не отправляется")
}

func TestClient_Send_PostsTwilioForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "token", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+19144342859", r.PostForm.Get("To"))
		assert.Equal(t, "+15550000001", r.PostForm.Get("From"))
		assert.Equal(t, "Your verification code is 123456", r.PostForm.Get("Body"))

		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient("AC123", "token", "+15550000001", server.URL)
	err := client.Send(context.Background(), "+19144342859", "Your verification code is 123456")
	require.NoError(t, err)
}

func TestClient_Send_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient("AC123", "bad-token", "+15550000001", server.URL)
	err := client.Send(context.Background(), "+19144342859", "code")
	assert.Error(t, err)
}

func TestClient_Send_ServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	client := NewClient("AC123", "token", "+15550000001", server.URL)
	err := client.Send(context.Background(), "+19144342859", "code")
	assert.Error(t, err)
}
