package sms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ignatzorin/musicstore-support/internal/logger"
)

// Client отправляет SMS через Twilio-совместимый REST API.
// Без учётных данных работает в демо-режиме: SMS не уходит,
// вызывающий показывает код прямо в чате.
type Client struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиента. Пустые accountSID или authToken включают демо-режим.
func NewClient(accountSID, authToken, from, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.twilio.com"
	}
	return &Client{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			// Отправка кода должна укладываться в разумное время ответа чата.
			Timeout: 10 * time.Second,
		},
	}
}

// DemoMode сообщает, настроена ли реальная доставка.
func (c *Client) DemoMode() bool {
	return c.accountSID == "" || c.authToken == ""
}

// Send отправляет сообщение на указанный номер. Таймаут и любой
// сетевой сбой возвращаются ошибкой: доставка не состоялась.
func (c *Client) Send(ctx context.Context, to, body string) error {
	if c.DemoMode() {
		if logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"to": to,
			}).Info("sms: демо-режим, отправка пропущена")
		}
		return nil
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("sms: не удалось сформировать запрос: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms: запрос не выполнен: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("sms: код ответа %d", resp.StatusCode)
	}
	return nil
}
