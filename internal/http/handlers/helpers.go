package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// setSSEHeaders выставляет заголовки ответа для Server-Sent Events.
func setSSEHeaders(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()
}

// writeSSEData отправляет строку данных SSE.
// Используем io.WriteString для правильной работы с UTF-8.
func writeSSEData(w io.Writer, data string) (int, error) {
	if data == "" {
		return 0, nil
	}

	n, err := io.WriteString(w, "data: "+data+"\n\n")
	if err != nil {
		return 0, err
	}

	return n, nil
}

// writeSSEEvent форматирует и отправляет SSE событие с типом,
// сразу сбрасывая буфер клиенту.
func writeSSEEvent(c *gin.Context, eventType, data string) error {
	if _, err := io.WriteString(c.Writer, "event: "+eventType+"\n"); err != nil {
		return err
	}

	if _, err := writeSSEData(c.Writer, data); err != nil {
		return err
	}

	c.Writer.Flush()
	return nil
}
