package guardrails

import (
	"strings"
)

// RefusalMessage — единый ответ на запросы вне компетенции бота.
const RefusalMessage = "Sorry I can't assist with that."

// Темы, которые бот не обсуждает. Срабатывание любой из них
// останавливает запрос до обращения к модели.
var blockedKeywords = []string{
	"password", "credit card", "ssn", "social security",
	"hack", "exploit", "bypass", "jailbreak",
	"drop table", "delete from", "truncate", "update customers",
	"employee", "salary", "staff",
	"ignore previous", "ignore your instructions", "system prompt",
	"you are now", "pretend you are", "act as if",
}

// Темы магазина: если сообщение содержит хотя бы одну, оно считается
// релевантным даже при нейтральной формулировке.
var storeKeywords = []string{
	"track", "song", "album", "artist", "music", "genre", "playlist",
	"band", "lyric", "video", "clip",
	"buy", "purchase", "order", "invoice", "receipt", "refund", "price",
	"payment", "spent", "history", "recommend",
	"account", "email", "address", "profile", "phone",
	"verify", "verification", "code", "confirm",
	"help", "support", "hello", "hi", "thanks", "thank you",
}

// Result — итог проверки входящего сообщения.
type Result struct {
	Allowed bool
	Reason  string
}

// CheckMessage проверяет сообщение пользователя до передачи модели.
// Сначала стоп-темы, затем признаки релевантности; короткие сообщения
// без стоп-тем пропускаются, разговорные обороты не режутся.
func CheckMessage(message string) Result {
	normalized := strings.ToLower(strings.TrimSpace(message))
	if normalized == "" {
		return Result{Allowed: false, Reason: "empty"}
	}

	for _, kw := range blockedKeywords {
		if strings.Contains(normalized, kw) {
			return Result{Allowed: false, Reason: "blocked_topic"}
		}
	}

	for _, kw := range storeKeywords {
		if strings.Contains(normalized, kw) {
			return Result{Allowed: true}
		}
	}

	// Короткие реплики (подтверждения, коды, уточнения) пропускаем,
	// длинные не относящиеся к магазину тексты отклоняем.
	if len([]rune(normalized)) <= 80 {
		return Result{Allowed: true}
	}
	return Result{Allowed: false, Reason: "off_topic"}
}

// CheckResponse проверяет ответ модели перед отправкой пользователю.
// Утечка служебных данных заменяется отказом.
func CheckResponse(response string) Result {
	normalized := strings.ToLower(response)

	leaks := []string{"code_hash", "bcrypt", "schema_migrations", "system prompt"}
	for _, kw := range leaks {
		if strings.Contains(normalized, kw) {
			return Result{Allowed: false, Reason: "leak"}
		}
	}
	return Result{Allowed: true}
}
