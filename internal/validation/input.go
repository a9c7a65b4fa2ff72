package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinMessageLength = 1
	MaxMessageLength = 4000
	MaxAddressLength = 200
	MaxCityLength    = 100
	MaxCountryLength = 100
	CodeLength       = 6
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.TrimSpace(email)
	email = strings.ToLower(email)

	// Базовая проверка формата
	if !strings.Contains(email, "@") {
		return fmt.Errorf("email должен содержать символ @")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}

	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}

	if !strings.Contains(domainPart, ".") {
		return fmt.Errorf("доменная часть email должна содержать точку")
	}

	// Проверка на валидные символы в локальной части
	emailRegex := regexp.MustCompile(`^[a-z0-9._+-]+$`)
	if !emailRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}

	// Проверка на валидные символы в доменной части
	domainRegex := regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	if !domainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateChatMessage проверяет сообщение пользователя в чате.
func ValidateChatMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("сообщение не может быть пустым")
	}
	return ValidateLength("сообщение", message, MinMessageLength, MaxMessageLength)
}

// ValidateVerificationCode проверяет формат одноразового кода: ровно шесть цифр.
func ValidateVerificationCode(code string) error {
	code = strings.TrimSpace(code)
	if len(code) != CodeLength {
		return fmt.Errorf("код должен состоять из %d цифр", CodeLength)
	}
	codeRegex := regexp.MustCompile(`^[0-9]+$`)
	if !codeRegex.MatchString(code) {
		return fmt.Errorf("код должен содержать только цифры")
	}
	return nil
}

// ValidatePhone проверяет телефон в формате E.164.
func ValidatePhone(phone string) error {
	if phone == "" {
		return fmt.Errorf("телефон обязателен")
	}
	phoneRegex := regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)
	if !phoneRegex.MatchString(phone) {
		return fmt.Errorf("телефон должен быть в формате E.164, например +19144342859")
	}
	return nil
}

// ValidateMailingAddress проверяет поля почтового адреса.
func ValidateMailingAddress(address, city string) error {
	if err := ValidateNonEmpty("адрес", address); err != nil {
		return err
	}
	if err := ValidateLength("адрес", address, 1, MaxAddressLength); err != nil {
		return err
	}
	if err := ValidateNonEmpty("город", city); err != nil {
		return err
	}
	return ValidateLength("город", city, 1, MaxCityLength)
}
