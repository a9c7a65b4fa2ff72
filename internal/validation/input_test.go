package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"luis@apple.com",
		"Frank.Harris@example.co.uk",
		"user+tag@mail.example.org",
	}
	for _, email := range valid {
		assert.NoError(t, ValidateEmail(email), "адрес должен проходить: %q", email)
	}

	invalid := []string{
		"",
		"no-at-sign",
		"two@@example.com",
		"user@nodot",
		"плохой@example.com",
		"user@ex ample.com",
	}
	for _, email := range invalid {
		assert.Error(t, ValidateEmail(email), "адрес должен отклоняться: %q", email)
	}
}

func TestValidateChatMessage(t *testing.T) {
	assert.NoError(t, ValidateChatMessage("Do you have any jazz?"))
	assert.Error(t, ValidateChatMessage("   "))
	assert.Error(t, ValidateChatMessage(strings.Repeat("a", MaxMessageLength+1)))
}

func TestValidateVerificationCode(t *testing.T) {
	assert.NoError(t, ValidateVerificationCode("123456"))
	assert.NoError(t, ValidateVerificationCode("  123456  "))
	assert.Error(t, ValidateVerificationCode("12345"))
	assert.Error(t, ValidateVerificationCode("1234567"))
	assert.Error(t, ValidateVerificationCode("12a456"))
	assert.Error(t, ValidateVerificationCode(""))
}

func TestValidatePhone(t *testing.T) {
	assert.NoError(t, ValidatePhone("+19144342859"))
	assert.Error(t, ValidatePhone(""))
	assert.Error(t, ValidatePhone("19144342859"))
	assert.Error(t, ValidatePhone("+0123456789"))
	assert.Error(t, ValidatePhone("+1"))
}

func TestValidateMailingAddress(t *testing.T) {
	assert.NoError(t, ValidateMailingAddress("1600 Amphitheatre Pkwy", "Mountain View"))
	assert.Error(t, ValidateMailingAddress("", "Mountain View"))
	assert.Error(t, ValidateMailingAddress("1600 Amphitheatre Pkwy", " "))
	assert.Error(t, ValidateMailingAddress(strings.Repeat("a", MaxAddressLength+1), "City"))
}
