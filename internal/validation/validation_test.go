package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePasswordChange(t *testing.T) {
	tests := []struct {
		name         string
		password     string
		confirmation string
		wantErr      error
	}{
		{"valid", "segredo", "segredo", nil},
		{"exactly six", "abcdef", "abcdef", nil},
		{"too short", "abc12", "abc12", ErrPasswordTooShort},
		{"too long", strings.Repeat("a", 73), strings.Repeat("a", 73), ErrPasswordTooLong},
		{"mismatch", "segredo1", "segredo2", ErrPasswordMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePasswordChange(tt.password, tt.confirmation)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Jo"))
	assert.NoError(t, ValidateName("  Ana Souza  "))
	assert.Error(t, ValidateName(" "))
	assert.Error(t, ValidateName("J"))
	assert.Error(t, ValidateName(strings.Repeat("á", 101)))
}

func TestValidateProfileFields(t *testing.T) {
	assert.NoError(t, ValidatePhone(""))
	assert.NoError(t, ValidatePhone("+55 (11) 98765-4321"))
	assert.Error(t, ValidatePhone("call me"))

	assert.NoError(t, ValidateTimezone("America/Sao_Paulo"))
	assert.NoError(t, ValidateTimezone(""))
	assert.Error(t, ValidateTimezone("Mars/Olympus"))
}

func TestValidateColorAndCategory(t *testing.T) {
	assert.NoError(t, ValidateColor("#3b82f6"))
	assert.Error(t, ValidateColor("blue"))
	assert.Error(t, ValidateColor("#fff"))

	assert.NoError(t, ValidateCategory("food"))
	assert.NoError(t, ValidateCategory("health-care"))
	assert.Error(t, ValidateCategory("Food"))
	assert.Error(t, ValidateCategory(""))
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email   string
		wantErr error
	}{
		{"ana@example.com", nil},
		{"ana.souza+finance@banco.com.br", nil},
		{"", ErrEmailRequired},
		{strings.Repeat("a", 250) + "@x.io", ErrEmailTooLong},
		{"not-an-email", ErrEmailInvalid},
		{"Ana <ana@example.com>", ErrEmailInvalid},
		{"ana@localhost", ErrEmailInvalid},
		{"ana@example.com.", ErrEmailInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ana@example.com", NormalizeEmail("  Ana@Example.COM "))
}
