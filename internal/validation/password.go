package validation

import (
	"errors"
)

const (
	PasswordMinLength = 6
	// bcrypt silently truncates anything longer than 72 bytes
	PasswordMaxLength = 72
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong  = errors.New("password must not exceed 72 characters")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// ValidatePassword validates password length
func ValidatePassword(password string) error {
	if len(password) < PasswordMinLength {
		return ErrPasswordTooShort
	}

	if len(password) > PasswordMaxLength {
		return ErrPasswordTooLong
	}

	return nil
}

// ValidatePasswordChange checks the new password and its confirmation
func ValidatePasswordChange(password, confirmation string) error {
	err := ValidatePassword(password)
	if err != nil {
		return err
	}

	if password != confirmation {
		return ErrPasswordMismatch
	}

	return nil
}
