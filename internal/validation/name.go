package validation

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ValidateName validates a person's full name
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return errors.New("name is required")
	}

	if utf8.RuneCountInString(trimmed) < 2 {
		return errors.New("name must be at least 2 characters")
	}

	if utf8.RuneCountInString(trimmed) > 100 {
		return errors.New("name is too long (max 100 characters)")
	}

	return nil
}

// ValidateTitle validates titles of goals and events
func ValidateTitle(title string) error {
	trimmed := strings.TrimSpace(title)

	if trimmed == "" {
		return errors.New("title is required")
	}

	if utf8.RuneCountInString(trimmed) > 200 {
		return errors.New("title is too long (max 200 characters)")
	}

	return nil
}
