package validation

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	phonePattern    = regexp.MustCompile(`^\+?[0-9 ()\-]{8,20}$`)
	colorPattern    = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	categoryPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]{0,39}$`)
)

// ValidatePhone accepts an empty value or a loosely formatted phone number
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil
	}

	if !phonePattern.MatchString(phone) {
		return errors.New("invalid phone number")
	}

	return nil
}

// ValidateTimezone accepts an empty value or an IANA zone name
func ValidateTimezone(tz string) error {
	if tz == "" {
		return nil
	}

	_, err := time.LoadLocation(tz)
	if err != nil {
		return errors.New("unknown timezone")
	}

	return nil
}

// ValidateColor accepts #rrggbb
func ValidateColor(color string) error {
	if !colorPattern.MatchString(color) {
		return errors.New("color must be in #rrggbb format")
	}
	return nil
}

// ValidateCategory accepts lower-case slugs such as "food" or "health-care"
func ValidateCategory(category string) error {
	if !categoryPattern.MatchString(category) {
		return errors.New("category must be a lower-case slug")
	}
	return nil
}
