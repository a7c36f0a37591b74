package utils

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// Alphanumeric, underscore, hyphen and dot: route codes and uuids both fit.
	validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)
)

// ValidateID validates that an ID is safe and within reasonable limits
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}
	if len(id) > 100 {
		return errors.New("id too long (max 100 characters)")
	}
	if !validIDPattern.MatchString(id) {
		return errors.New("id contains invalid characters")
	}
	return nil
}

// SanitizeInput removes HTML tags and surrounding whitespace from free text.
func SanitizeInput(input string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(input, ""))
}
