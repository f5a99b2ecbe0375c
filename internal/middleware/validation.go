package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
)

const maxContentBytes = 32 * 1024

// ValidateMessageContent validates message content.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > maxContentBytes {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateSessionID validates a session ID.
func ValidateSessionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid session ID format")
	}
	return nil
}

// ValidateLocaleName validates a requested locale name.
func ValidateLocaleName(name string) error {
	if len(name) == 0 {
		return errors.New("locale cannot be empty")
	}
	if len(name) > 64 {
		return errors.New("locale exceeds maximum length")
	}
	return nil
}
