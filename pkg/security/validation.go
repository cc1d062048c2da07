// Package security holds input validation and request rate limiting for
// the router's public surfaces.
package security

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxPromptLength is the longest prompt accepted, in runes.
const MaxPromptLength = 8000

var (
	// ErrEmptyPrompt is returned for prompts that are blank after trimming.
	ErrEmptyPrompt = errors.New("empty prompt provided")
	// ErrPromptTooLong is returned for prompts over MaxPromptLength.
	ErrPromptTooLong = fmt.Errorf("prompt exceeds max length %d", MaxPromptLength)
	// ErrInvalidPrompt is returned for prompts with null bytes or invalid UTF-8.
	ErrInvalidPrompt = errors.New("prompt contains invalid characters")
)

// StringValidator validates string arguments with various constraints
type StringValidator struct {
	MaxLength            int
	DisallowNullBytes    bool
	DisallowControlChars bool
}

// Validate checks if the value meets all string validation constraints
func (v *StringValidator) Validate(str string) error {
	if !utf8.ValidString(str) {
		return ErrInvalidPrompt
	}

	if v.MaxLength > 0 && utf8.RuneCountInString(str) > v.MaxLength {
		return ErrPromptTooLong
	}

	if v.DisallowNullBytes && strings.Contains(str, "\x00") {
		return ErrInvalidPrompt
	}

	if v.DisallowControlChars {
		for _, r := range str {
			if r < 32 && r != '\n' && r != '\t' && r != '\r' {
				return ErrInvalidPrompt
			}
		}
	}

	return nil
}

var promptValidator = &StringValidator{
	MaxLength:            MaxPromptLength,
	DisallowNullBytes:    true,
	DisallowControlChars: true,
}

// ValidatePrompt trims surrounding whitespace and checks the prompt is
// non-empty and well formed. It returns the trimmed prompt.
func ValidatePrompt(prompt string) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return "", ErrEmptyPrompt
	}
	if err := promptValidator.Validate(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}
