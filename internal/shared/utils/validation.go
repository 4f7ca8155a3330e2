package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Size limits (in bytes)
const (
	MaxMessageSize = 64 * 1024 // one inbound WebSocket frame
	MaxTextLength  = 4096      // one typed interaction
	MaxKeyLength   = 32
)

// String length limits
const (
	MaxIDLength   = 128
	MaxNameLength = 256
	MaxURLLength  = 2048
)

// SafeIDPattern allows alphanumerics plus the separators found in user and
// platform ids issued by identity providers.
var SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._@:|-]+$`)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	// Null bytes never reach the browser.
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates an ID field
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateName validates a display name field
func ValidateName(name, fieldName string, required bool) error {
	return ValidateString(name, fieldName, 1, MaxNameLength, required)
}

// ValidatePlatformURL accepts an http(s) URL or a bare host that will be
// given an https scheme.
func ValidatePlatformURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if err := ValidateString(raw, "platform url", 1, MaxURLLength, true); err != nil {
		return err
	}

	candidate := raw
	if !strings.Contains(raw, "://") {
		candidate = "https://" + raw
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return fmt.Errorf("invalid platform url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("platform url scheme %q is not allowed", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("platform url has no host")
	}
	return nil
}

// ValidateText validates text typed into the remote page.
func ValidateText(text string) error {
	if utf8.RuneCountInString(text) > MaxTextLength {
		return fmt.Errorf("text must not exceed %d characters", MaxTextLength)
	}
	return nil
}

// ValidateKey validates a key name such as "Enter" or "ArrowDown".
func ValidateKey(key string) error {
	return ValidateString(key, "key", 0, MaxKeyLength, false)
}

// ValidateMessageSize rejects inbound frames larger than MaxMessageSize.
func ValidateMessageSize(data []byte) error {
	if len(data) > MaxMessageSize {
		return fmt.Errorf("message size %d bytes exceeds maximum %d bytes", len(data), MaxMessageSize)
	}
	return nil
}
