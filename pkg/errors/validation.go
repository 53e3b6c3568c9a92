package errors

import (
	"strings"
	"unicode"
)

// maxMachineNameLength bounds machine identifiers accepted from URLs,
// definition files and the command line.
const maxMachineNameLength = 128

// ValidateMachineName validates a machine identifier for safety.
// Machine names appear in URL paths, cache keys and file names, so they
// must not contain path separators, traversal sequences or control
// characters.
func ValidateMachineName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "machine name cannot be empty")
	}

	if len(name) > maxMachineNameLength {
		return New(ErrCodeInvalidInput, "machine name too long (max %d characters)", maxMachineNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "machine name contains invalid characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "machine name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
