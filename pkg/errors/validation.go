package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateServiceName validates a service or subprocess name taken from a
// topology request. Names end up in graph IDs, cache keys and store keys,
// so the rules are conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateServiceName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidService, "service name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidService, "service name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidService, "service name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidService, "service name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidatePath validates a relative file path for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// modelIDRegex matches stored model identifiers (hex digests or UUIDs).
var modelIDRegex = regexp.MustCompile(`^[a-f0-9][a-f0-9-]{7,63}$`)

// ValidateModelID validates the identifier of a stored model snapshot.
func ValidateModelID(id string) error {
	if !modelIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid model id: %q", id)
	}
	return nil
}
