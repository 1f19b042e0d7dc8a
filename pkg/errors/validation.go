package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds member and connection identifiers. UUIDs are 36
// characters; imported data may carry shorter legacy ids such as "c1".
const maxIDLength = 128

// ValidateID validates an entity identifier before it is used as a storage
// key (redis hash field, badger key, file name) or URL path segment.
//
// Rules:
//   - No empty ids
//   - No control characters or null bytes
//   - No path separators or key delimiters (/, \, :)
//   - Maximum length of 128 characters
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "id cannot be empty")
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidID, "id too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "id contains invalid control characters")
		}
	}

	if strings.ContainsAny(id, `/\:`) {
		return New(ErrCodeInvalidID, "id contains invalid characters: %q", id)
	}

	return nil
}

// ValidatePath validates an import/export file path.
// Absolute paths are allowed here (unlike repository paths), but null bytes
// and control characters are not.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	return nil
}
