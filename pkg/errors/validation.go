package errors

import (
	"math"
	"strings"
	"unicode"
)

// MaxNodeKeyLength bounds node keys accepted from files and request bodies.
const MaxNodeKeyLength = 256

// ValidateNodeKey validates a node key read from an external source.
//
// Keys end up in DOT source, SVG ids and cache keys, so the rules are
// conservative:
//   - No empty keys
//   - No control characters or null bytes
//   - Maximum length of 256 characters
//   - No ", " sequence (it is the edge-name separator)
func ValidateNodeKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "node key cannot be empty")
	}

	if len(key) > MaxNodeKeyLength {
		return New(ErrCodeInvalidInput, "node key too long (max %d characters)", MaxNodeKeyLength)
	}

	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node key %q contains invalid control characters", key)
		}
	}

	if strings.Contains(key, ", ") {
		return New(ErrCodeInvalidInput, "node key %q cannot contain the edge separator \", \"", key)
	}

	return nil
}

// ValidatePathwayID validates a pathway identifier used to look up files.
// It prevents path traversal and absolute paths.
//
// Validation rules:
//   - ID cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePathwayID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidPath, "pathway id cannot be empty")
	}

	const maxIDLength = 500
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidPath, "pathway id too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "pathway id contains invalid characters")
		}
	}

	if strings.HasPrefix(id, "/") {
		return New(ErrCodeInvalidPath, "pathway id must be relative (cannot start with /)")
	}

	if strings.Contains(id, "..") {
		return New(ErrCodeInvalidPath, "pathway id cannot contain path traversal sequences (..)")
	}

	if strings.Contains(id, "\\") {
		return New(ErrCodeInvalidPath, "pathway id cannot contain backslashes")
	}

	return nil
}

// ValidateViewportWidth rejects widths that cannot anchor a layout.
func ValidateViewportWidth(width float64) error {
	if math.IsNaN(width) || math.IsInf(width, 0) {
		return New(ErrCodeInvalidInput, "viewport width must be finite")
	}
	if width < 0 {
		return New(ErrCodeInvalidInput, "viewport width cannot be negative (got %g)", width)
	}
	return nil
}
