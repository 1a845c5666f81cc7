package errors

import (
	"strings"
	"unicode"
)

// maxStemLength bounds file stems so generated names stay portable.
const maxStemLength = 200

// ValidateStem validates an export file stem (a file name without extension).
// The stem must already be trimmed; it may not be empty, contain control
// characters, path separators or traversal sequences.
func ValidateStem(stem string) error {
	if stem == "" {
		return New(ErrCodeInvalidInput, "file stem cannot be empty")
	}

	if len(stem) > maxStemLength {
		return New(ErrCodeInvalidInput, "file stem too long (max %d characters)", maxStemLength)
	}

	for _, r := range stem {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "file stem contains invalid control characters")
		}
	}

	if strings.ContainsAny(stem, "/\\") {
		return New(ErrCodeInvalidInput, "file stem cannot contain path separators")
	}

	if stem == "." || stem == ".." {
		return New(ErrCodeInvalidInput, "file stem cannot be %q", stem)
	}

	return nil
}

// ValidatePath validates a relative file path for safety.
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

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
