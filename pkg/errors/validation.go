package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// MaxTopicLength bounds the free-text topic a user may submit.
const MaxTopicLength = 2000

// SupportedExtensions lists the document extensions accepted at selection time.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".text": true,
	".pdf":  true,
}

// ValidateRequest checks that at least one of topic or document is present.
// Both are trimmed first, so whitespace-only input counts as absent.
func ValidateRequest(topic, document string) error {
	if strings.TrimSpace(topic) == "" && strings.TrimSpace(document) == "" {
		return New(ErrCodeInvalidInput, "enter a topic or upload a document")
	}
	return ValidateTopic(topic)
}

// ValidateTopic validates a topic string for length and control characters.
// Newlines and tabs are allowed; an empty topic is valid.
func ValidateTopic(topic string) error {
	if len(topic) > MaxTopicLength {
		return New(ErrCodeInvalidInput, "topic too long (max %d characters)", MaxTopicLength)
	}
	for _, r := range topic {
		if r == '\n' || r == '\t' || r == '\r' {
			continue
		}
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "topic contains invalid control characters")
		}
	}
	return nil
}

// ValidateFilename rejects uploads whose extension is not text or PDF.
// A name without an extension is accepted; its content decides.
func ValidateFilename(name string) error {
	if name == "" {
		return New(ErrCodeUnsupportedFile, "document filename cannot be empty")
	}
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeUnsupportedFile, "document filename cannot contain path separators")
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext != "" && !SupportedExtensions[ext] {
		return New(ErrCodeUnsupportedFile, "unsupported file type %q (use .txt or .pdf)", ext)
	}
	return nil
}
