package ingestion

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// maxExtractBytes bounds how much of a file the plain-text extractor reads.
const maxExtractBytes = 16 << 20 // 16 MiB

// Extractor turns a stored document file into plain text for chunking.
// Implementations must be thread-safe.
type Extractor interface {
	// Extract reads the file content and returns its text.
	// Returns an error wrapping ErrExtractionFailed if the content cannot
	// be converted to text.
	Extract(ctx context.Context, content io.Reader, fileType string) (string, error)
}

// PlainTextExtractor extracts text from plain-text file formats
// (txt, markdown, csv, html treated as raw text). Binary formats such as
// PDF or DOCX are rejected; converting those is out of scope and should be
// done before upload.
type PlainTextExtractor struct{}

var _ Extractor = (*PlainTextExtractor)(nil)

// NewPlainTextExtractor creates an extractor for plain-text formats.
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// Extract reads the content as UTF-8 text.
func (e *PlainTextExtractor) Extract(ctx context.Context, content io.Reader, fileType string) (string, error) {
	if !isTextType(fileType) {
		return "", fmt.Errorf("%w: unsupported file type %q", ErrExtractionFailed, fileType)
	}

	data, err := io.ReadAll(io.LimitReader(content, maxExtractBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	if len(data) > maxExtractBytes {
		return "", fmt.Errorf("%w: file exceeds %d bytes", ErrExtractionFailed, maxExtractBytes)
	}

	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: content is not valid UTF-8 text", ErrExtractionFailed)
	}

	return string(data), nil
}

// isTextType reports whether a MIME type or file extension names a
// plain-text format.
func isTextType(fileType string) bool {
	t := strings.ToLower(strings.TrimSpace(fileType))
	// Strip parameters like "; charset=utf-8"
	if i := strings.Index(t, ";"); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}

	switch t {
	case "", "text/plain", "text/markdown", "text/csv", "text/html",
		"application/json", "application/xml":
		return true
	}
	switch strings.TrimPrefix(t, ".") {
	case "txt", "md", "markdown", "csv", "html", "htm", "json", "xml", "log":
		return true
	}
	return strings.HasPrefix(t, "text/")
}
