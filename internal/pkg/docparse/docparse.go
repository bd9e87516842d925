// Package docparse extracts plain text and basic metadata from uploaded
// study material. PDF and DOCX are the supported formats.
package docparse

import (
	"fmt"
	"strings"
)

// Result holds the extracted text and the metadata the parsers can
// recover from the file itself. Pages carries per-page text when the
// format has real pages; it is empty for DOCX, where the page count is
// only an estimate.
type Result struct {
	Text     string
	Pages    []string
	NumPages int
	Title    string
	Author   string
}

// SupportedType reports whether ext (without dot, lowercase) is a format
// the parsers handle.
func SupportedType(ext string) bool {
	switch strings.ToLower(ext) {
	case "pdf", "docx":
		return true
	}
	return false
}

// Parse dispatches on the file extension.
func Parse(data []byte, ext string) (*Result, error) {
	switch strings.ToLower(ext) {
	case "pdf":
		return ParsePDF(data)
	case "docx":
		return ParseDOCX(data)
	}
	return nil, fmt.Errorf("unsupported file type: %s", ext)
}
