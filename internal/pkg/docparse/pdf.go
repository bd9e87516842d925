package docparse

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ParsePDF extracts text page by page. Pages that fail to decode come
// back empty rather than failing the whole document.
func ParsePDF(data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty pdf data")
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf failed: %w", err)
	}

	result := &Result{NumPages: reader.NumPage()}

	info := reader.Trailer().Key("Info")
	if !info.IsNull() {
		result.Title = info.Key("Title").Text()
		result.Author = info.Key("Author").Text()
	}

	var sb strings.Builder
	result.Pages = make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		var text string
		page := reader.Page(i)
		if !page.V.IsNull() {
			// Pages that fail to decode stay empty so numbering holds.
			text, _ = page.GetPlainText(nil)
		}
		result.Pages = append(result.Pages, text)
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	result.Text = sb.String()
	return result, nil
}
