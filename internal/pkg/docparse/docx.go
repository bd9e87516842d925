package docparse

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// A DOCX file is a zip archive. Body text lives in word/document.xml and
// the title and author in docProps/core.xml.
const (
	docxDocumentPath = "word/document.xml"
	docxCorePath     = "docProps/core.xml"

	// DOCX has no page count; estimate one page per ~3000 characters.
	docxCharsPerPage = 3000
)

type docxBody struct {
	Paragraphs []docxParagraph `xml:"body>p"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Texts []string `xml:"t"`
}

type docxCoreProps struct {
	Title   string `xml:"title"`
	Creator string `xml:"creator"`
}

// ParseDOCX extracts paragraph text joined by blank lines, matching how
// the document reads when exported to plain text.
func ParseDOCX(data []byte) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx archive failed: %w", err)
	}

	result := &Result{}

	docXML, err := readZipFile(zr, docxDocumentPath)
	if err != nil {
		return nil, fmt.Errorf("read docx document part failed: %w", err)
	}

	var body docxBody
	if err := xml.Unmarshal(docXML, &body); err != nil {
		return nil, fmt.Errorf("parse docx document part failed: %w", err)
	}

	var paragraphs []string
	for _, p := range body.Paragraphs {
		var sb strings.Builder
		for _, r := range p.Runs {
			for _, t := range r.Texts {
				sb.WriteString(t)
			}
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	result.Text = strings.Join(paragraphs, "\n\n")

	if coreXML, err := readZipFile(zr, docxCorePath); err == nil {
		var props docxCoreProps
		if err := xml.Unmarshal(coreXML, &props); err == nil {
			result.Title = strings.TrimSpace(props.Title)
			result.Author = strings.TrimSpace(props.Creator)
		}
	}

	result.NumPages = len(result.Text) / docxCharsPerPage
	if result.NumPages < 1 {
		result.NumPages = 1
	}
	return result, nil
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}
