package docparse

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildDocx(t *testing.T, documentXML, coreXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create(docxDocumentPath)
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)

	if coreXML != "" {
		w, err = zw.Create(docxCorePath)
		require.NoError(t, err)
		_, err = w.Write([]byte(coreXML))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const testDocumentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>   </w:t></w:r></w:p>
  </w:body>
</w:document>`

const testCoreXML = `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
  xmlns:dc="http://purl.org/dc/elements/1.1/">
  <dc:title>Study Notes</dc:title>
  <dc:creator>Test Author</dc:creator>
</cp:coreProperties>`

func TestParseDOCXExtractsParagraphs(t *testing.T) {
	data := buildDocx(t, testDocumentXML, testCoreXML)

	result, err := ParseDOCX(data)
	require.NoError(t, err)
	require.Equal(t, "First paragraph.\n\nSecond paragraph.", result.Text)
	require.Equal(t, "Study Notes", result.Title)
	require.Equal(t, "Test Author", result.Author)
	require.Equal(t, 1, result.NumPages)
	require.Empty(t, result.Pages)
}

func TestParseDOCXWithoutCoreProps(t *testing.T) {
	data := buildDocx(t, testDocumentXML, "")

	result, err := ParseDOCX(data)
	require.NoError(t, err)
	require.Equal(t, "First paragraph.\n\nSecond paragraph.", result.Text)
	require.Empty(t, result.Title)
}

func TestParseDOCXMissingDocumentPart(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	require.NoError(t, zw.Close())

	_, err := ParseDOCX(buf.Bytes())
	require.Error(t, err)
}

func TestParseDOCXNotAZip(t *testing.T) {
	_, err := ParseDOCX([]byte("plain text, not a zip archive"))
	require.Error(t, err)
}

func TestSupportedType(t *testing.T) {
	require.True(t, SupportedType("pdf"))
	require.True(t, SupportedType("DOCX"))
	require.False(t, SupportedType("txt"))
	require.False(t, SupportedType(""))
}

func TestParseDispatchUnsupported(t *testing.T) {
	_, err := Parse([]byte("x"), "csv")
	require.Error(t, err)
}
