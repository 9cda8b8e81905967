package extract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestFromFile_PlainText(t *testing.T) {
	text := FromFile("notes.txt", []byte("hello funding world"))
	assert.Equal(t, "hello funding world", text)

	text = FromFile("readme.md", []byte("# Heading\nbody"))
	assert.Equal(t, "# Heading\nbody", text)
}

func TestFromFile_JSONReindented(t *testing.T) {
	text := FromFile("deals.json", []byte(`{"startup":"Acme","amount":5}`))
	assert.Contains(t, text, "\n")
	assert.Contains(t, text, `"startup"`)

	// Invalid JSON passes through untouched.
	text = FromFile("broken.json", []byte(`{not json`))
	assert.Equal(t, `{not json`, text)
}

func TestFromFile_PDF(t *testing.T) {
	t.Run("Tj Operator", func(t *testing.T) {
		pdf := "%PDF-1.4\nBT (Acme Robotics raised funds) Tj ET\n%%EOF"
		text := FromFile("report.pdf", []byte(pdf))
		assert.Contains(t, text, "Acme Robotics raised funds")
	})

	t.Run("TJ Array Operator", func(t *testing.T) {
		pdf := "BT [(Kerned) -20 (startup) -20 (text)] TJ ET"
		text := fromPDF([]byte(pdf))
		assert.Contains(t, text, "Kerned")
		assert.Contains(t, text, "startup")
	})

	t.Run("Escapes Unwrapped", func(t *testing.T) {
		pdf := `BT (line\(one\)\\done) Tj ET`
		text := fromPDF([]byte(pdf))
		assert.Contains(t, text, `line(one)\done`)
	})

	t.Run("Fallback On Sparse Parse", func(t *testing.T) {
		// No BT/ET blocks at all; readable runs recovered from raw bytes.
		raw := "\x00\x01\x02The quarterly funding report covers thirty deals across India\x03\x04"
		text := FromFile("scan.pdf", []byte(raw))
		assert.Contains(t, text, "quarterly funding report")
	})

	t.Run("Garbage Yields Empty Not Error", func(t *testing.T) {
		text := FromFile("junk.pdf", []byte{0x00, 0xff, 0x10})
		assert.Empty(t, strings.TrimSpace(text))
	})
}

func TestFromFile_DOCX(t *testing.T) {
	docXML := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph about </w:t></w:r><w:r><w:t>startup funding.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	data := buildZip(t, map[string]string{"word/document.xml": docXML})
	text := FromFile("deck.docx", data)
	assert.Equal(t, "First paragraph about startup funding.\nSecond paragraph.", text)
}

func TestFromFile_DOCX_NotAnArchive(t *testing.T) {
	assert.Empty(t, FromFile("deck.docx", []byte("plain bytes")))
}

func TestFromFile_XLSX(t *testing.T) {
	sharedXML := `<?xml version="1.0"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <si><t>Acme Robotics</t></si>
  <si><t>Series A</t></si>
</sst>`
	sheetXML := `<?xml version="1.0"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <sheetData>
    <row>
      <c t="s"><v>0</v></c>
      <c t="s"><v>1</v></c>
      <c><v>5000000</v></c>
      <c t="inlineStr"><is><t>inline note</t></is></c>
    </row>
  </sheetData>
</worksheet>`

	data := buildZip(t, map[string]string{
		"xl/sharedStrings.xml":    sharedXML,
		"xl/worksheets/sheet1.xml": sheetXML,
	})
	text := FromFile("deals.xlsx", data)
	assert.Contains(t, text, "Acme Robotics")
	assert.Contains(t, text, "Series A")
	assert.Contains(t, text, "5000000")
	assert.Contains(t, text, "inline note")
	// Shared strings appear once despite being referenced and re-appended.
	assert.Equal(t, 1, strings.Count(text, "Acme Robotics"))
}

func TestFromFile_XLS(t *testing.T) {
	// Binary-ish buffer with embedded printable runs.
	var buf bytes.Buffer
	buf.Write([]byte{0x09, 0x08, 0x10, 0x00})
	buf.WriteString("Quarterly Numbers")
	buf.Write([]byte{0x00, 0x01})
	buf.WriteString("123456") // purely numeric, filtered
	buf.Write([]byte{0x00})
	buf.WriteString("abc") // too short, filtered
	buf.Write([]byte{0x00, 0xff})

	text := FromFile("legacy.xls", buf.Bytes())
	assert.Contains(t, text, "Quarterly Numbers")
	assert.NotContains(t, text, "123456")
	assert.NotContains(t, text, "abc")
}

func TestSourceType(t *testing.T) {
	assert.Equal(t, "pdf", SourceType("a.PDF"))
	assert.Equal(t, "table", SourceType("b.xlsx"))
	assert.Equal(t, "table", SourceType("b.csv"))
	assert.Equal(t, "report", SourceType("c.docx"))
	assert.Equal(t, "web", SourceType("d.txt"))
}
