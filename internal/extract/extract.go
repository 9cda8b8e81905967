// Package extract converts raw document bytes into best-effort plain text.
//
// Extraction never fails for a recognized extension; unparseable input yields
// whatever text could be recovered, possibly an empty string. Callers decide
// whether the recovered text is long enough to be usable.
package extract

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"regexp"
	"strings"
)

// MinTextLength is the floor below which extracted text is considered a
// hard extraction failure by callers.
const MinTextLength = 10

var printableRunRe = regexp.MustCompile(`[A-Za-z][A-Za-z0-9\s.,;:!?'"-]{20,}`)

// FromFile extracts plain text from data, dispatching on the filename
// extension. Unrecognized extensions are treated as plain text.
func FromFile(filename string, data []byte) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text := fromPDF(data)
		if len(text) < 100 {
			// Conforming parse found little; scan the raw bytes for
			// printable runs as a last resort.
			if runs := printableRunRe.FindAllString(string(data), -1); runs != nil {
				text = strings.Join(runs, " ")
			}
		}
		return text
	case ".docx":
		return fromDOCX(data)
	case ".xlsx":
		return fromXLSX(data)
	case ".xls":
		return fromXLS(data)
	case ".json":
		return reindentJSON(data)
	default: // .txt, .md, .csv and anything else readable as text
		return string(data)
	}
}

// SourceType maps a filename to the coarse source category used by the
// dashboard (pdf, table, report, web).
func SourceType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "pdf"
	case ".xlsx", ".xls", ".csv":
		return "table"
	case ".docx", ".doc":
		return "report"
	default:
		return "web"
	}
}

// reindentJSON re-serializes JSON in indented form so structural hierarchy
// survives chunking as readable text. Invalid JSON passes through unchanged.
func reindentJSON(data []byte) string {
	var buf bytes.Buffer
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return string(data)
	}
	return buf.String()
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

var whitespaceRe = regexp.MustCompile(`\s+`)
