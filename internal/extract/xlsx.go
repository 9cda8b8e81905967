package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"
)

// fromXLSX reads all worksheet parts of an OOXML spreadsheet, resolving
// shared-string references, inline strings, and raw cell values, then
// deduplicates the collected values.
func fromXLSX(data []byte) string {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}

	shared := parseSharedStrings(readArchiveFile(reader, "xl/sharedStrings.xml"))

	var values []string
	for _, file := range reader.File {
		if !strings.HasPrefix(file.Name, "xl/worksheets/sheet") || !strings.HasSuffix(file.Name, ".xml") {
			continue
		}
		content := readArchiveFile(reader, file.Name)
		if content == nil {
			continue
		}
		values = append(values, parseSheet(content, shared)...)
	}
	values = append(values, shared...)

	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return collapseWhitespace(strings.Join(out, " "))
}

type sharedStringTable struct {
	Items []struct {
		Text string `xml:"t"`
		// Rich-text runs carry their text a level deeper.
		Runs []struct {
			Text string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

func parseSharedStrings(content []byte) []string {
	if content == nil {
		return nil
	}
	var table sharedStringTable
	if err := xml.Unmarshal(content, &table); err != nil {
		return nil
	}
	strs := make([]string, 0, len(table.Items))
	for _, item := range table.Items {
		text := item.Text
		for _, run := range item.Runs {
			text += run.Text
		}
		strs = append(strs, text)
	}
	return strs
}

type worksheet struct {
	Rows []struct {
		Cells []sheetCell `xml:"c"`
	} `xml:"sheetData>row"`
}

type sheetCell struct {
	Type   string `xml:"t,attr"`
	Value  string `xml:"v"`
	Inline struct {
		Text string `xml:"t"`
	} `xml:"is"`
}

func parseSheet(content []byte, shared []string) []string {
	var ws worksheet
	if err := xml.Unmarshal(content, &ws); err != nil {
		return nil
	}

	var values []string
	for _, row := range ws.Rows {
		for _, cell := range row.Cells {
			switch cell.Type {
			case "s": // shared-string reference
				idx, err := strconv.Atoi(strings.TrimSpace(cell.Value))
				if err == nil && idx >= 0 && idx < len(shared) {
					values = append(values, shared[idx])
				}
			case "inlineStr":
				values = append(values, cell.Inline.Text)
			default: // numeric or typed literal
				if strings.TrimSpace(cell.Value) != "" {
					values = append(values, cell.Value)
				}
			}
		}
	}
	return values
}
