package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// fromDOCX opens the buffer as an OOXML archive and extracts the text runs
// of word/document.xml, grouped per paragraph so line breaks are preserved.
func fromDOCX(data []byte) string {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}

	content := readArchiveFile(reader, "word/document.xml")
	if content == nil {
		return ""
	}

	var doc wordDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		return ""
	}

	var out strings.Builder
	for i, para := range doc.Body.Paragraphs {
		var line strings.Builder
		for _, run := range para.Runs {
			for _, t := range run.Text {
				line.WriteString(t.Content)
			}
		}
		if strings.TrimSpace(line.String()) == "" {
			continue
		}
		if i > 0 && out.Len() > 0 {
			out.WriteString("\n")
		}
		out.WriteString(line.String())
	}
	return strings.TrimSpace(out.String())
}

type wordDocument struct {
	Body struct {
		Paragraphs []wordParagraph `xml:"p"`
	} `xml:"body"`
}

type wordParagraph struct {
	Runs []wordRun `xml:"r"`
}

type wordRun struct {
	Text []wordText `xml:"t"`
}

type wordText struct {
	Content string `xml:",chardata"`
}

func readArchiveFile(reader *zip.Reader, name string) []byte {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil
		}
		return content
	}
	return nil
}
