package extract

import (
	"regexp"
	"strings"
)

// PDF text extraction without a structural parser: scan BT...ET text blocks
// for the text-showing operators Tj (single string) and TJ (kerned array),
// then sweep uncompressed content streams for readable runs. Compressed or
// malformed streams may yield nothing; the caller falls back to a raw
// printable-run scan in that case.
var (
	textBlockRe = regexp.MustCompile(`(?s)BT\s*(.*?)\s*ET`)
	showRe      = regexp.MustCompile(`\(([^)]*)\)\s*Tj`)
	showArrayRe = regexp.MustCompile(`\[(.*?)\]\s*TJ`)
	literalRe   = regexp.MustCompile(`\(([^)]*)\)`)
	streamRe    = regexp.MustCompile(`(?s)stream\s*(.*?)\s*endstream`)
	readableRe  = regexp.MustCompile(`[A-Za-z][A-Za-z0-9\s.,;:!?'-]{10,}`)
)

func fromPDF(data []byte) string {
	raw := string(data)
	var parts []string

	for _, block := range textBlockRe.FindAllStringSubmatch(raw, -1) {
		body := block[1]

		for _, m := range showRe.FindAllStringSubmatch(body, -1) {
			parts = append(parts, unescapePDFString(m[1]))
		}

		for _, arr := range showArrayRe.FindAllStringSubmatch(body, -1) {
			for _, m := range literalRe.FindAllStringSubmatch(arr[1], -1) {
				parts = append(parts, unescapePDFString(m[1]))
			}
		}
	}

	for _, m := range streamRe.FindAllStringSubmatch(raw, -1) {
		parts = append(parts, readableRe.FindAllString(m[1], -1)...)
	}

	return collapseWhitespace(strings.Join(parts, " "))
}

var pdfEscaper = strings.NewReplacer(
	`\n`, "\n",
	`\r`, "\r",
	`\t`, "\t",
	`\(`, "(",
	`\)`, ")",
	`\\`, `\`,
)

func unescapePDFString(s string) string {
	return pdfEscaper.Replace(s)
}
