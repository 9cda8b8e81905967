package extract

import (
	"regexp"
	"strings"
)

// Legacy binary spreadsheets get no structural parser; scan for runs of
// printable ASCII and keep the ones that look like real content.
var (
	lettersRe     = regexp.MustCompile(`[a-zA-Z]{2,}`)
	numbersOnlyRe = regexp.MustCompile(`^\d+$`)
)

func fromXLS(data []byte) string {
	var runs []string
	var current strings.Builder

	for _, b := range data {
		if b >= 32 && b <= 126 {
			current.WriteByte(b)
			continue
		}
		if current.Len() > 3 {
			runs = append(runs, current.String())
		}
		current.Reset()
	}
	if current.Len() > 3 {
		runs = append(runs, current.String())
	}

	filtered := make([]string, 0, len(runs))
	for _, run := range runs {
		if len(run) <= 5 {
			continue
		}
		if !lettersRe.MatchString(run) {
			continue
		}
		if numbersOnlyRe.MatchString(run) {
			continue
		}
		filtered = append(filtered, run)
	}
	return collapseWhitespace(strings.Join(filtered, " "))
}
