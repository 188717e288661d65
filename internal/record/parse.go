package record

import (
	"strconv"
	"strings"
)

// ParseLabel extracts the canonical category from a raw menu label. Labels on
// the category pages often embed an occurrence count, e.g. "Java (12)"; the
// parenthetical suffix and surrounding whitespace are stripped.
func ParseLabel(raw string) string {
	label, _, _ := strings.Cut(raw, "(")
	return strings.TrimSpace(label)
}

// ParseCount extracts an integer count from a raw count span. The sites render
// counts as "(12)", "[1.234]" or "5,678"; brackets, parentheses and thousands
// separators are stripped before conversion. Malformed input coerces to 0
// instead of failing so that one broken list entry never aborts extraction of
// its siblings. The site markup is not contractually stable.
func ParseCount(raw string) int {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '(', ')', '[', ']', '.', ',', ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, raw)
	if cleaned == "" {
		return 0
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
