package transcript

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// PlainText makes entry text safe to print on a terminal: escape
// sequences are stripped and other control characters dropped, leaving
// newlines and tabs.
func PlainText(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, ansi.Strip(text))
}
