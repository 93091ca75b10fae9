// Package text provides light text normalization applied before synthesis
// requests are forwarded to the inference provider.
package text

import (
	"regexp"
	"strings"
	"unicode"
)

// Typographic characters folded into their ASCII equivalents.
const (
	emDash       = "—"
	enDash       = "–"
	figureDash   = "‒"
	ellipsisChar = "…"
	ellipsis     = "..."
	hyphen       = "-"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

var typographicReplacer = strings.NewReplacer(
	emDash, hyphen,
	enDash, hyphen,
	figureDash, hyphen,
	ellipsisChar, ellipsis,
)

// Normalize folds typographic punctuation, strips control characters, and
// collapses runs of whitespace to single spaces. It never changes the spoken
// content of the text.
func Normalize(input string) string {
	folded := typographicReplacer.Replace(input)

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}

		return r
	}, folded)

	collapsed := whitespacePattern.ReplaceAllString(cleaned, " ")

	return strings.TrimSpace(collapsed)
}
