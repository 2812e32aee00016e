package validation

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// strictHTMLPolicy removes every tag and attribute.
var strictHTMLPolicy = bluemonday.StrictPolicy()

// SanitizeText removes all HTML tags and attributes from an input string
// before it is written to the ledger.
func SanitizeText(s string) string {
	return strictHTMLPolicy.Sanitize(s)
}

// StripUnprintable removes non-printable characters, keeping plain spaces.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, s)
}

// CleanLabel sanitizes a free-text label and collapses runs of whitespace.
// bluemonday escapes characters like '&'; they are restored so labels round-trip as typed.
func CleanLabel(s string) string {
	cleaned := SanitizeText(StripUnprintable(s))
	cleaned = htmlUnescaper.Replace(cleaned)
	return strings.Join(strings.Fields(cleaned), " ")
}

var htmlUnescaper = strings.NewReplacer("&amp;", "&", "&#39;", "'", "&#34;", `"`, "&quot;", `"`)
