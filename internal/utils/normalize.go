package utils

import (
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// NormalizeName folds a product name into its identity form: NFKC (which
// turns half-width kana into full-width and full-width Latin into ASCII),
// lower case, with runs of whitespace collapsed to a single space.
func NormalizeName(name string) string {
	s := norm.NFKC.String(name)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// NarrowDigits maps full-width digits and punctuation to their ASCII forms.
func NarrowDigits(s string) string {
	return width.Narrow.String(s)
}
