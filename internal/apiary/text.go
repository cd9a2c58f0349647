package apiary

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText trims surrounding whitespace and applies Unicode NFC so that
// visually identical hive numbers and notes compare equal.
func NormalizeText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// Label formats an enumeration value for display ("config_change" -> "Config Change").
func Label[T ~string](v T) string {
	words := strings.ReplaceAll(string(v), "_", " ")
	return cases.Title(language.English).String(words)
}
