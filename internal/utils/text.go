package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes accented characters and drops the combining marks,
// so "Línea" and "Linea" compare equal after normalization.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeText canonicalises Spanish station and line names: lowercase,
// slashes to spaces, accents removed, surrounding whitespace trimmed.
func NormalizeText(text string) string {
	text = strings.ToLower(text)
	text = strings.ReplaceAll(text, "/", " ")
	if out, _, err := transform.String(stripMarks, text); err == nil {
		text = out
	}
	return strings.TrimSpace(text)
}
