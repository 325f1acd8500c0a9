package jptext

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

var spaceRe = regexp.MustCompile(`\s+`)

// NormalizeSpace collapses every whitespace variant (including the
// full-width ideographic space) into single ASCII spaces and trims.
func NormalizeSpace(s string) string {
	x := strings.ReplaceAll(s, "　", " ")
	x = spaceRe.ReplaceAllString(x, " ")
	return strings.TrimSpace(x)
}

// Compact is NormalizeSpace with all remaining spaces removed. Municipal
// exports are inconsistent about spacing inside names, so identity
// comparisons use the compact form.
func Compact(s string) string {
	return strings.ReplaceAll(NormalizeSpace(s), " ", "")
}

// FoldWidth converts full-width alphanumerics and punctuation to their
// half-width forms. Kana is left untouched (Narrow would turn it into
// half-width katakana, which nothing downstream wants).
func FoldWidth(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isKana(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteString(width.Narrow.String(string(r)))
	}
	return b.String()
}

func isKana(r rune) bool {
	return (r >= 0x3041 && r <= 0x309F) || (r >= 0x30A0 && r <= 0x30FF)
}

var parenRe = regexp.MustCompile(`[（(][^）)]*[）)]`)

// StripParens removes parenthesised annotations (both ASCII and
// full-width parentheses) that sheets append to names.
func StripParens(s string) string {
	return NormalizeSpace(parenRe.ReplaceAllString(s, ""))
}

// NormalizeName prepares a facility name for use in search queries:
// annotations removed, widths folded, spacing collapsed.
func NormalizeName(name string) string {
	return NormalizeSpace(FoldWidth(StripParens(name)))
}

// brandPrefixes are operator brands that frequently prefix a nursery
// name and hurt geocoder hit rates when included.
var brandPrefixes = []string{
	"ベネッセ", "アスク", "岩崎学園", "にじいろ", "太陽の子", "ポピンズ", "グローバルキッズ",
}

// StripBrandPrefix drops a known operator brand from the front of a
// facility name. Returns the name unchanged when no brand matches.
func StripBrandPrefix(name string) string {
	x := NormalizeName(name)
	for _, p := range brandPrefixes {
		if strings.HasPrefix(x, p+" ") {
			return strings.TrimSpace(x[len(p)+1:])
		}
		if strings.HasPrefix(x, p) {
			return strings.TrimLeft(x[len(p):], " ")
		}
	}
	return x
}
