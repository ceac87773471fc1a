package japanese

import (
	"strings"
	"unicode"
)

// collapsible characters are reduced to one occurrence when repeated.
const collapsible = ",./?!~…・"

var symbolReadings = strings.NewReplacer(
	"%", "パーセント",
	"％", "パーセント",
)

// Normalize spells out symbols that have a Japanese reading, collapses runs
// of identical punctuation and lower-cases the text.
func Normalize(s string) string {
	s = symbolReadings.Replace(s)

	var b strings.Builder
	b.Grow(len(s))

	var prev rune = -1
	for _, r := range s {
		if r == prev && strings.ContainsRune(collapsible, r) {
			continue
		}
		b.WriteRune(r)
		prev = r
	}

	return strings.ToLower(b.String())
}

// IsContent reports whether r is part of Japanese script content: kana,
// kanji, the iteration mark, and half or full-width alphanumerics.
func IsContent(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case unicode.Is(unicode.Nd, r):
		return true
	case r == '々':
		return true
	case r >= '぀' && r <= 'ヿ':
		return true
	case r >= '一' && r <= '鿿':
		return true
	case r >= '１' && r <= '９':
		return true
	case r >= 'Ａ' && r <= 'Ｚ', r >= 'ａ' && r <= 'ｚ':
		return true
	case r >= 'ｦ' && r <= 'ﾝ':
		return true
	}

	return false
}

// Segment is a run of content followed by the single mark character that
// ended it. Either field may be empty.
type Segment struct {
	Content string
	Mark    string
}

// Split breaks s into content runs separated by individual mark characters,
// keeping their interleaving order.
func Split(s string) []Segment {
	var (
		segs  []Segment
		start int
	)

	for i, r := range s {
		if IsContent(r) {
			continue
		}
		segs = append(segs, Segment{Content: s[start:i], Mark: string(r)})
		start = i + len(string(r))
	}

	return append(segs, Segment{Content: s[start:]})
}
