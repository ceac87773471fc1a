package text

import "strings"

// delimiters is the punctuation and whitespace class that separates
// linguistic content. Runs of delimiters form a single span.
const delimiters = ",./?!~…・;:\"'\n\t 、，。！？；：“”‘’"

// Span is a contiguous piece of text, either linguistic content or a run of
// delimiter characters.
type Span struct {
	Text      string
	Delimiter bool
}

// IsDelimiter reports whether r belongs to the delimiter class.
func IsDelimiter(r rune) bool {
	return strings.ContainsRune(delimiters, r)
}

// SplitPunctuation partitions text into alternating content and delimiter
// spans, in order. Concatenating the span texts yields the input.
func SplitPunctuation(text string) []Span {
	var spans []Span
	start := 0
	inDelim := false

	for i, r := range text {
		d := IsDelimiter(r)
		if i == 0 {
			inDelim = d
			continue
		}
		if d != inDelim {
			spans = append(spans, Span{Text: text[start:i], Delimiter: inDelim})
			start = i
			inDelim = d
		}
	}

	if start < len(text) {
		spans = append(spans, Span{Text: text[start:], Delimiter: inDelim})
	}

	return spans
}
