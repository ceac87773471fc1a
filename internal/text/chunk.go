package text

import "strings"

// MinSentenceLength is the effective length below which a chunk is folded
// into the chunk before it.
const MinSentenceLength = 5

// sentenceTerminators end a chunk; the terminator stays with the chunk it closes.
const sentenceTerminators = "，。！？…!?."

// SplitSentences splits long text into sentence-like chunks at terminator
// punctuation. Chunks are returned untrimmed so that their concatenation
// reproduces the input. A chunk whose EffectiveLength is below
// MinSentenceLength is appended to the previous chunk when there is one.
// Blank input yields no chunks.
func SplitSentences(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	var out []string
	for _, raw := range splitAfterTerminators(text) {
		if len(out) > 0 && EffectiveLength(raw) < MinSentenceLength {
			out[len(out)-1] += raw
			continue
		}
		out = append(out, raw)
	}

	if len(out) == 0 {
		return []string{trimmed}
	}

	return out
}

// EffectiveLength counts the runes of s that carry sentence weight: ASCII
// letters and digits and CJK unified ideographs (U+4E00..U+9FFF). Kana,
// accented Latin, full-width forms, punctuation and whitespace do not count.
func EffectiveLength(s string) int {
	n := 0
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			n++
		case r >= 0x4E00 && r <= 0x9FFF:
			n++
		}
	}

	return n
}

// splitAfterTerminators cuts text right after every terminator rune.
// Empty pieces are dropped.
func splitAfterTerminators(text string) []string {
	var pieces []string
	start := 0

	for i, r := range text {
		if !strings.ContainsRune(sentenceTerminators, r) {
			continue
		}
		end := i + len(string(r))
		if end > start {
			pieces = append(pieces, text[start:end])
		}
		start = end
	}

	if start < len(text) {
		pieces = append(pieces, text[start:])
	}

	return pieces
}
