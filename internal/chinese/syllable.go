package chinese

import "strings"

// initials lists the consonantal onsets, including the glides y and w.
// Two-letter initials come before their one-letter prefixes.
var initials = []string{
	"zh", "ch", "sh",
	"b", "p", "m", "f", "d", "t", "n", "l", "g", "k", "h", "j", "q", "x", "r", "z", "c", "s",
	"y", "w",
}

// NeutralTone is the tone digit given to syllables without a tone mark.
const NeutralTone = "5"

// SplitTone separates a numbered-tone syllable ("hao3") into its base and
// tone digits. Syllables without trailing digits get NeutralTone.
func SplitTone(syllable string) (base, tone string) {
	base = strings.TrimRight(syllable, "12345")
	tone = syllable[len(base):]
	if tone == "" {
		tone = NeutralTone
	}

	return base, tone
}

// SplitSyllable decomposes a toneless syllable into its initial and final.
// Either part may be empty.
func SplitSyllable(syllable string) (initial, final string) {
	for _, i := range initials {
		if strings.HasPrefix(syllable, i) {
			return i, syllable[len(i):]
		}
	}

	return "", syllable
}
