package japanese

import (
	"regexp"
	"strconv"
	"strings"
)

// Absent is the value of a positional feature missing from a label.
const Absent = -50

// Phones with special meaning in the label stream.
const (
	PhoneSilence = "sil"
	PhonePause   = "pau"
)

var (
	phoneRe = regexp.MustCompile(`-(.*?)\+`)
	a1Re    = regexp.MustCompile(`/A:([0-9\-]+)\+`)
	a2Re    = regexp.MustCompile(`\+([0-9]+)\+`)
	a3Re    = regexp.MustCompile(`\+([0-9]+)/`)
	e3Re    = regexp.MustCompile(`!([0-9]+)_`)
	f1Re    = regexp.MustCompile(`/F:([0-9]+)_`)
)

// Label is a full-context label reduced to the fields the prosody rules read.
type Label struct {
	Phone string

	// A1 is the mora position relative to the accent nucleus.
	A1 int
	// A2 is the mora position in the accent phrase, counted forward.
	A2 int
	// A3 is the mora position in the accent phrase, counted backward.
	A3 int
	// E3 is 1 when the previous accent phrase is interrogative.
	E3 int
	// F1 is the mora count of the current accent phrase.
	F1 int
}

// ParseLabel extracts the phone and positional features of one label line.
// Upper-case (devoiced) vowels are lower-cased.
func ParseLabel(line string) Label {
	l := Label{
		A1: feature(a1Re, line),
		A2: feature(a2Re, line),
		A3: feature(a3Re, line),
		E3: feature(e3Re, line),
		F1: feature(f1Re, line),
	}

	if m := phoneRe.FindStringSubmatch(line); m != nil {
		l.Phone = m[1]
	}
	switch l.Phone {
	case "A", "E", "I", "O", "U":
		l.Phone = strings.ToLower(l.Phone)
	}

	return l
}

// ParseLabels parses every line.
func ParseLabels(lines []string) []Label {
	out := make([]Label, len(lines))
	for i, line := range lines {
		out[i] = ParseLabel(line)
	}

	return out
}

func feature(re *regexp.Regexp, s string) int {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return Absent
	}

	v, err := strconv.Atoi(m[1])
	if err != nil {
		return Absent
	}

	return v
}
