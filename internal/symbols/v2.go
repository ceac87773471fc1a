package symbols

import (
	"sort"
	"sync"
)

// VersionV2 identifies the vocabulary shared by the Japanese and Chinese
// front-ends of the v2 acoustic models.
const VersionV2 = "v2"

// Unknown is the symbol every out-of-vocabulary token resolves to.
const Unknown = "UNK"

const pad = "_"

var initials = []string{
	"AA", "EE", "OO", "b", "c", "ch", "d", "f", "g", "h", "j", "k", "l", "m", "n",
	"p", "q", "r", "s", "sh", "t", "w", "x", "y", "z", "zh",
}

var finals = []string{
	"E", "En", "a", "ai", "an", "ang", "ao", "e", "ei", "en", "eng", "er", "i", "i0",
	"ia", "ian", "iang", "iao", "ie", "in", "ing", "iong", "ir", "iu", "o", "ong", "ou",
	"u", "ua", "uai", "uan", "uang", "ui", "un", "uo", "v", "van", "ve", "vn",
}

var japanesePhones = []string{
	"I", "N", "U", "a", "b", "by", "ch", "cl", "d", "dy", "e", "f", "g", "gy", "h", "hy",
	"i", "j", "k", "ky", "m", "my", "n", "ny", "o", "p", "py", "r", "ry", "s", "sh", "t",
	"ts", "u", "v", "w", "y", "z", "#",
}

var punctuation = []string{"!", "?", "…", ",", ".", "-", "SP", "SP2", "SP3", Unknown}

var arpabet = []string{
	"AH0", "S", "AH1", "EY2", "AE2", "EH0", "OW2", "UH0", "NG", "B", "G", "AY0", "M",
	"AA0", "F", "AO0", "ER2", "UH1", "IY1", "AH2", "DH", "IY0", "EY1", "IH0", "K", "N",
	"W", "IY2", "T", "AA1", "ER1", "EH2", "OY0", "UH2", "UW1", "Z", "AW2", "AW1", "V",
	"UW2", "AA2", "ER", "AW0", "UW0", "R", "OW1", "EH1", "ZH", "AE0", "IH2", "IH", "Y",
	"JH", "P", "AY1", "EY0", "OY2", "TH", "HH", "D", "ER0", "CH", "AO1", "AE1", "AO2",
	"OY1", "AY2", "IH1", "OW0", "L", "SH",
}

// pitchMarkers were added after the base set was frozen, so they sit after
// the sorted block instead of inside it.
var pitchMarkers = []string{"[", "]"}

var (
	v2Once  sync.Once
	v2Table *Table
)

// V2 returns the process-wide v2 symbol table.
func V2() *Table {
	v2Once.Do(func() {
		t, err := New(VersionV2, v2Vocabulary())
		if err != nil {
			panic("symbols: invalid v2 vocabulary: " + err.Error())
		}
		v2Table = t
	})

	return v2Table
}

func v2Vocabulary() []string {
	seen := make(map[string]struct{})
	base := make([]string, 0, 512)

	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		base = append(base, s)
	}

	add(pad)
	for _, s := range initials {
		add(s)
	}
	for tone := '1'; tone <= '5'; tone++ {
		for _, f := range finals {
			add(f + string(tone))
		}
	}
	for _, group := range [][]string{japanesePhones, punctuation, arpabet} {
		for _, s := range group {
			add(s)
		}
	}

	sort.Strings(base)

	return append(base, pitchMarkers...)
}
