package text

// postReplacements normalizes full-width punctuation and line breaks in
// phonemizer output to the symbols in the vocabulary.
var postReplacements = map[string]string{
	"：":   ",",
	"；":   ",",
	"，":   ",",
	"。":   ".",
	"！":   "!",
	"？":   "?",
	"\n":  ".",
	"·":   ",",
	"、":   ",",
	"...": "…",
}

// PostReplace maps a single phonemizer symbol to its normalized form.
// Symbols without a mapping are returned unchanged.
func PostReplace(symbol string) string {
	if r, ok := postReplacements[symbol]; ok {
		return r
	}

	return symbol
}

// PostReplaceAll applies PostReplace to every symbol and drops empty results.
func PostReplaceAll(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if r := PostReplace(s); r != "" {
			out = append(out, r)
		}
	}

	return out
}
