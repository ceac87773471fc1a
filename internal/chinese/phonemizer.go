// Package chinese converts Mandarin text into initial/final phoneme symbols
// with numbered tones.
package chinese

import (
	"context"
	"strings"
	"unicode"

	"github.com/mozillazg/go-pinyin"

	"github.com/example/go-genie-tts/internal/text"
)

// Phonemizer converts Chinese text to phoneme symbols.
type Phonemizer struct {
	args pinyin.Args
}

// New returns a Phonemizer using numbered-tone pinyin.
func New() *Phonemizer {
	args := pinyin.NewArgs()
	args.Style = pinyin.Tone3

	return &Phonemizer{args: args}
}

// Phonemize returns the symbol sequence for s. Delimiter runs are kept as a
// single normalized punctuation symbol; blank input yields no symbols.
func (p *Phonemizer) Phonemize(_ context.Context, s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var out []string
	for _, span := range text.SplitPunctuation(s) {
		if span.Delimiter {
			out = append(out, strings.TrimSpace(span.Text))
			continue
		}
		out = append(out, p.spanPhonemes(span.Text)...)
	}

	return text.PostReplaceAll(out), nil
}

// Syllables romanizes s into numbered-tone syllables. Runs of non-Han
// characters are passed through as a single syllable.
func (p *Phonemizer) Syllables(s string) []string {
	var (
		out   []string
		run   []rune
		isHan bool
	)

	flush := func() {
		if len(run) == 0 {
			return
		}
		if isHan {
			out = p.hanSyllables(out, run)
		} else {
			out = append(out, string(run))
		}
		run = run[:0]
	}

	for _, r := range s {
		han := unicode.Is(unicode.Han, r)
		if len(run) > 0 && han != isHan {
			flush()
		}
		isHan = han
		run = append(run, r)
	}
	flush()

	return out
}

// hanSyllables appends the readings of a Han run to out. Known polyphonic
// words are matched longest first; the rest is read character by character.
func (p *Phonemizer) hanSyllables(out []string, run []rune) []string {
	start := 0
	lazy := func(end int) {
		if start < end {
			for _, py := range pinyin.LazyPinyin(string(run[start:end]), p.args) {
				out = append(out, strings.ReplaceAll(py, "ü", "v"))
			}
		}
	}

	for i := 0; i < len(run); {
		n, readings := matchPhrase(run[i:])
		if n == 0 {
			i++
			continue
		}
		lazy(i)
		out = append(out, readings...)
		i += n
		start = i
	}
	lazy(len(run))

	return out
}

func (p *Phonemizer) spanPhonemes(s string) []string {
	var out []string
	for _, syllable := range p.Syllables(s) {
		base, tone := SplitTone(syllable)
		initial, final := SplitSyllable(base)

		if initial != "" {
			out = append(out, initial)
		}
		if final != "" {
			out = append(out, final+tone)
		}
	}

	return out
}
