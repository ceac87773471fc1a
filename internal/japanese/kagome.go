package japanese

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// KagomeFrontend analyses text in-process with kagome and the IPA
// dictionary. Its labels carry the phone identity only, so no accent
// boundary marks are derived from them.
type KagomeFrontend struct {
	once sync.Once
	tok  *tokenizer.Tokenizer
	err  error
}

// NewKagomeFrontend returns a frontend whose dictionary is loaded on first use.
func NewKagomeFrontend() *KagomeFrontend {
	return &KagomeFrontend{}
}

func (f *KagomeFrontend) tokenizer() (*tokenizer.Tokenizer, error) {
	f.once.Do(func() {
		f.tok, f.err = tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
		if f.err != nil {
			f.err = fmt.Errorf("load kagome ipa dictionary: %w", f.err)
		}
	})

	return f.tok, f.err
}

// G2P returns the phones of the pronunciation of every token. Digits and
// Latin letters, which the dictionary has no reading for, are spelled out
// in katakana first.
func (f *KagomeFrontend) G2P(_ context.Context, text string) ([]string, error) {
	tok, err := f.tokenizer()
	if err != nil {
		return nil, err
	}

	var phones []string
	for _, t := range tok.Tokenize(SpellOut(text)) {
		phones = append(phones, KanaToPhones(reading(t))...)
	}

	return phones, nil
}

// Labels wraps the G2P phones in minimal context labels framed by silences.
func (f *KagomeFrontend) Labels(ctx context.Context, text string) ([]string, error) {
	phones, err := f.G2P(ctx, text)
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(phones)+2)
	labels = append(labels, minimalLabel(PhoneSilence))
	for _, p := range phones {
		labels = append(labels, minimalLabel(p))
	}

	return append(labels, minimalLabel(PhoneSilence)), nil
}

// reading prefers the dictionary pronunciation and falls back to the surface
// form, which only yields phones when it is kana.
func reading(t tokenizer.Token) string {
	if p, ok := t.Pronunciation(); ok && p != "*" {
		return p
	}
	if r, ok := t.Reading(); ok && r != "*" {
		return r
	}

	return t.Surface
}

func minimalLabel(phone string) string {
	var b strings.Builder
	b.WriteString("xx^xx-")
	b.WriteString(phone)
	b.WriteString("+xx=xx")

	return b.String()
}
