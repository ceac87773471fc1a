// Package g2p turns text into model input ids by routing it to a
// language-specific phonemizer and mapping the resulting symbols through the
// shared vocabulary.
package g2p

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/go-genie-tts/internal/symbols"
)

// Phonemizer converts text into vocabulary symbols.
type Phonemizer interface {
	Phonemize(ctx context.Context, text string) ([]string, error)
}

// Encoder maps text to symbol ids.
type Encoder struct {
	table       *symbols.Table
	phonemizers map[Language]Phonemizer
}

// NewEncoder builds an Encoder. A nil table selects the v2 vocabulary.
func NewEncoder(table *symbols.Table, phonemizers map[Language]Phonemizer) (*Encoder, error) {
	if table == nil {
		table = symbols.V2()
	}
	if len(phonemizers) == 0 {
		return nil, errors.New("g2p: at least one phonemizer is required")
	}

	ps := make(map[Language]Phonemizer, len(phonemizers))
	for lang, p := range phonemizers {
		if lang == LanguageAuto {
			return nil, fmt.Errorf("g2p: %q cannot be registered", LanguageAuto)
		}
		if p == nil {
			return nil, fmt.Errorf("g2p: nil phonemizer for %q", lang)
		}
		ps[lang] = p
	}

	return &Encoder{table: table, phonemizers: ps}, nil
}

// Table returns the vocabulary used by Encode.
func (e *Encoder) Table() *symbols.Table { return e.table }

// Supports reports whether lang can be encoded, resolving LanguageAuto.
func (e *Encoder) Supports(lang Language) bool {
	if lang == LanguageAuto {
		return true
	}
	_, ok := e.phonemizers[lang]
	return ok
}

// Resolve returns the concrete language used for text.
func (e *Encoder) Resolve(text string, lang Language) (Language, error) {
	if lang == LanguageAuto {
		lang = DetectLanguage(text)
	}
	if _, ok := e.phonemizers[lang]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}

	return lang, nil
}

// Symbols phonemizes text in lang.
func (e *Encoder) Symbols(ctx context.Context, text string, lang Language) ([]string, error) {
	resolved, err := e.Resolve(text, lang)
	if err != nil {
		return nil, err
	}

	syms, err := e.phonemizers[resolved].Phonemize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("phonemize %s: %w", resolved, err)
	}

	return syms, nil
}

// Encode phonemizes text and maps every symbol to its id. Symbols outside
// the vocabulary map to the unknown id.
func (e *Encoder) Encode(ctx context.Context, text string, lang Language) ([]int64, error) {
	syms, err := e.Symbols(ctx, text, lang)
	if err != nil {
		return nil, err
	}

	return e.table.Encode(syms), nil
}
